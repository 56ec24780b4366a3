package auth

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/model"
	"uk.co.dudmesh.contacts/internal/store"
	"uk.co.dudmesh.contacts/internal/token"
)

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*model.User
	nextID  int64
	lookups int
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{users: map[string]*model.User{}}
}

func (d *fakeDirectory) CreateUser(ctx context.Context, params *model.CreateUserParams, passwordHash string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.users[params.Email]; exists {
		return nil, model.ErrorDuplicateEmail
	}
	d.nextID++
	user := &model.User{
		ID:        d.nextID,
		CreatedAt: time.Now().UTC(),
		Username:  params.Username,
		Email:     params.Email,
		Password:  passwordHash,
		IsActive:  true,
		Role:      model.RoleUser,
	}
	d.users[params.Email] = user
	return user, nil
}

func (d *fakeDirectory) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups++
	user, ok := d.users[email]
	if !ok {
		return nil, model.ErrorUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (d *fakeDirectory) ListUsers(ctx context.Context) ([]model.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	users := []model.User{}
	for _, user := range d.users {
		users = append(users, *user)
	}
	return users, nil
}

func (d *fakeDirectory) ConfirmUser(ctx context.Context, email string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[email]
	if !ok {
		return model.ErrorUserNotFound
	}
	user.Confirmed = true
	return nil
}

func (d *fakeDirectory) UpdatePassword(ctx context.Context, email string, passwordHash string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[email]
	if !ok {
		return model.ErrorUserNotFound
	}
	user.Password = passwordHash
	return nil
}

func (d *fakeDirectory) UpdateAvatar(ctx context.Context, userID int64, avatarURL string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, user := range d.users {
		if user.ID == userID {
			user.AvatarURL = &avatarURL
			return nil
		}
	}
	return model.ErrorUserNotFound
}

func (d *fakeDirectory) delete(email string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.users, email)
}

func (d *fakeDirectory) lookupCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lookups
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type capturingMailer struct {
	sent chan sentMail
}

func newCapturingMailer() *capturingMailer {
	return &capturingMailer{sent: make(chan sentMail, 8)}
}

func (m *capturingMailer) Send(to string, subject string, body string) error {
	m.sent <- sentMail{to, subject, body}
	return nil
}

func (m *capturingMailer) wait(t *testing.T) sentMail {
	t.Helper()
	select {
	case msg := <-m.sent:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no email dispatched")
		return sentMail{}
	}
}

type fakeUploader struct {
	url string
}

func (u *fakeUploader) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", model.ErrorUnsupportedImageType
	}
	return u.url, nil
}

func tokenFromBody(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	if i < 0 {
		t.Fatalf("no token in body %q", body)
	}
	return body[i+len("token="):]
}

func testConfig() *boot.Config {
	return &boot.Config{
		SecretKey:       "test-secret",
		PublicBaseURL:   "http://localhost:8080",
		SessionTokenTTL: 30 * time.Minute,
		ResetTokenTTL:   time.Hour,
		UserCacheTTL:    time.Hour,
	}
}

func newTestService(t *testing.T) (*service, *fakeDirectory, *capturingMailer) {
	t.Helper()
	directory := newFakeDirectory()
	mailer := newCapturingMailer()
	cache, err := store.NewUserCache(time.Hour)
	if err != nil {
		t.Fatalf("creating cache: %+v", err)
	}
	t.Cleanup(func() { cache.Close() })

	config := testConfig()
	svc := New(config, directory, cache, token.New(config.SecretKey), mailer, &fakeUploader{url: "https://img.example.com/avatars/x.jpg"})
	return svc, directory, mailer
}

func signupTestUser(t *testing.T, svc *service, mailer *capturingMailer, email string) *model.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), &model.CreateUserParams{
		Username: strings.Split(email, "@")[0],
		Email:    email,
		Password: "pw",
	})
	if err != nil {
		t.Fatalf("signing up: %+v", err)
	}
	mailer.wait(t) // confirmation email
	return user
}

func TestSignupAndConfirm(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, directory, mailer := newTestService(t)

	user, err := svc.Signup(ctx, &model.CreateUserParams{
		Username: "alice",
		Email:    "a@x.com",
		Password: "pw",
	})
	assert.Nil(err)
	assert.False(user.Confirmed)
	assert.NotEqual("pw", user.Password)

	msg := mailer.wait(t)
	assert.Equal("a@x.com", msg.to)
	assert.Contains(msg.body, "/auth/confirm?token=")

	t.Run("confirm with mailed token", func(t *testing.T) {
		err := svc.Confirm(ctx, tokenFromBody(t, msg.body))
		assert.Nil(err)
		confirmed, err := directory.GetUserByEmail(ctx, "a@x.com")
		assert.Nil(err)
		assert.True(confirmed.Confirmed)
	})

	t.Run("confirm with garbage token", func(t *testing.T) {
		assert.ErrorIs(svc.Confirm(ctx, "garbage"), model.ErrorInvalidToken)
	})
}

func TestLogin(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, _, mailer := newTestService(t)
	signupTestUser(t, svc, mailer, "a@x.com")

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "a@x.com", "wrong")
		assert.ErrorIs(err, model.ErrorInvalidEmailOrPassword)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := svc.Login(ctx, "nobody@x.com", "pw")
		assert.ErrorIs(err, model.ErrorInvalidEmailOrPassword)
	})

	t.Run("success", func(t *testing.T) {
		sessionToken, err := svc.Login(ctx, "a@x.com", "pw")
		assert.Nil(err)
		user, err := svc.Resolve(ctx, sessionToken)
		assert.Nil(err)
		assert.Equal("a@x.com", user.Email)
	})
}

func TestResolve(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, directory, mailer := newTestService(t)
	signupTestUser(t, svc, mailer, "a@x.com")

	sessionToken, err := svc.Login(ctx, "a@x.com", "pw")
	assert.Nil(err)
	lookupsAfterLogin := directory.lookupCount()

	t.Run("first resolution populates the cache", func(t *testing.T) {
		user, err := svc.Resolve(ctx, sessionToken)
		assert.Nil(err)
		assert.Equal("a@x.com", user.Email)
		assert.Equal(lookupsAfterLogin+1, directory.lookupCount())
	})

	t.Run("second resolution served from cache", func(t *testing.T) {
		user, err := svc.Resolve(ctx, sessionToken)
		assert.Nil(err)
		assert.Equal("a@x.com", user.Email)
		assert.Equal(lookupsAfterLogin+1, directory.lookupCount())
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err := svc.Resolve(ctx, "not.a.token")
		assert.ErrorIs(err, model.ErrorInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		expired, err := token.New(testConfig().SecretKey).Issue("a@x.com", -1*time.Second)
		assert.Nil(err)
		_, err = svc.Resolve(ctx, expired)
		assert.ErrorIs(err, model.ErrorInvalidToken)
	})

	t.Run("token for a deleted, uncached user", func(t *testing.T) {
		signupTestUser(t, svc, mailer, "gone@x.com")
		goneToken, err := svc.Login(ctx, "gone@x.com", "pw")
		assert.Nil(err)
		directory.delete("gone@x.com")
		_, err = svc.Resolve(ctx, goneToken)
		assert.ErrorIs(err, model.ErrorInvalidToken)
	})
}

func TestPasswordReset(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, _, mailer := newTestService(t)
	signupTestUser(t, svc, mailer, "a@x.com")

	t.Run("unknown email is reported", func(t *testing.T) {
		assert.ErrorIs(svc.RequestPasswordReset(ctx, "nobody@x.com"), model.ErrorUserNotFound)
	})

	t.Run("full reset flow", func(t *testing.T) {
		err := svc.RequestPasswordReset(ctx, "a@x.com")
		assert.Nil(err)

		msg := mailer.wait(t)
		assert.Equal("a@x.com", msg.to)
		assert.Equal("Password Reset Request", msg.subject)

		err = svc.ResetPassword(ctx, tokenFromBody(t, msg.body), "newpw")
		assert.Nil(err)

		_, err = svc.Login(ctx, "a@x.com", "pw")
		assert.ErrorIs(err, model.ErrorInvalidEmailOrPassword)
		_, err = svc.Login(ctx, "a@x.com", "newpw")
		assert.Nil(err)
	})

	t.Run("invalid reset token", func(t *testing.T) {
		assert.ErrorIs(svc.ResetPassword(ctx, "garbage", "pw"), model.ErrorInvalidToken)
	})
}

func TestUpdateAvatar(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	svc, directory, mailer := newTestService(t)
	user := signupTestUser(t, svc, mailer, "a@x.com")

	t.Run("rejects non-image content", func(t *testing.T) {
		_, err := svc.UpdateAvatar(ctx, user, "text/plain", strings.NewReader("nope"))
		assert.ErrorIs(err, model.ErrorUnsupportedImageType)
	})

	t.Run("persists the durable URL", func(t *testing.T) {
		avatarURL, err := svc.UpdateAvatar(ctx, user, "image/png", strings.NewReader("png-bytes"))
		assert.Nil(err)
		assert.Equal("https://img.example.com/avatars/x.jpg", avatarURL)

		stored, err := directory.GetUserByEmail(ctx, "a@x.com")
		assert.Nil(err)
		if assert.NotNil(stored.AvatarURL) {
			assert.Equal(avatarURL, *stored.AvatarURL)
		}
	})
}
