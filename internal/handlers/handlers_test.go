package handlers

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/model"
	"uk.co.dudmesh.contacts/internal/service/auth"
	"uk.co.dudmesh.contacts/internal/service/contact"
	"uk.co.dudmesh.contacts/internal/store"
	"uk.co.dudmesh.contacts/internal/token"
)

type noopMailer struct{}

func (noopMailer) Send(to string, subject string, body string) error { return nil }

type stubUploader struct{}

func (stubUploader) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	if contentType != "image/jpeg" && contentType != "image/png" {
		return "", model.ErrorUnsupportedImageType
	}
	return "https://img.example.com/avatars/fixed.png", nil
}

// newTestServer wires the real services over a throwaway sqlite store, with
// mail delivery and image storage stubbed out.
func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	config := &boot.Config{
		SecretKey:       "test-secret",
		PublicBaseURL:   "http://localhost:8080",
		SessionTokenTTL: 30 * time.Minute,
		ResetTokenTTL:   time.Hour,
		UserCacheTTL:    time.Hour,
	}

	directory, err := store.Open(filepath.Join(t.TempDir(), "contacts.db"))
	if err != nil {
		t.Fatalf("opening store: %+v", err)
	}
	t.Cleanup(func() { directory.Close() })

	userCache, err := store.NewUserCache(config.UserCacheTTL)
	if err != nil {
		t.Fatalf("creating cache: %+v", err)
	}
	t.Cleanup(func() { userCache.Close() })

	authService := auth.New(config, directory, userCache, token.New(config.SecretKey), noopMailer{}, stubUploader{})
	contactService := contact.New(directory)

	server := echo.New()

	authGroup := server.Group("/auth")
	authGroup.POST("/signup", Signup(authService))
	authGroup.POST("/login", Login(authService))
	authGroup.GET("/confirm", ConfirmEmail(authService))
	authGroup.POST("/request-password-reset", RequestPasswordReset(authService))
	authGroup.POST("/reset-password", ResetPassword(authService))
	authGroup.GET("/me", Me(), Authenticate(authService))
	authGroup.POST("/avatar", UpdateAvatar(authService), Authenticate(authService))
	authGroup.GET("/users", ListUsers(authService), Authenticate(authService), RequireAdmin())

	contactGroup := server.Group("/contacts", Authenticate(authService))
	contactGroup.POST("", CreateContact(contactService))
	contactGroup.GET("", ListContacts(contactService))
	contactGroup.GET("/:id", GetContact(contactService))
	contactGroup.PUT("/:id", UpdateContact(contactService))
	contactGroup.DELETE("/:id", DeleteContact(contactService))

	return server
}
