package boot

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is read from the environment exactly once at process start and
// handed by reference to every constructor. Nothing else reads env vars.
type Config struct {
	Env          string `env:"ENV,default=dev"`
	BindAddr     string `env:"BIND_ADDR,default=:8080"`
	MetricsAddr  string `env:"METRICS_ADDR,default=:8081"`
	DatabasePath string `env:"DATABASE_PATH,default=contacts.db"`

	// SecretKey signs every token the server issues. Refusing to boot
	// without it beats issuing tokens signed with an empty key.
	SecretKey       string        `env:"SECRET_KEY,required"`
	PublicBaseURL   string        `env:"PUBLIC_BASE_URL,default=http://localhost:8080"`
	SessionTokenTTL time.Duration `env:"SESSION_TOKEN_TTL,default=30m"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL,default=1h"`
	UserCacheTTL    time.Duration `env:"USER_CACHE_TTL,default=1h"`

	SMTPHost     string `env:"SMTP_HOST,default=localhost"`
	SMTPPort     int    `env:"SMTP_PORT,default=25"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	MailFrom     string `env:"MAIL_FROM,default=no-reply@localhost"`

	AvatarBucket    string `env:"AVATAR_BUCKET,default=avatars"`
	AvatarRegion    string `env:"AVATAR_REGION,default=us-east-1"`
	AvatarEndpoint  string `env:"AVATAR_ENDPOINT"`
	AvatarAccessKey string `env:"AVATAR_ACCESS_KEY"`
	AvatarSecretKey string `env:"AVATAR_SECRET_KEY"`
	AvatarBaseURL   string `env:"AVATAR_BASE_URL"`
}

func Load() (*Config, error) {
	config := &Config{}
	if err := envconfig.Process(context.Background(), config); err != nil {
		return nil, fmt.Errorf("parsing env vars: %w", err)
	}
	return config, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "dev"
}
