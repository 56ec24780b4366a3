package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/nrednav/cuid2"
	zlog "github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"uk.co.dudmesh.contacts/internal/avatar"
	"uk.co.dudmesh.contacts/internal/boot"
	"uk.co.dudmesh.contacts/internal/handlers"
	"uk.co.dudmesh.contacts/internal/logutil"
	"uk.co.dudmesh.contacts/internal/mail"
	"uk.co.dudmesh.contacts/internal/service/auth"
	"uk.co.dudmesh.contacts/internal/service/contact"
	"uk.co.dudmesh.contacts/internal/store"
	"uk.co.dudmesh.contacts/internal/token"
)

type AuthService interface {
	handlers.AuthService
}

type ContactService interface {
	handlers.ContactService
}

type config struct {
	boot.Config
	authService    AuthService
	contactService ContactService
}

func newConfig(bootConfig *boot.Config) *config {
	directory, err := store.New(bootConfig)
	if err != nil {
		log.Fatalf("opening store: %+v", err)
	}

	userCache, err := store.NewUserCache(bootConfig.UserCacheTTL)
	if err != nil {
		log.Fatalf("creating user cache: %+v", err)
	}

	uploader, err := avatar.New(bootConfig)
	if err != nil {
		log.Fatalf("creating avatar uploader: %+v", err)
	}

	tokenService := token.New(bootConfig.SecretKey)
	mailer := mail.NewSMTPSender(bootConfig)

	authService := auth.New(bootConfig, directory, userCache, tokenService, mailer, uploader)
	contactService := contact.New(directory)

	return &config{*bootConfig, authService, contactService}
}

func main() {
	bootConfig, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	config := newConfig(bootConfig)

	server := echo.New()
	server.Use(middleware.BodyLimit("10M"))
	server.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return cuid2.Generate()
		},
	}))
	server.Use(echoprometheus.NewMiddleware("contacts"))
	server.Use(middleware.Recover())
	server.Use(requestLogger())

	server.Logger.SetLevel(log.INFO)

	headers := []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	server.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     headers,
		AllowCredentials: true,
	}))

	authGroup := server.Group("/auth")
	authGroup.POST("/signup", handlers.Signup(config.authService))
	authGroup.POST("/login", handlers.Login(config.authService))
	authGroup.GET("/confirm", handlers.ConfirmEmail(config.authService))
	authGroup.POST("/request-password-reset", handlers.RequestPasswordReset(config.authService))
	authGroup.POST("/reset-password", handlers.ResetPassword(config.authService))
	authGroup.GET("/me", handlers.Me(), meRateLimiter(), handlers.Authenticate(config.authService))
	authGroup.POST("/avatar", handlers.UpdateAvatar(config.authService), handlers.Authenticate(config.authService))
	authGroup.GET("/users", handlers.ListUsers(config.authService), handlers.Authenticate(config.authService), handlers.RequireAdmin())

	contactGroup := server.Group("/contacts", handlers.Authenticate(config.authService))
	contactGroup.POST("", handlers.CreateContact(config.contactService))
	contactGroup.GET("", handlers.ListContacts(config.contactService))
	contactGroup.GET("/:id", handlers.GetContact(config.contactService))
	contactGroup.PUT("/:id", handlers.UpdateContact(config.contactService))
	contactGroup.DELETE("/:id", handlers.DeleteContact(config.contactService))

	go func() {
		metrics := echo.New()
		metrics.GET("/metrics", echoprometheus.NewHandler())
		if err := metrics.Start(config.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	go func() {
		if err := server.Start(config.BindAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			server.Logger.Fatal("shutting down the server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		server.Logger.Fatal(err)
	}
}

// requestLogger hangs a request-scoped zerolog logger off the context so
// services can log with the request id attached.
func requestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			logger := zlog.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()
			c.SetRequest(c.Request().WithContext(logutil.WithLogger(c.Request().Context(), logger)))
			return next(c)
		}
	}
}

// 5 requests per minute per client IP.
func meRateLimiter() echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(5.0 / 60.0),
			Burst:     5,
			ExpiresIn: 3 * time.Minute,
		}),
	})
}
