package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"uk.co.dudmesh.contacts/internal/model"
)

type AuthService interface {
	Signup(ctx context.Context, params *model.CreateUserParams) (*model.User, error)
	Login(ctx context.Context, email string, password string) (string, error)
	Confirm(ctx context.Context, tokenString string) error
	Resolve(ctx context.Context, tokenString string) (*model.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenString string, newPassword string) error
	UpdateAvatar(ctx context.Context, user *model.User, contentType string, body io.Reader) (string, error)
	ListUsers(ctx context.Context) ([]model.User, error)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type resetRequestParams struct {
	Email string `json:"email"`
}

type resetConfirmParams struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

func Signup(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.CreateUserParams{}
		if err := c.Bind(params); err != nil {
			return err
		}
		if params.Username == "" || params.Email == "" || params.Password == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
		}

		user, err := authService.Signup(c.Request().Context(), params)
		if err != nil {
			if errors.Is(err, model.ErrorDuplicateEmail) || errors.Is(err, model.ErrorDuplicateUsername) {
				return echo.NewHTTPError(http.StatusConflict, "user already exists")
			}
			return err
		}
		return c.JSON(http.StatusCreated, user)
	}
}

func Login(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &model.LoginParams{}
		if err := c.Bind(params); err != nil {
			return err
		}

		sessionToken, err := authService.Login(c.Request().Context(), params.Email, params.Password)
		if err != nil {
			if errors.Is(err, model.ErrorInvalidEmailOrPassword) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
			}
			return err
		}
		return c.JSON(http.StatusOK, tokenResponse{AccessToken: sessionToken, TokenType: "bearer"})
	}
}

func ConfirmEmail(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		tokenString := c.QueryParam("token")
		err := authService.Confirm(c.Request().Context(), tokenString)
		if err != nil {
			if errors.Is(err, model.ErrorInvalidToken) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid token")
			}
			if errors.Is(err, model.ErrorUserNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "user not found")
			}
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Email confirmed"})
	}
}

func Me() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, CurrentUser(c))
	}
}

func UpdateAvatar(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "missing file")
		}

		file, err := fileHeader.Open()
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "unreadable file")
		}
		defer file.Close()

		contentType := fileHeader.Header.Get(echo.HeaderContentType)
		avatarURL, err := authService.UpdateAvatar(c.Request().Context(), CurrentUser(c), contentType, file)
		if err != nil {
			if errors.Is(err, model.ErrorUnsupportedImageType) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid file type, only JPEG and PNG allowed")
			}
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"avatar_url": avatarURL})
	}
}

func RequestPasswordReset(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &resetRequestParams{}
		if err := c.Bind(params); err != nil {
			return err
		}

		err := authService.RequestPasswordReset(c.Request().Context(), params.Email)
		if err != nil {
			if errors.Is(err, model.ErrorUserNotFound) {
				return echo.NewHTTPError(http.StatusNotFound, "user not found")
			}
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Password reset email sent"})
	}
}

func ResetPassword(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		params := &resetConfirmParams{}
		if err := c.Bind(params); err != nil {
			return err
		}

		err := authService.ResetPassword(c.Request().Context(), params.Token, params.NewPassword)
		if err != nil {
			if errors.Is(err, model.ErrorInvalidToken) || errors.Is(err, model.ErrorUserNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, "invalid token or user")
			}
			return err
		}
		return c.JSON(http.StatusOK, messageResponse{Message: "Password updated successfully"})
	}
}

func ListUsers(authService AuthService) echo.HandlerFunc {
	return func(c echo.Context) error {
		users, err := authService.ListUsers(c.Request().Context())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, users)
	}
}
