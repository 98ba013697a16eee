package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-reports/internal/api/dto"
	"github.com/spec-kit/civic-reports/internal/service"
	apperrors "github.com/spec-kit/civic-reports/pkg/util/errorutil"
)

// UsersHandler exposes signup and signin.
type UsersHandler struct {
	auth *service.AuthService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService) *UsersHandler {
	return &UsersHandler{auth: authService}
}

// Signup handles POST /user/signup.
func (h *UsersHandler) Signup(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	user, token, err := h.auth.Register(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.AuthResponse{
		User:      dto.NewUserResponse(user),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Message:   "User sign up success",
	})
}

// Signin handles POST /user/signin.
func (h *UsersHandler) Signin(c *fiber.Ctx) error {
	req, err := parseCredentials(c)
	if err != nil {
		return err
	}

	user, token, err := h.auth.Authenticate(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(dto.AuthResponse{
		User:      dto.NewUserResponse(user),
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		Message:   "User log in success",
	})
}

func parseCredentials(c *fiber.Ctx) (dto.CredentialsRequest, error) {
	var req dto.CredentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return req, apperrors.NewValidationError("invalid payload", nil)
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := dto.Validate(req); err != nil {
		return req, err
	}
	return req, nil
}
