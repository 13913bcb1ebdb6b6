package handler

import (
	"induction-portal/internal/dto"
	"induction-portal/internal/service"
	"induction-portal/internal/validation"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
	validator   *validation.Validator
}

func NewAuthHandler(authService service.AuthService, validator *validation.Validator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validator:   validator,
	}
}

// Register creates a learner account and signs it in.
// @Summary Register a learner
// @Description Creates a learner account and returns an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.RegisterRequest true "Account details"
// @Success 201 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.Register(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login signs a learner or admin in.
// @Summary Login
// @Description Exchanges email and password for an access token.
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse "Invalid email or password"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.Login(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// AdminLogin signs an administrator in. Learner accounts are refused.
// @Summary Admin login
// @Tags auth
// @Accept json
// @Produce json
// @Param body body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.TokenResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse "Not an admin account"
// @Router /auth/admin/login [post]
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	resp, err := h.authService.AdminLogin(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// Me returns the signed-in account.
// @Summary Current user
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.UserResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user, err := h.authService.Me(c.UserContext(), caller(c))
	if err != nil {
		return err
	}
	return c.JSON(user)
}

// Logout revokes the presented access token.
// @Summary Logout user
// @Description Revokes the current access token until it would have expired.
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.MessageResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.authService.Logout(c.UserContext(), caller(c)); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Logout successful"})
}
