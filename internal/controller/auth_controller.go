package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/account"
)

type AuthController struct {
	accounts *account.Service
}

func NewAuthController(accounts *account.Service) *AuthController {
	return &AuthController{accounts: accounts}
}

func (h *AuthController) Register(c *fiber.Ctx) error {
	input := new(account.RegisterInput)
	if err := bind(c, input); err != nil {
		return err
	}

	session, err := h.accounts.Register(c.UserContext(), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   session.Token,
		"user":    session.User.GetPublicProfile(),
	})
}

func (h *AuthController) Login(c *fiber.Ctx) error {
	input := new(account.LoginInput)
	if err := bind(c, input); err != nil {
		return err
	}
	input.IP = c.IP()
	input.Device = c.Get(fiber.HeaderUserAgent)

	session, err := h.accounts.Login(c.UserContext(), *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   session.Token,
		"user":    session.User.GetPublicProfile(),
	})
}

// GetMe returns the authenticated account.
func (h *AuthController) GetMe(c *fiber.Ctx) error {
	user, err := h.accounts.Me(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}
