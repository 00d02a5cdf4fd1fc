package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/account"
)

type ProfileController struct {
	accounts *account.Service
}

func NewProfileController(accounts *account.Service) *ProfileController {
	return &ProfileController{accounts: accounts}
}

func (h *ProfileController) GetProfile(c *fiber.Ctx) error {
	profile, err := h.accounts.GetProfile(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"profile": profile})
}

// GetLoginHistory lists the caller's recent sign-ins.
func (h *ProfileController) GetLoginHistory(c *fiber.Ctx) error {
	logins, err := h.accounts.RecentLogins(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"logins": logins})
}

func (h *ProfileController) UpdateProfile(c *fiber.Ctx) error {
	input := new(account.ProfileInput)
	if err := bind(c, input); err != nil {
		return err
	}

	profile, err := h.accounts.UpdateProfile(c.UserContext(), currentUser(c), *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

func (h *ProfileController) UploadAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}

	profile, err := h.accounts.UploadAvatar(c.UserContext(), currentUser(c), file)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Avatar uploaded successfully",
		"avatar_url": profile.AvatarURL,
	})
}
