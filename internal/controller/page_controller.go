package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/search"
)

type PageController struct {
	search *search.Service
}

func NewPageController(search *search.Service) *PageController {
	return &PageController{search: search}
}

func (h *PageController) Home(c *fiber.Ctx) error {
	home, err := h.search.Home(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(home)
}

// Search redirects to the home page when q is blank.
func (h *PageController) Search(c *fiber.Ctx) error {
	results, err := h.search.Search(c.UserContext(), c.Query("q"))
	if errors.Is(err, search.ErrEmptyQuery) {
		return c.Redirect("/api/home", fiber.StatusFound)
	}
	if err != nil {
		return err
	}
	return c.JSON(results)
}

func (h *PageController) LegalPage(c *fiber.Ctx) error {
	page, err := search.LegalPage(c.Params("page"))
	if err != nil {
		return err
	}
	return c.JSON(page)
}
