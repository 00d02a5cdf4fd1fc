package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/account"
	"estatehub_backend/internal/agent"
	"estatehub_backend/internal/catalog"
)

// AdminController backs the /admin surface. Role checks beyond "staff"
// live in the services.
type AdminController struct {
	accounts *account.Service
	agents   *agent.Service
	catalog  *catalog.Service
}

func NewAdminController(accounts *account.Service, agents *agent.Service, catalog *catalog.Service) *AdminController {
	return &AdminController{accounts: accounts, agents: agents, catalog: catalog}
}

func (h *AdminController) ListUsers(c *fiber.Ctx) error {
	filter := new(account.UserFilter)
	if err := c.QueryParser(filter); err != nil {
		return errInvalidInput
	}
	page, err := h.accounts.ListUsers(c.UserContext(), currentUser(c), *filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AdminController) UpdateUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(account.UserFlagsInput)
	if err := bind(c, input); err != nil {
		return err
	}
	user, err := h.accounts.UpdateUserFlags(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": user})
}

func (h *AdminController) ListAgents(c *fiber.Ctx) error {
	filter := new(agent.AdminFilter)
	if err := c.QueryParser(filter); err != nil {
		return errInvalidInput
	}
	page, err := h.agents.AdminList(c.UserContext(), currentUser(c), *filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AdminController) UpdateAgent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(agent.AdminUpdateInput)
	if err := bind(c, input); err != nil {
		return err
	}
	a, err := h.agents.AdminUpdate(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"agent": a})
}

func (h *AdminController) ListListings(c *fiber.Ctx) error {
	filter := new(catalog.AdminFilter)
	if err := c.QueryParser(filter); err != nil {
		return errInvalidInput
	}
	page, err := h.catalog.AdminList(c.UserContext(), currentUser(c), *filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AdminController) ModerateListing(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(catalog.ModerateInput)
	if err := bind(c, input); err != nil {
		return err
	}
	listing, err := h.catalog.Moderate(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"listing": listing})
}

// AssignListingLocation turns a listing's free-text agent_location into a
// location reference.
func (h *AdminController) AssignListingLocation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(catalog.LocationAssignment)
	if err := bind(c, input); err != nil {
		return err
	}
	listing, err := h.catalog.AssignLocation(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"listing": listing})
}

// CleanPrices runs the price repair job. ?dry_run=true reports without
// writing.
func (h *AdminController) CleanPrices(c *fiber.Ctx) error {
	opts := catalog.PriceOptions{
		DryRun:    c.QueryBool("dry_run"),
		Threshold: int64(c.QueryInt("threshold")),
	}
	report, err := h.catalog.NormalizePrices(c.UserContext(), opts)
	if err != nil {
		return err
	}
	return c.JSON(report)
}
