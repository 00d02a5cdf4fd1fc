package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/agent"
)

type AgentController struct {
	agents *agent.Service
}

func NewAgentController(agents *agent.Service) *AgentController {
	return &AgentController{agents: agents}
}

func (h *AgentController) ListAgents(c *fiber.Ctx) error {
	filter := new(agent.ListFilter)
	if err := c.QueryParser(filter); err != nil {
		return errInvalidInput
	}

	page, err := h.agents.List(c.UserContext(), currentUser(c), *filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

func (h *AgentController) GetAgent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.agents.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// CreateAgent registers an agent. The generated password, when a new
// account was made, is returned once in this response.
func (h *AgentController) CreateAgent(c *fiber.Ctx) error {
	input := new(agent.CreateInput)
	if err := bind(c, input); err != nil {
		return err
	}

	result, err := h.agents.Create(c.UserContext(), currentUser(c), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

func (h *AgentController) DeactivateAgent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	a, err := h.agents.Deactivate(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Agent deactivated",
		"agent":   a,
	})
}

func (h *AgentController) RateAgent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(agent.RateInput)
	if err := bind(c, input); err != nil {
		return err
	}

	result, err := h.agents.Rate(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

// UpdateMyAgentProfile edits the caller's own agent record.
func (h *AgentController) UpdateMyAgentProfile(c *fiber.Ctx) error {
	input := new(agent.ProfileInput)
	if err := bind(c, input); err != nil {
		return err
	}

	a, err := h.agents.UpdateOwnProfile(c.UserContext(), currentUser(c), *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Agent profile updated successfully",
		"agent":   a,
	})
}

func (h *AgentController) Dashboard(c *fiber.Ctx) error {
	dashboard, err := h.agents.Dashboard(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(dashboard)
}
