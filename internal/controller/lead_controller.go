package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/inquiry"
)

type InquiryController struct {
	inquiries *inquiry.Service
}

func NewInquiryController(inquiries *inquiry.Service) *InquiryController {
	return &InquiryController{inquiries: inquiries}
}

func (h *InquiryController) CreateInquiry(c *fiber.Ctx) error {
	input := new(inquiry.CreateInput)
	if err := bind(c, input); err != nil {
		return err
	}

	inq, err := h.inquiries.Create(c.UserContext(), currentUser(c), c.Params("slug"), *input)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Your inquiry has been sent successfully!",
		"inquiry": inq,
	})
}

// GetMyInquiries lists the caller's own inquiries.
func (h *InquiryController) GetMyInquiries(c *fiber.Ctx) error {
	inquiries, err := h.inquiries.ListOwn(c.UserContext(), currentUser(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiries": inquiries})
}

func (h *InquiryController) GetInquiry(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	inq, err := h.inquiries.Get(c.UserContext(), currentUser(c), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"inquiry": inq})
}

func (h *InquiryController) RespondInquiry(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(inquiry.RespondInput)
	if err := bind(c, input); err != nil {
		return err
	}

	inq, err := h.inquiries.Respond(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Response sent successfully!",
		"inquiry": inq,
	})
}

func (h *InquiryController) UpdateInquiryStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	input := new(inquiry.StatusInput)
	if err := bind(c, input); err != nil {
		return err
	}

	inq, err := h.inquiries.UpdateStatus(c.UserContext(), currentUser(c), id, *input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Inquiry status updated",
		"inquiry": inq,
	})
}
