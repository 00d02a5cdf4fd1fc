package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/catalog"
)

type ListingController struct {
	catalog *catalog.Service
}

func NewListingController(catalog *catalog.Service) *ListingController {
	return &ListingController{catalog: catalog}
}

// ListListings is the public, filtered listing index.
func (h *ListingController) ListListings(c *fiber.Ctx) error {
	filter := new(catalog.ListFilter)
	if err := c.QueryParser(filter); err != nil {
		return errInvalidInput
	}

	page, err := h.catalog.List(c.UserContext(), *filter)
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// GetListing opens one published listing and counts the view.
func (h *ListingController) GetListing(c *fiber.Ctx) error {
	detail, err := h.catalog.Get(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return c.JSON(detail)
}

// CreateListing accepts JSON or a multipart form with "images" files.
func (h *ListingController) CreateListing(c *fiber.Ctx) error {
	input := new(catalog.ListingInput)
	if err := bind(c, input); err != nil {
		return err
	}

	listing, err := h.catalog.Create(c.UserContext(), currentUser(c), *input, files(c, "images"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Property listing created successfully!",
		"listing": listing,
	})
}

func (h *ListingController) UpdateListing(c *fiber.Ctx) error {
	input := new(catalog.ListingInput)
	if err := bind(c, input); err != nil {
		return err
	}

	listing, err := h.catalog.Update(c.UserContext(), currentUser(c), c.Params("slug"), *input, files(c, "images"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Property listing updated successfully!",
		"listing": listing,
	})
}
