package controller

import (
	"github.com/gofiber/fiber/v2"
)

// UploadListingImages appends the "images" files to a listing.
func (h *ListingController) UploadListingImages(c *fiber.Ctx) error {
	listing, err := h.catalog.AddImages(c.UserContext(), currentUser(c), c.Params("slug"), files(c, "images"))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"images":  listing.Images,
	})
}

func (h *ListingController) SetMainImage(c *fiber.Ctx) error {
	imageID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	listing, err := h.catalog.SetMainImage(c.UserContext(), currentUser(c), c.Params("slug"), imageID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Main image updated",
		"images":  listing.Images,
	})
}

func (h *ListingController) DeleteListingImage(c *fiber.Ctx) error {
	imageID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	listing, err := h.catalog.DeleteImage(c.UserContext(), currentUser(c), c.Params("slug"), imageID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "Image deleted successfully",
		"images":  listing.Images,
	})
}
