package controller

import (
	"github.com/gofiber/fiber/v2"

	"estatehub_backend/internal/catalog"
)

// ReferenceController exposes one lookup table: public reads, superuser
// writes.
type ReferenceController[T any] struct {
	ref *catalog.Reference[T]
}

func NewReferenceController[T any](ref *catalog.Reference[T]) *ReferenceController[T] {
	return &ReferenceController[T]{ref: ref}
}

func (h *ReferenceController[T]) List(c *fiber.Ctx) error {
	rows, err := h.ref.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"results": rows})
}

func (h *ReferenceController[T]) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	row, err := h.ref.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(row)
}

func (h *ReferenceController[T]) Create(c *fiber.Ctx) error {
	row := new(T)
	if err := bind(c, row); err != nil {
		return err
	}
	if err := h.ref.Create(c.UserContext(), currentUser(c), row); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(row)
}

func (h *ReferenceController[T]) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	row := new(T)
	if err := bind(c, row); err != nil {
		return err
	}
	if err := h.ref.Update(c.UserContext(), currentUser(c), id, row); err != nil {
		return err
	}
	return c.JSON(row)
}

func (h *ReferenceController[T]) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.ref.Delete(c.UserContext(), currentUser(c), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Mount registers the read routes on public and the write routes on admin,
// each write behind guard.
func (h *ReferenceController[T]) Mount(public, admin fiber.Router, path string, guard fiber.Handler) {
	public.Get(path, h.List)
	public.Get(path+"/:id", h.Get)
	admin.Post(path, guard, h.Create)
	admin.Put(path+"/:id", guard, h.Update)
	admin.Delete(path+"/:id", guard, h.Delete)
}
