package handlers

import (
	"errors"
	"fmt"

	"stringtracker/internal/middleware"
	"stringtracker/internal/services"
	"stringtracker/internal/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ImageHandler handles guitar photo uploads and downloads. A nil service
// means object storage is not configured.
type ImageHandler struct {
	images *services.ImageService
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images *services.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

// RegisterRoutes registers the upload route on an authenticated router.
func (h *ImageHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/guitars/:id/image", h.HandleUploadImage)
}

// RegisterPublicRoutes registers the image download route.
func (h *ImageHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get(services.ImagePathPrefix+"*", h.HandleServeImage)
}

// HandleUploadImage stores the multipart "image" field for a guitar.
func (h *ImageHandler) HandleUploadImage(c *fiber.Ctx) error {
	if h.images == nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "Image storage is not configured")
	}
	id, ok := parseID(c)
	if !ok {
		return errorJSON(c, fiber.StatusBadRequest, msgInvalidGuitarID)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Image file is required")
	}
	if fh.Size > h.images.MaxBytes() {
		return errorJSON(c, fiber.StatusBadRequest, services.ErrImageTooLarge.Error())
	}
	f, err := fh.Open()
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "Image file could not be read")
	}
	defer f.Close()

	guitar, err := h.images.Attach(c.UserContext(), middleware.UserID(c), id, services.ImageUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		return respondError(c, err, "", "Failed to upload image")
	}
	return c.JSON(guitar)
}

// HandleServeImage streams a stored photo.
func (h *ImageHandler) HandleServeImage(c *fiber.Ctx) error {
	if h.images == nil {
		return errorJSON(c, fiber.StatusNotFound, "Image not found")
	}
	obj, err := h.images.Open(c.UserContext(), c.Params("*"))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "Image not found")
		}
		zap.S().Named("image_handler").Errorw("failed to open image", "key", c.Params("*"), "error", err)
		return errorJSON(c, fiber.StatusInternalServerError, "Failed to retrieve image")
	}

	if obj.ContentType != "" {
		c.Set(fiber.HeaderContentType, obj.ContentType)
	}
	c.Set(fiber.HeaderCacheControl, fmt.Sprintf("public, max-age=%d", 24*60*60))
	return c.SendStream(obj.Body, int(obj.Size))
}
