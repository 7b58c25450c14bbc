package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tradein-service/internal/api/dto"
	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/service"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

// AdminTradeInHandler exposes operator endpoints.
type AdminTradeInHandler struct {
	service *service.TradeInService
}

// NewAdminTradeInHandler constructs handler.
func NewAdminTradeInHandler(tradeInService *service.TradeInService) *AdminTradeInHandler {
	return &AdminTradeInHandler{service: tradeInService}
}

// List GET /admin/trade-in.
func (h *AdminTradeInHandler) List(c *fiber.Ctx) error {
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListAll(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listResponse(page, true)})
}

// Get GET /admin/trade-in/:id.
func (h *AdminTradeInHandler) Get(c *fiber.Ctx) error {
	req, err := h.service.GetForAdmin(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, true)})
}

// UpdateStatus PUT /admin/trade-in/:id/status.
func (h *AdminTradeInHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var body dto.StatusUpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if body.Status == "" {
		return apperrors.NewValidationError("status is required", map[string]any{"status": "required"})
	}
	req, err := h.service.UpdateStatus(c.UserContext(), principal, c.Params("id"), service.StatusUpdateInput{
		Status:         body.Status,
		FinalPrice:     body.FinalPrice,
		Note:           body.Note,
		TrackingNumber: body.TrackingNumber,
		AdminNotes:     body.AdminNotes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, true)})
}

// RecordInspection PUT /admin/trade-in/:id/inspection.
func (h *AdminTradeInHandler) RecordInspection(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var body dto.InspectionRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.service.RecordInspection(c.UserContext(), principal, c.Params("id"), domain.InspectionReport{
		Condition:         body.Condition,
		FunctionalityTest: body.FunctionalityTest,
		Cosmetic:          body.Cosmetic,
		Accessories:       body.Accessories,
		Notes:             body.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, true)})
}

// History GET /admin/trade-in/:id/history.
func (h *AdminTradeInHandler) History(c *fiber.Ctx) error {
	entries, err := h.service.GetHistory(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": historyResponses(entries)})
}

// Images GET /admin/trade-in/:id/images.
func (h *AdminTradeInHandler) Images(c *fiber.Ctx) error {
	images, err := h.service.GetImages(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": images})
}
