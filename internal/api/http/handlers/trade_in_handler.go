package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tradein-service/internal/api/dto"
	"github.com/spec-kit/tradein-service/internal/auth"
	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/service"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

// TradeInHandler manages owner trade-in endpoints.
type TradeInHandler struct {
	service *service.TradeInService
}

// NewTradeInHandler constructs handler.
func NewTradeInHandler(tradeInService *service.TradeInService) *TradeInHandler {
	return &TradeInHandler{service: tradeInService}
}

func principalOf(c *fiber.Ctx) (domain.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Principal{}, apperrors.NewUnauthorized("authentication required")
	}
	return *principal, nil
}

// Create POST /trade-in.
func (h *TradeInHandler) Create(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var req dto.CreateTradeInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	created, err := h.service.Create(c.UserContext(), principal, service.CreateInput{
		DeviceType:     req.DeviceType,
		Brand:          req.Brand,
		Model:          req.Model,
		Condition:      req.Condition,
		Specifications: req.Specifications,
		Description:    req.Description,
		Images:         req.Images,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": tradeInResponse(created, true, false)})
}

// ListMine GET /trade-in/my.
func (h *TradeInHandler) ListMine(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	filter, err := parseListQuery(c)
	if err != nil {
		return err
	}
	page, err := h.service.ListForOwner(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": listResponse(page, false)})
}

// Get GET /trade-in/:id.
func (h *TradeInHandler) Get(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	req, err := h.service.GetForOwner(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, false)})
}

// UploadImages PUT /trade-in/:id/upload-images.
func (h *TradeInHandler) UploadImages(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var body dto.UploadImagesRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.service.UploadImages(c.UserContext(), principal, c.Params("id"), body.Images, body.Replace)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, false)})
}

// UpdateBankDetails PUT /trade-in/:id/bank-details.
func (h *TradeInHandler) UpdateBankDetails(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	var body dto.BankDetailsRequest
	if err := c.BodyParser(&body); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	req, err := h.service.UpdateBankDetails(c.UserContext(), principal, c.Params("id"), domain.BankDetails{
		IBAN:          body.IBAN,
		AccountHolder: body.AccountHolder,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, false)})
}

// Cancel PUT /trade-in/:id/cancel.
func (h *TradeInHandler) Cancel(c *fiber.Ctx) error {
	principal, err := principalOf(c)
	if err != nil {
		return err
	}
	req, err := h.service.Cancel(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": tradeInResponse(req, true, false)})
}
