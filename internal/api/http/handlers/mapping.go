package handlers

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/tradein-service/internal/api/dto"
	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/repository"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

const dateOnly = "2006-01-02"

// parseListQuery reads the listing query string. Malformed values are
// reported instead of being silently dropped.
func parseListQuery(c *fiber.Ctx) (repository.TradeInFilter, error) {
	filter := repository.TradeInFilter{
		Status:     domain.TradeInStatus(strings.TrimSpace(c.Query("status"))),
		DeviceType: domain.DeviceType(strings.TrimSpace(c.Query("deviceType"))),
		Brand:      c.Query("brand"),
		Search:     c.Query("search"),
		SortBy:     strings.TrimSpace(c.Query("sortBy")),
		SortOrder:  strings.TrimSpace(c.Query("sortOrder")),
		UserID:     c.Query("userId"),
	}
	fields := map[string]any{}

	var err error
	if filter.CreatedFrom, err = parseTime(c.Query("startDate"), false); err != nil {
		fields["startDate"] = "must be RFC3339 or YYYY-MM-DD"
	}
	if filter.CreatedTo, err = parseTime(c.Query("endDate"), true); err != nil {
		fields["endDate"] = "must be RFC3339 or YYYY-MM-DD"
	}
	if filter.MinPrice, err = parseFloat(c.Query("minPrice")); err != nil {
		fields["minPrice"] = "must be a non-negative number"
	}
	if filter.MaxPrice, err = parseFloat(c.Query("maxPrice")); err != nil {
		fields["maxPrice"] = "must be a non-negative number"
	}
	if filter.Page, err = parseInt(c.Query("page"), repository.DefaultPage); err != nil {
		fields["page"] = "must be a positive integer"
	}
	if filter.Limit, err = parseInt(c.Query("limit"), repository.DefaultLimit); err != nil {
		fields["limit"] = "must be a positive integer"
	}
	if len(fields) > 0 {
		return filter, apperrors.NewValidationError("invalid query parameters", fields)
	}
	return filter, nil
}

// parseTime accepts RFC3339 or a plain date. A plain end date covers the whole day.
func parseTime(val string, endOfDay bool) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateOnly, val)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func parseFloat(val string) (*float64, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, strconv.ErrSyntax
	}
	return &f, nil
}

func parseInt(val string, def int) (int, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return def, nil
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def, strconv.ErrSyntax
	}
	return parsed, nil
}

// tradeInResponse maps a request. internal adds operator-only fields.
func tradeInResponse(req *domain.TradeInRequest, withHistory, internal bool) dto.TradeInResponse {
	resp := dto.TradeInResponse{
		ID:                req.ID,
		UserID:            req.UserID,
		DeviceType:        req.DeviceType,
		Brand:             req.Brand,
		Model:             req.Model,
		Condition:         req.Condition,
		Specifications:    req.Specifications,
		Description:       req.Description,
		EstimatedPrice:    req.EstimatedPrice,
		FinalPrice:        req.FinalPrice,
		Images:            req.ImageList(),
		Status:            req.Status,
		TrackingNumber:    req.TrackingNumber,
		BankDetails:       req.BankDetails,
		InspectionResults: req.InspectionResults,
		CreatedAt:         req.CreatedAt,
		UpdatedAt:         req.UpdatedAt,
	}
	if internal {
		resp.AdminNotes = req.AdminNotes
	}
	if withHistory {
		resp.History = historyResponses(req.History)
	}
	return resp
}

func historyResponses(entries []domain.HistoryEntry) []dto.HistoryEntryResponse {
	out := make([]dto.HistoryEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, dto.HistoryEntryResponse{
			Status:    e.Status,
			Timestamp: e.Timestamp,
			Note:      e.Note,
			UpdatedBy: e.UpdatedBy,
		})
	}
	return out
}

func listResponse(page *repository.TradeInPage, internal bool) dto.TradeInListResponse {
	items := make([]dto.TradeInResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, tradeInResponse(&page.Items[i], false, internal))
	}
	resp := dto.TradeInListResponse{
		Items: items,
		Pagination: dto.PaginationResponse{
			Total: page.Pagination.Total,
			Pages: page.Pagination.Pages,
			Page:  page.Pagination.Page,
			Limit: page.Pagination.Limit,
		},
	}
	if s := page.Stats; s != nil {
		counts := make(map[string]int64, len(s.StatusCounts))
		for status, n := range s.StatusCounts {
			counts[string(status)] = n
		}
		resp.Stats = &dto.StatsResponse{
			TotalRequests:       s.TotalRequests,
			TotalEstimatedValue: s.TotalEstimatedValue,
			AvgEstimatedValue:   s.AvgEstimatedValue,
			TotalFinalValue:     s.TotalFinalValue,
			DeviceTypes:         nonNil(s.DeviceTypes),
			Brands:              nonNil(s.Brands),
			StatusCounts:        counts,
		}
	}
	return resp
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
