package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/events"
	"github.com/spec-kit/tradein-service/internal/lifecycle"
	"github.com/spec-kit/tradein-service/internal/pricing"
	"github.com/spec-kit/tradein-service/internal/repository"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

const (
	noteCreated         = "Trade-in request created"
	noteCancelledByUser = "cancelled by owner"
)

// MetricsRecorder receives business counters. *observability.Metrics implements it.
type MetricsRecorder interface {
	RecordCreated(deviceType domain.DeviceType, estimate float64)
	RecordTransition(from, to domain.TradeInStatus)
	RecordRejectedTransition(code string)
	RecordNotificationFailure(status domain.TradeInStatus, code string)
}

// TradeInService coordinates the owner and operator workflows.
type TradeInService struct {
	repo       repository.TradeInRepository
	cache      repository.TradeInCache
	machine    *lifecycle.Machine
	pricing    *pricing.Engine
	dispatcher events.Dispatcher
	metrics    MetricsRecorder
	logger     *zap.Logger
	now        func() time.Time
}

// TradeInDependencies bundles collaborators for the trade-in service.
type TradeInDependencies struct {
	Repo       repository.TradeInRepository
	Cache      repository.TradeInCache
	Machine    *lifecycle.Machine
	Pricing    *pricing.Engine
	Dispatcher events.Dispatcher
	Metrics    MetricsRecorder
	Logger     *zap.Logger
	Clock      func() time.Time
}

// CreateInput describes a trade-in submission. Client supplied prices are
// never part of it.
type CreateInput struct {
	DeviceType     domain.DeviceType
	Brand          string
	Model          string
	Condition      domain.Condition
	Specifications domain.Specifications
	Description    string
	Images         []string
}

// StatusUpdateInput is an operator status change.
type StatusUpdateInput struct {
	Status         domain.TradeInStatus
	FinalPrice     *float64
	Note           *string
	TrackingNumber *string
	AdminNotes     *string
}

// NewTradeInService constructs the service.
func NewTradeInService(deps TradeInDependencies) *TradeInService {
	s := &TradeInService{
		repo:       deps.Repo,
		cache:      deps.Cache,
		machine:    deps.Machine,
		pricing:    deps.Pricing,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		now:        deps.Clock,
	}
	if s.cache == nil {
		s.cache = repository.NoopCache{}
	}
	if s.pricing == nil {
		s.pricing = pricing.NewEngine(nil)
	}
	if s.machine == nil {
		s.machine = lifecycle.NewMachine(nil, s.pricing)
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// Create prices and stores a new request at pending.
func (s *TradeInService) Create(ctx context.Context, principal domain.Principal, input CreateInput) (*domain.TradeInRequest, error) {
	input.Brand = strings.TrimSpace(input.Brand)
	input.Model = strings.TrimSpace(input.Model)
	input.Condition = input.Condition.Normalize()

	fields := map[string]any{}
	if !input.DeviceType.Valid() {
		fields["deviceType"] = "must be one of smartphone, tablet, laptop, smartwatch, other"
	}
	if input.Brand == "" {
		fields["brand"] = "required"
	}
	if input.Model == "" {
		fields["model"] = "required"
	}
	if !input.Condition.Valid() {
		fields["condition"] = "must be one of new, like_new, good, fair, poor"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid trade-in request", fields)
	}

	now := s.now()
	req := &domain.TradeInRequest{
		ID:             uuid.NewString(),
		UserID:         principal.UserID,
		OwnerEmail:     principal.Email,
		DeviceType:     input.DeviceType,
		Brand:          input.Brand,
		Model:          input.Model,
		Condition:      input.Condition,
		Specifications: input.Specifications,
		Description:    strings.TrimSpace(input.Description),
		Images:         cleanImages(input.Images),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	req.EstimatedPrice = s.pricing.InitialEstimate(req.DeviceType, req.Brand, req.Model, req.Condition, req.Specifications)
	s.machine.Start(req, noteCreated, principal.UserID, now)

	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	s.metrics.RecordCreated(req.DeviceType, req.EstimatedPrice)
	s.publish(ctx, events.NewEvent(events.EventTradeInCreated, req.ID, actorOf(principal), now, events.TradeInCreatedPayload{
		Recipient:      recipientOf(req),
		DeviceType:     req.DeviceType,
		Brand:          req.Brand,
		Model:          req.Model,
		EstimatedPrice: req.EstimatedPrice,
	}))
	return req, nil
}

// GetForOwner returns a request owned by the principal.
func (s *TradeInService) GetForOwner(ctx context.Context, principal domain.Principal, id string) (*domain.TradeInRequest, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(principal, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListForOwner lists the principal's own requests.
func (s *TradeInService) ListForOwner(ctx context.Context, principal domain.Principal, filter repository.TradeInFilter) (*repository.TradeInPage, error) {
	filter.UserID = principal.UserID
	return s.list(ctx, filter)
}

// UploadImages appends image URLs, or replaces the list when replace is set.
func (s *TradeInService) UploadImages(ctx context.Context, principal domain.Principal, id string, images []string, replace bool) (*domain.TradeInRequest, error) {
	images = cleanImages(images)
	if len(images) == 0 {
		return nil, apperrors.NewValidationError("at least one image is required", map[string]any{"images": "required"})
	}
	req, err := s.loadOwnedForUpdate(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	if replace {
		req.Images = images
	} else {
		req.Images = append(req.ImageList(), images...)
	}
	req.UpdatedAt = s.now()
	if err := s.persist(ctx, req, 0); err != nil {
		return nil, err
	}
	return req, nil
}

// UpdateBankDetails stores the payout account.
func (s *TradeInService) UpdateBankDetails(ctx context.Context, principal domain.Principal, id string, details domain.BankDetails) (*domain.TradeInRequest, error) {
	details.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(details.IBAN), " ", ""))
	details.AccountHolder = strings.TrimSpace(details.AccountHolder)
	fields := map[string]any{}
	if details.IBAN == "" {
		fields["iban"] = "required"
	}
	if details.AccountHolder == "" {
		fields["accountHolder"] = "required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("invalid bank details", fields)
	}

	req, err := s.loadOwnedForUpdate(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	req.BankDetails = &details
	req.UpdatedAt = s.now()
	if err := s.persist(ctx, req, 0); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel moves an owned request to cancelled.
func (s *TradeInService) Cancel(ctx context.Context, principal domain.Principal, id string) (*domain.TradeInRequest, error) {
	req, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(principal, req); err != nil {
		return nil, err
	}
	note := noteCancelledByUser
	return s.transition(ctx, principal, req, StatusUpdateInput{Status: domain.StatusCancelled, Note: &note})
}

// GetForAdmin returns any request.
func (s *TradeInService) GetForAdmin(ctx context.Context, id string) (*domain.TradeInRequest, error) {
	return s.load(ctx, id)
}

// ListAll lists requests across owners; filter.UserID optionally narrows it.
func (s *TradeInService) ListAll(ctx context.Context, filter repository.TradeInFilter) (*repository.TradeInPage, error) {
	filter.UserID = strings.TrimSpace(filter.UserID)
	return s.list(ctx, filter)
}

// UpdateStatus applies an operator status change.
func (s *TradeInService) UpdateStatus(ctx context.Context, principal domain.Principal, id string, input StatusUpdateInput) (*domain.TradeInRequest, error) {
	req, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, principal, req, input)
}

// RecordInspection stores an inspection report and reprices the request.
func (s *TradeInService) RecordInspection(ctx context.Context, principal domain.Principal, id string, report domain.InspectionReport) (*domain.TradeInRequest, error) {
	report.Condition = report.Condition.Normalize()
	if !report.Condition.Valid() {
		return nil, apperrors.NewValidationError("invalid inspection report",
			map[string]any{"condition": "must be one of new, like_new, good, fair, poor"})
	}

	req, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	from := req.Status
	now := s.now()
	if _, err := s.machine.ApplyInspection(req, report, principal.UserID, now); err != nil {
		s.metrics.RecordRejectedTransition(apperrors.ToDomainError(err).Code)
		return nil, err
	}
	req.UpdatedAt = now
	if err := s.persist(ctx, req, 1); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(from, req.Status)
	s.publish(ctx, events.NewEvent(events.EventTradeInInspected, req.ID, actorOf(principal), now, events.TradeInInspectedPayload{
		Recipient:      recipientOf(req),
		OldStatus:      from,
		Condition:      report.Condition,
		EstimatedPrice: req.EstimatedPrice,
		FinalPrice:     *req.FinalPrice,
	}))
	return req, nil
}

// GetHistory returns the ordered audit trail of a request.
func (s *TradeInService) GetHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.History == nil {
		return []domain.HistoryEntry{}, nil
	}
	return req.History, nil
}

// GetImages returns the image URLs of a request, never nil.
func (s *TradeInService) GetImages(ctx context.Context, id string) ([]string, error) {
	req, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return req.ImageList(), nil
}

func (s *TradeInService) transition(ctx context.Context, principal domain.Principal, req *domain.TradeInRequest, input StatusUpdateInput) (*domain.TradeInRequest, error) {
	from := req.Status
	now := s.now()
	updatedBy := principal.UserID
	_, err := s.machine.Apply(req, input.Status, lifecycle.Change{
		FinalPrice:     input.FinalPrice,
		TrackingNumber: input.TrackingNumber,
		AdminNotes:     input.AdminNotes,
		Note:           input.Note,
		UpdatedBy:      &updatedBy,
	}, now)
	if err != nil {
		s.metrics.RecordRejectedTransition(apperrors.ToDomainError(err).Code)
		return nil, err
	}
	req.UpdatedAt = now
	if err := s.persist(ctx, req, 1); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(from, req.Status)
	s.publish(ctx, events.NewEvent(events.EventTradeInStatusChanged, req.ID, actorOf(principal), now, events.TradeInStatusChangedPayload{
		Recipient:      recipientOf(req),
		OldStatus:      from,
		NewStatus:      req.Status,
		EstimatedPrice: req.EstimatedPrice,
		FinalPrice:     req.FinalPrice,
		TrackingNumber: req.TrackingNumber,
		Note:           input.Note,
	}))
	return req, nil
}

func (s *TradeInService) list(ctx context.Context, filter repository.TradeInFilter) (*repository.TradeInPage, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, filter)
}

// load serves reads, going through the cache. The re-cache after a miss is
// dropped by the cache when a commit invalidated a newer version meanwhile.
func (s *TradeInService) load(ctx context.Context, id string) (*domain.TradeInRequest, error) {
	if req, ok := s.cache.Get(ctx, id); ok {
		return req, nil
	}
	req, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, req)
	return req, nil
}

// loadFresh bypasses the cache so the version used for the update is current.
func (s *TradeInService) loadFresh(ctx context.Context, id string) (*domain.TradeInRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	return req, nil
}

func (s *TradeInService) loadOwnedForUpdate(ctx context.Context, principal domain.Principal, id string) (*domain.TradeInRequest, error) {
	req, err := s.loadFresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := ensureOwner(principal, req); err != nil {
		return nil, err
	}
	if req.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition("request can no longer be modified",
			map[string]any{"status": req.Status}, lifecycle.ErrTerminalState)
	}
	return req, nil
}

func (s *TradeInService) persist(ctx context.Context, req *domain.TradeInRequest, newEntries int) error {
	err := s.repo.Update(ctx, req, newEntries)
	switch {
	case errors.Is(err, repository.ErrVersionConflict):
		// The stored row is at least one version ahead of ours.
		s.cache.Invalidate(ctx, req.ID, req.Version+1)
		return apperrors.NewConflict("request was modified concurrently, reload and retry",
			map[string]any{"id": req.ID})
	case err != nil:
		return err
	}
	s.cache.Invalidate(ctx, req.ID, req.Version)
	return nil
}

func (s *TradeInService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Debug("event subscribers reported errors",
			zap.String("event_type", string(event.Type)),
			zap.String("request_id", event.RequestID),
			zap.Error(err))
	}
}

func validateFilter(f repository.TradeInFilter) error {
	fields := map[string]any{}
	if f.Status != "" && !f.Status.Valid() {
		fields["status"] = "unknown status"
	}
	if f.DeviceType != "" && !f.DeviceType.Valid() {
		fields["deviceType"] = "unknown device type"
	}
	if f.SortBy != "" && !repository.IsSortable(f.SortBy) {
		fields["sortBy"] = "unsupported sort field"
	}
	if order := strings.ToLower(f.SortOrder); order != "" && order != repository.SortOrderAsc && order != repository.SortOrderDesc {
		fields["sortOrder"] = "must be asc or desc"
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		fields["minPrice"] = "must not exceed maxPrice"
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		fields["startDate"] = "must not be after endDate"
	}
	if len(fields) > 0 {
		return apperrors.NewValidationError("invalid listing filter", fields)
	}
	return nil
}

func ensureOwner(principal domain.Principal, req *domain.TradeInRequest) error {
	if req.UserID != principal.UserID {
		return notFound(req.ID)
	}
	return nil
}

func notFound(id string) error {
	return apperrors.NewNotFound("trade-in request", map[string]any{"id": id})
}

func cleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	for _, img := range images {
		if img = strings.TrimSpace(img); img != "" {
			out = append(out, img)
		}
	}
	return out
}

func actorOf(p domain.Principal) events.Actor {
	return events.Actor{UserID: p.UserID, Role: p.Role}
}

func recipientOf(req *domain.TradeInRequest) events.Recipient {
	return events.Recipient{UserID: req.UserID, OwnerEmail: req.OwnerEmail}
}

type noopMetrics struct{}

func (noopMetrics) RecordCreated(domain.DeviceType, float64) {}
func (noopMetrics) RecordTransition(domain.TradeInStatus, domain.TradeInStatus) {}
func (noopMetrics) RecordRejectedTransition(string) {}
func (noopMetrics) RecordNotificationFailure(domain.TradeInStatus, string) {}
