// Package lifecycle validates and applies trade-in status transitions.
package lifecycle

import (
	"errors"
	"net/http"
	"time"

	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/pricing"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

// InspectionNote is recorded on the history entry written by ApplyInspection.
const InspectionNote = "inspection performed"

var (
	ErrUnknownStatus       = errors.New("unknown status")
	ErrTerminalState       = errors.New("request is in a terminal state")
	ErrTransitionForbidden = errors.New("transition not allowed")
	ErrFinalPriceRequired  = errors.New("final price required")
	ErrNegativePrice       = errors.New("final price must not be negative")
	ErrFinalPriceTooEarly  = errors.New("final price is only set from inspection onwards")
)

// Change carries the optional data applied together with a status change.
type Change struct {
	FinalPrice     *float64
	TrackingNumber *string
	AdminNotes     *string
	Note           *string
	UpdatedBy      *string
}

// Machine applies transitions under a policy.
type Machine struct {
	policy  Policy
	pricing *pricing.Engine
}

// NewMachine builds a machine. A nil policy selects the strict table and a nil
// engine the default price table.
func NewMachine(policy Policy, engine *pricing.Engine) *Machine {
	if policy == nil {
		policy = NewStrictPolicy()
	}
	if engine == nil {
		engine = pricing.NewEngine(nil)
	}
	return &Machine{policy: policy, pricing: engine}
}

// Start initializes a freshly created request at pending with its first
// history entry.
func (m *Machine) Start(req *domain.TradeInRequest, note, createdBy string, now time.Time) {
	req.Status = domain.StatusPending
	req.History = []domain.HistoryEntry{{
		Status:    domain.StatusPending,
		Timestamp: now,
		Note:      optional(note),
		UpdatedBy: optional(createdBy),
	}}
}

// CanTransition checks the guards for moving req to target without mutating it.
func (m *Machine) CanTransition(req *domain.TradeInRequest, target domain.TradeInStatus) error {
	if !target.Valid() {
		return validationError("unknown status", map[string]any{"status": target}, ErrUnknownStatus)
	}
	if req.Status.IsTerminal() {
		return apperrors.NewInvalidTransition("request can no longer change status",
			transitionDetails(req.Status, target), ErrTerminalState)
	}
	if !m.policy.Allows(req.Status, target) {
		return apperrors.NewInvalidTransition("status transition not allowed",
			transitionDetails(req.Status, target), ErrTransitionForbidden)
	}
	return nil
}

// Apply validates and applies a status change. On error req is left untouched.
// It returns the history entry appended on success.
func (m *Machine) Apply(req *domain.TradeInRequest, target domain.TradeInStatus, change Change, now time.Time) (domain.HistoryEntry, error) {
	if err := m.CanTransition(req, target); err != nil {
		return domain.HistoryEntry{}, err
	}
	if change.FinalPrice != nil && *change.FinalPrice < 0 {
		return domain.HistoryEntry{}, validationError("finalPrice must not be negative",
			map[string]any{"finalPrice": *change.FinalPrice}, ErrNegativePrice)
	}
	if change.FinalPrice != nil && !acceptsFinalPrice(req.Status, target) {
		return domain.HistoryEntry{}, validationError("finalPrice can only be set when inspecting or completing a request",
			transitionDetails(req.Status, target), ErrFinalPriceTooEarly)
	}
	if target == domain.StatusCompleted && req.FinalPrice == nil && change.FinalPrice == nil {
		return domain.HistoryEntry{}, validationError("finalPrice is required to complete a request",
			map[string]any{"status": target}, ErrFinalPriceRequired)
	}

	req.Status = target
	if change.FinalPrice != nil {
		price := *change.FinalPrice
		req.FinalPrice = &price
	}
	if change.TrackingNumber != nil {
		req.TrackingNumber = copyString(change.TrackingNumber)
	}
	if change.AdminNotes != nil {
		req.AdminNotes = copyString(change.AdminNotes)
	}
	return m.appendHistory(req, target, copyString(change.Note), copyString(change.UpdatedBy), now), nil
}

// ApplyInspection records an inspection report, recomputes the final price from
// the immutable estimate and moves the request to inspected.
func (m *Machine) ApplyInspection(req *domain.TradeInRequest, report domain.InspectionReport, updatedBy string, now time.Time) (domain.HistoryEntry, error) {
	if err := m.CanTransition(req, domain.StatusInspected); err != nil {
		return domain.HistoryEntry{}, err
	}
	report.Condition = report.Condition.Normalize()
	price := m.pricing.FinalPrice(req.EstimatedPrice, report)
	req.FinalPrice = &price
	req.InspectionResults = &report
	req.Status = domain.StatusInspected
	return m.appendHistory(req, domain.StatusInspected, optional(InspectionNote), optional(updatedBy), now), nil
}

func (m *Machine) appendHistory(req *domain.TradeInRequest, status domain.TradeInStatus, note, updatedBy *string, now time.Time) domain.HistoryEntry {
	entry := domain.HistoryEntry{
		Status:    status,
		Timestamp: now,
		Note:      note,
		UpdatedBy: updatedBy,
	}
	req.History = append(req.History, entry)
	return entry
}

// acceptsFinalPrice reports whether a move may carry a final price: the target
// is inspected or completed, or the request already passed inspection.
func acceptsFinalPrice(from, to domain.TradeInStatus) bool {
	switch {
	case to == domain.StatusInspected, to == domain.StatusCompleted:
		return true
	case from == domain.StatusInspected:
		return true
	}
	return false
}

func validationError(message string, details map[string]any, cause error) error {
	return apperrors.NewDomainError(apperrors.CodeValidation, message, http.StatusBadRequest, details).WithCause(cause)
}

func transitionDetails(from, to domain.TradeInStatus) map[string]any {
	return map[string]any{"from": from, "to": to}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
