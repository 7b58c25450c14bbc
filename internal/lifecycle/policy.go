package lifecycle

import "github.com/spec-kit/tradein-service/internal/domain"

// Policy decides whether a move between two statuses is allowed. The terminal
// guard runs before any policy and cannot be overridden.
type Policy interface {
	Allows(from, to domain.TradeInStatus) bool
}

// PermissivePolicy accepts any move out of a non-terminal status.
type PermissivePolicy struct{}

// Allows implements Policy.
func (PermissivePolicy) Allows(from, to domain.TradeInStatus) bool {
	return !from.IsTerminal()
}

// StrictPolicy validates moves against an explicit edge table. Re-applying the
// current non-terminal status is always allowed.
type StrictPolicy struct {
	edges map[domain.TradeInStatus][]domain.TradeInStatus
}

var defaultEdges = map[domain.TradeInStatus][]domain.TradeInStatus{
	domain.StatusPending:        {domain.StatusReviewing, domain.StatusOfferMade, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusReviewing:      {domain.StatusOfferMade, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusOfferMade:      {domain.StatusAccepted, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusAccepted:       {domain.StatusDeviceReceived, domain.StatusCancelled},
	domain.StatusDeviceReceived: {domain.StatusInspected, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusInspected:      {domain.StatusCompleted, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusCompleted:      {},
	domain.StatusRejected:       {},
	domain.StatusCancelled:      {},
}

// NewStrictPolicy returns the default directed transition table.
func NewStrictPolicy() StrictPolicy {
	return StrictPolicy{edges: defaultEdges}
}

// Allows implements Policy.
func (p StrictPolicy) Allows(from, to domain.TradeInStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if from == to {
		return true
	}
	for _, candidate := range p.edges[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Targets lists the statuses reachable from the given one, excluding itself.
func (p StrictPolicy) Targets(from domain.TradeInStatus) []domain.TradeInStatus {
	return append([]domain.TradeInStatus(nil), p.edges[from]...)
}
