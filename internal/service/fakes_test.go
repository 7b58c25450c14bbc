package service

import (
	"context"
	"sync"

	"github.com/spec-kit/tradein-service/internal/domain"
	"github.com/spec-kit/tradein-service/internal/events"
	"github.com/spec-kit/tradein-service/internal/notification"
	"github.com/spec-kit/tradein-service/internal/repository"
)

type fakeRepo struct {
	mu        sync.Mutex
	items     map[string]domain.TradeInRequest
	lastList  repository.TradeInFilter
	updateErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]domain.TradeInRequest)}
}

func clone(req domain.TradeInRequest) domain.TradeInRequest {
	req.Images = append([]string(nil), req.Images...)
	req.History = append([]domain.HistoryEntry(nil), req.History...)
	return req
}

func (r *fakeRepo) Create(_ context.Context, req *domain.TradeInRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[req.ID] = clone(*req)
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id string) (*domain.TradeInRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.items[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := clone(req)
	return &c, nil
}

func (r *fakeRepo) Update(_ context.Context, req *domain.TradeInRequest, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	stored, ok := r.items[req.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != req.Version {
		return repository.ErrVersionConflict
	}
	req.Version++
	r.items[req.ID] = clone(*req)
	return nil
}

func (r *fakeRepo) ListHistory(ctx context.Context, id string) ([]domain.HistoryEntry, error) {
	req, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return req.History, nil
}

func (r *fakeRepo) List(_ context.Context, filter repository.TradeInFilter) (*repository.TradeInPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastList = filter
	page := &repository.TradeInPage{Items: []domain.TradeInRequest{}}
	for _, req := range r.items {
		if filter.UserID != "" && req.UserID != filter.UserID {
			continue
		}
		page.Items = append(page.Items, clone(req))
	}
	page.Pagination.Total = int64(len(page.Items))
	if len(page.Items) > 0 {
		page.Stats = &repository.TradeInStats{TotalRequests: int64(len(page.Items))}
	}
	return page, nil
}

type fakeCache struct {
	items       map[string]domain.TradeInRequest
	floors      map[string]int64
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]domain.TradeInRequest), floors: make(map[string]int64)}
}

func (c *fakeCache) Get(_ context.Context, id string) (*domain.TradeInRequest, bool) {
	req, ok := c.items[id]
	if !ok {
		return nil, false
	}
	cp := clone(req)
	return &cp, true
}

func (c *fakeCache) Set(_ context.Context, req *domain.TradeInRequest) {
	if req.Version < c.floors[req.ID] {
		return
	}
	c.items[req.ID] = clone(*req)
}

func (c *fakeCache) Invalidate(_ context.Context, id string, version int64) {
	delete(c.items, id)
	if version > c.floors[id] {
		c.floors[id] = version
	}
	c.invalidated = append(c.invalidated, id)
}

type fakeMetrics struct {
	created       int
	transitions   []string
	rejected      []string
	notifyFailure []string
}

func (m *fakeMetrics) RecordCreated(domain.DeviceType, float64) { m.created++ }
func (m *fakeMetrics) RecordTransition(from, to domain.TradeInStatus) {
	m.transitions = append(m.transitions, string(from)+"->"+string(to))
}
func (m *fakeMetrics) RecordRejectedTransition(code string) { m.rejected = append(m.rejected, code) }
func (m *fakeMetrics) RecordNotificationFailure(status domain.TradeInStatus, code string) {
	m.notifyFailure = append(m.notifyFailure, string(status)+":"+code)
}

type recordingDispatcher struct {
	events.Dispatcher
	published []events.Event
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{Dispatcher: events.NewInMemoryDispatcher(nil)}
}

func (d *recordingDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return d.Dispatcher.Publish(ctx, event)
}

type notifyCall struct {
	to     string
	id     string
	status domain.TradeInStatus
	data   notification.Data
}

type fakeNotifier struct {
	calls []notifyCall
	err   error
}

func (n *fakeNotifier) Notify(_ context.Context, to, id string, status domain.TradeInStatus, data notification.Data) error {
	n.calls = append(n.calls, notifyCall{to: to, id: id, status: status, data: data})
	return n.err
}
