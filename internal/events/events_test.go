package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tradein-service/internal/domain"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestDispatcher_RunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	boom := errors.New("boom")
	var calls int
	d.Subscribe(EventTradeInCreated, func(context.Context, Event) error { calls++; return boom })
	d.Subscribe(EventTradeInCreated, func(context.Context, Event) error { calls++; return nil })
	d.Subscribe(EventTradeInInspected, func(context.Context, Event) error { calls += 100; return nil })

	err := d.Publish(context.Background(), Event{Type: EventTradeInCreated})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 2, calls)

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTradeInStatusChanged}))
}

func TestKafkaPublisher_Handle(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, nil)
	d := NewInMemoryDispatcher(nil)
	p.Register(d)

	at := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	ev := NewEvent(EventTradeInStatusChanged, "req-1", Actor{UserID: "admin-1", Role: domain.RoleAdmin}, at,
		TradeInStatusChangedPayload{OldStatus: domain.StatusPending, NewStatus: domain.StatusReviewing})
	require.NotEmpty(t, ev.ID)
	require.NoError(t, d.Publish(context.Background(), ev))

	require.Len(t, w.msgs, 1)
	require.Equal(t, "req-1", string(w.msgs[0].Key))
	require.Equal(t, at, w.msgs[0].Time)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	require.Equal(t, "trade_in_status_changed", decoded["type"])
	require.Equal(t, "reviewing", decoded["payload"].(map[string]any)["newStatus"])

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := NewKafkaPublisher(w, nil)
	err := p.Handle(context.Background(), Event{ID: "e1", Type: EventTradeInCreated})
	require.ErrorContains(t, err, "broker down")
}
