package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/tradein-service/internal/domain"
	apperrors "github.com/spec-kit/tradein-service/pkg/util"
)

type recordingSender struct {
	msgs []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	if s.err != nil {
		return s.err
	}
	s.msgs = append(s.msgs, msg)
	return nil
}

func newNotifier(t *testing.T, sender Sender) *Notifier {
	t.Helper()
	n, err := NewNotifier("noreply@example.com", sender)
	require.NoError(t, err)
	return n
}

func TestNotify_RendersTemplate(t *testing.T) {
	s := &recordingSender{}
	n := newNotifier(t, s)
	price := 153.0

	err := n.Notify(context.Background(), "owner@example.com", "req-1", domain.StatusInspected,
		Data{Brand: "Apple", Model: "iPhone 13", EstimatedPrice: 300, FinalPrice: &price})
	require.NoError(t, err)
	require.Len(t, s.msgs, 1)
	require.Equal(t, "owner@example.com", s.msgs[0].To)
	require.Equal(t, "noreply@example.com", s.msgs[0].From)
	require.Equal(t, "Inspection complete", s.msgs[0].Subject)
	require.Contains(t, s.msgs[0].Body, "153.00")
	require.Contains(t, s.msgs[0].Body, "300.00")
}

func TestNotify_OptionalSections(t *testing.T) {
	s := &recordingSender{}
	n := newNotifier(t, s)

	require.NoError(t, n.Notify(context.Background(), "o@example.com", "req-2", domain.StatusRejected, Data{}))
	require.NotContains(t, s.msgs[0].Body, "Reason")

	require.NoError(t, n.Notify(context.Background(), "o@example.com", "req-2", domain.StatusRejected, Data{Note: "water damage"}))
	require.Contains(t, s.msgs[1].Body, "Reason: water damage")
}

func TestNotify_TemplateNotFound(t *testing.T) {
	s := &recordingSender{}
	n := newNotifier(t, s)

	err := n.Notify(context.Background(), "o@example.com", "req-3", domain.StatusReviewing, Data{})
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotification))
	require.False(t, n.HasTemplate(domain.StatusReviewing))
	require.Empty(t, s.msgs)
}

func TestNotify_SenderFailure(t *testing.T) {
	boom := errors.New("smtp down")
	n := newNotifier(t, &recordingSender{err: boom})

	err := n.Notify(context.Background(), "o@example.com", "req-4", domain.StatusCompleted, Data{})
	require.ErrorIs(t, err, boom)
	require.True(t, apperrors.HasCode(err, apperrors.CodeNotification))
}

func TestNotify_MissingRecipient(t *testing.T) {
	n := newNotifier(t, &recordingSender{})
	err := n.Notify(context.Background(), "  ", "req-5", domain.StatusPending, Data{})
	require.ErrorIs(t, err, ErrNoRecipient)
}

func TestWebhookSender(t *testing.T) {
	var got Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		if got.To == "fail@example.com" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewWebhookSender(srv.URL, time.Second)
	require.NoError(t, s.Send(context.Background(), Message{To: "o@example.com", Subject: "hi"}))
	require.Equal(t, "hi", got.Subject)

	require.Error(t, s.Send(context.Background(), Message{To: "fail@example.com"}))
}

func TestMoney(t *testing.T) {
	v := 12.5
	require.Equal(t, "12.50", money(v))
	require.Equal(t, "12.50", money(&v))
	require.Equal(t, "-", money((*float64)(nil)))
	require.Equal(t, "-", money("x"))
}

func TestNotify_OfferUsesEstimate(t *testing.T) {
	s := &recordingSender{}
	n := newNotifier(t, s)

	require.NoError(t, n.Notify(context.Background(), "o@example.com", "req-4", domain.StatusOfferMade,
		Data{Brand: "Apple", Model: "iPhone 13", EstimatedPrice: 352, Note: "valid for 7 days"}))
	require.Contains(t, s.msgs[0].Body, "352.00")
	require.Contains(t, s.msgs[0].Body, "valid for 7 days")
}
