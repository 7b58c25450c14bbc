package notification

import (
	"fmt"
	"text/template"

	"github.com/spec-kit/tradein-service/internal/domain"
)

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var funcs = template.FuncMap{"money": money}

// money renders a price with two decimals. It accepts float64 and *float64.
func money(v any) string {
	switch p := v.(type) {
	case float64:
		return fmt.Sprintf("%.2f", p)
	case *float64:
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%.2f", *p)
	}
	return "-"
}

// defaultTemplates has one entry per status that produces a customer message.
// reviewing is an internal step and has none.
var defaultTemplates = map[domain.TradeInStatus][2]string{
	domain.StatusPending: {
		"We received your trade-in request",
		"Thanks for submitting your {{.Brand}} {{.Model}} (request {{.RequestID}}).\n" +
			"Initial estimate: {{money .EstimatedPrice}}. We will review it shortly.",
	},
	domain.StatusOfferMade: {
		"Your trade-in offer is ready",
		"We have an offer for your {{.Brand}} {{.Model}} (request {{.RequestID}}): " +
			"{{money .EstimatedPrice}}." +
			"{{with .Note}}\n{{.}}{{end}}",
	},
	domain.StatusAccepted: {
		"Trade-in accepted",
		"Your trade-in request {{.RequestID}} was accepted. Please ship the device." +
			"{{with .TrackingNumber}}\nTracking number: {{.}}{{end}}",
	},
	domain.StatusRejected: {
		"Trade-in request declined",
		"Unfortunately we cannot accept trade-in request {{.RequestID}}.{{with .Note}}\nReason: {{.}}{{end}}",
	},
	domain.StatusDeviceReceived: {
		"We received your device",
		"Your {{.Brand}} {{.Model}} (request {{.RequestID}}) arrived and is queued for inspection.",
	},
	domain.StatusInspected: {
		"Inspection complete",
		"Your device was inspected. Final price: {{money .FinalPrice}} (estimate was {{money .EstimatedPrice}}).",
	},
	domain.StatusCompleted: {
		"Trade-in completed",
		"Trade-in {{.RequestID}} is complete. Payout: {{money .FinalPrice}}.",
	},
	domain.StatusCancelled: {
		"Trade-in cancelled",
		"Trade-in request {{.RequestID}} was cancelled.{{with .Note}}\n{{.}}{{end}}",
	},
}

func parseTemplates(src map[domain.TradeInStatus][2]string) (map[domain.TradeInStatus]messageTemplate, error) {
	out := make(map[domain.TradeInStatus]messageTemplate, len(src))
	for status, parts := range src {
		subject, err := template.New(string(status) + ".subject").Funcs(funcs).Parse(parts[0])
		if err != nil {
			return nil, fmt.Errorf("parse %s subject: %w", status, err)
		}
		body, err := template.New(string(status) + ".body").Funcs(funcs).Parse(parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse %s body: %w", status, err)
		}
		out[status] = messageTemplate{subject: subject, body: body}
	}
	return out, nil
}
