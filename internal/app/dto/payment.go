package dto

import (
	"time"

	domainpayment "staybook/internal/domain/payment"
)

type Payment struct {
	ID            string    `json:"id"`
	Purpose       string    `json:"purpose"`
	IntentID      string    `json:"payment_intent_id"`
	ClientSecret  string    `json:"client_secret,omitempty"`
	AmountCents   int64     `json:"amount_cents"`
	Currency      string    `json:"currency"`
	CaptureMethod string    `json:"capture_method"`
	Status        string    `json:"status"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PaymentSession is what the client-side payment form needs to confirm the
// charge: the booking plus its reconciled payment records.
type PaymentSession struct {
	Booking  Booking   `json:"booking"`
	Payments []Payment `json:"payments"`
}

func MapPayment(p *domainpayment.Payment) Payment {
	return Payment{
		ID:            p.ID,
		Purpose:       string(p.Purpose),
		IntentID:      p.IntentID,
		ClientSecret:  p.ClientSecret,
		AmountCents:   p.AmountCents,
		Currency:      p.Currency,
		CaptureMethod: string(p.CaptureMethod),
		Status:        string(p.Status),
		UpdatedAt:     p.UpdatedAt,
	}
}

func MapPayments(items []*domainpayment.Payment) []Payment {
	out := make([]Payment, 0, len(items))
	for _, p := range items {
		out = append(out, MapPayment(p))
	}
	return out
}
