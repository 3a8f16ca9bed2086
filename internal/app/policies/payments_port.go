package policies

import (
	"context"
	"errors"

	"staybook/internal/domain/payment"
)

// IntentParams describe the charge or hold the orchestrator wants created.
type IntentParams struct {
	BookingID     string
	Purpose       payment.Purpose
	AmountCents   int64
	Currency      string
	CaptureMethod payment.CaptureMethod
}

// Intent is the provider's view of a payment intent. Status carries the raw
// provider status string; mapping to local status happens in the domain.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentProvider is the boundary to the external payment processor.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, params IntentParams) (Intent, error)
	GetIntent(ctx context.Context, id string) (Intent, error)
	CaptureIntent(ctx context.Context, id string) (Intent, error)
	CancelIntent(ctx context.Context, id string) (Intent, error)
}

// ProviderErrorKind is the structured classification of provider failures.
// Only a fixed kind-to-message mapping is ever shown to guests; raw provider
// diagnostics stay server-side.
type ProviderErrorKind string

const (
	ProviderErrCardDeclined   ProviderErrorKind = "card_declined"
	ProviderErrInvalidRequest ProviderErrorKind = "invalid_request"
	ProviderErrAuth           ProviderErrorKind = "auth"
	ProviderErrUnavailable    ProviderErrorKind = "unavailable"
	ProviderErrNetwork        ProviderErrorKind = "network"
)

type ProviderError struct {
	Kind ProviderErrorKind
	Msg  string
}

func (e *ProviderError) Error() string {
	return "payment provider: " + e.Msg
}

// GuestMessage sanitizes a provider failure for the guest. Internal kinds
// collapse to a generic transient message; card and input problems pass
// through as-is.
func GuestMessage(err error) string {
	var provErr *ProviderError
	if !errors.As(err, &provErr) {
		return "payment service temporarily unavailable"
	}
	switch provErr.Kind {
	case ProviderErrCardDeclined, ProviderErrInvalidRequest:
		return provErr.Msg
	default:
		return "payment service temporarily unavailable"
	}
}
