package stripeprovider

import (
	"context"
	"errors"

	stripe "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"staybook/internal/app/policies"
	domainpayment "staybook/internal/domain/payment"
)

// Provider adapts the Stripe PaymentIntents API to the application's payment
// port. Each booking charge and deposit hold is one PaymentIntent.
type Provider struct {
	api *client.API
}

func New(secretKey string) *Provider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Provider{api: api}
}

func (p *Provider) CreateIntent(ctx context.Context, params policies.IntentParams) (policies.Intent, error) {
	piParams := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(params.AmountCents),
		Currency: stripe.String(params.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if params.CaptureMethod == domainpayment.CaptureManual {
		piParams.CaptureMethod = stripe.String(string(stripe.PaymentIntentCaptureMethodManual))
	}
	piParams.AddMetadata("booking_id", params.BookingID)
	piParams.AddMetadata("purpose", string(params.Purpose))

	pi, err := p.api.PaymentIntents.New(piParams)
	if err != nil {
		return policies.Intent{}, translateErr(err)
	}
	return mapIntent(pi), nil
}

func (p *Provider) GetIntent(ctx context.Context, id string) (policies.Intent, error) {
	pi, err := p.api.PaymentIntents.Get(id, &stripe.PaymentIntentParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return policies.Intent{}, translateErr(err)
	}
	return mapIntent(pi), nil
}

func (p *Provider) CaptureIntent(ctx context.Context, id string) (policies.Intent, error) {
	pi, err := p.api.PaymentIntents.Capture(id, &stripe.PaymentIntentCaptureParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return policies.Intent{}, translateErr(err)
	}
	return mapIntent(pi), nil
}

func (p *Provider) CancelIntent(ctx context.Context, id string) (policies.Intent, error) {
	pi, err := p.api.PaymentIntents.Cancel(id, &stripe.PaymentIntentCancelParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return policies.Intent{}, translateErr(err)
	}
	return mapIntent(pi), nil
}

func mapIntent(pi *stripe.PaymentIntent) policies.Intent {
	return policies.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

// translateErr folds Stripe's error taxonomy into the provider port's
// structured kinds. Raw Stripe messages are preserved in Msg; the guest-safe
// rendering happens at the port boundary.
func translateErr(err error) error {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return &policies.ProviderError{Kind: policies.ProviderErrNetwork, Msg: err.Error()}
	}
	kind := policies.ProviderErrUnavailable
	switch stripeErr.Type {
	case stripe.ErrorTypeCard:
		kind = policies.ProviderErrCardDeclined
	case stripe.ErrorTypeInvalidRequest:
		kind = policies.ProviderErrInvalidRequest
	case stripe.ErrorType("authentication_error"):
		kind = policies.ProviderErrAuth
	case stripe.ErrorTypeAPI:
		kind = policies.ProviderErrUnavailable
	}
	if stripeErr.Code == stripe.ErrorCodeCardDeclined {
		kind = policies.ProviderErrCardDeclined
	}
	msg := stripeErr.Msg
	if msg == "" {
		msg = string(stripeErr.Code)
	}
	return &policies.ProviderError{Kind: kind, Msg: msg}
}

var _ policies.PaymentProvider = (*Provider)(nil)
