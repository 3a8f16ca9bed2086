package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"staybook/internal/app/policies"
	domainpayment "staybook/internal/domain/payment"
)

// PaymentProvider simulates a payment processor. Created intents start in
// requires_action; SettleIntent moves them forward, which is enough to drive
// the full booking flow in demos and tests.
type PaymentProvider struct {
	mu      sync.Mutex
	intents map[string]policies.Intent
	capture map[string]domainpayment.CaptureMethod

	// FailNextCreate, when set, makes the next CreateIntent return the
	// configured error and then clears itself.
	FailNextCreate *policies.ProviderError
}

func NewPaymentProvider() *PaymentProvider {
	return &PaymentProvider{
		intents: make(map[string]policies.Intent),
		capture: make(map[string]domainpayment.CaptureMethod),
	}
}

func (p *PaymentProvider) CreateIntent(ctx context.Context, params policies.IntentParams) (policies.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.FailNextCreate != nil {
		err := p.FailNextCreate
		p.FailNextCreate = nil
		return policies.Intent{}, err
	}
	id := "pi_" + uuid.NewString()
	intent := policies.Intent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString()[:8],
		Status:       "requires_action",
	}
	p.intents[id] = intent
	p.capture[id] = params.CaptureMethod
	return intent, nil
}

func (p *PaymentProvider) GetIntent(ctx context.Context, id string) (policies.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return policies.Intent{}, &policies.ProviderError{
			Kind: policies.ProviderErrInvalidRequest,
			Msg:  fmt.Sprintf("no such intent: %s", id),
		}
	}
	return intent, nil
}

func (p *PaymentProvider) CaptureIntent(ctx context.Context, id string) (policies.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return policies.Intent{}, &policies.ProviderError{
			Kind: policies.ProviderErrInvalidRequest,
			Msg:  fmt.Sprintf("no such intent: %s", id),
		}
	}
	if intent.Status != "requires_capture" {
		return policies.Intent{}, &policies.ProviderError{
			Kind: policies.ProviderErrInvalidRequest,
			Msg:  fmt.Sprintf("intent %s is not capturable in status %s", id, intent.Status),
		}
	}
	intent.Status = "succeeded"
	p.intents[id] = intent
	return intent, nil
}

func (p *PaymentProvider) CancelIntent(ctx context.Context, id string) (policies.Intent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return policies.Intent{}, &policies.ProviderError{
			Kind: policies.ProviderErrInvalidRequest,
			Msg:  fmt.Sprintf("no such intent: %s", id),
		}
	}
	intent.Status = "canceled"
	p.intents[id] = intent
	return intent, nil
}

// SettleIntent simulates the guest completing the payment step. Automatic
// intents jump straight to succeeded; manual ones stop at requires_capture.
func (p *PaymentProvider) SettleIntent(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	intent, ok := p.intents[id]
	if !ok {
		return fmt.Errorf("memory: no such intent %s", id)
	}
	if p.capture[id] == domainpayment.CaptureManual {
		intent.Status = "requires_capture"
	} else {
		intent.Status = "succeeded"
	}
	p.intents[id] = intent
	return nil
}

var _ policies.PaymentProvider = (*PaymentProvider)(nil)
