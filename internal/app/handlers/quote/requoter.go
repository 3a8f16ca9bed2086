package quote

import (
	"context"
	"sync"

	"staybook/internal/app/dto"
	"staybook/internal/app/queries"
)

// Requoter serializes interactive re-quoting: every parameter change issues a
// request with a monotonically increasing sequence number and cancels the
// previous in-flight one. A response is applied only when it still carries
// the latest sequence, so a slow stale quote can never overwrite a newer one
// regardless of arrival order.
type Requoter struct {
	Queries queries.Bus

	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// begin registers a new request generation, cancelling the prior in-flight one.
func (r *Requoter) begin(ctx context.Context) (context.Context, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	reqCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return reqCtx, r.seq
}

// latest reports whether the sequence is still the newest issued.
func (r *Requoter) latest(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return seq == r.seq
}

// Quote dispatches a quote request and applies the result through apply only
// if no newer request has been issued meanwhile. It returns the sequence
// number assigned to this request and whether the result was applied.
func (r *Requoter) Quote(ctx context.Context, q ComputeQuoteQuery, apply func(dto.Quote)) (uint64, bool, error) {
	reqCtx, seq := r.begin(ctx)
	result, err := queries.Ask[ComputeQuoteQuery, dto.Quote](reqCtx, r.Queries, q)
	if !r.latest(seq) {
		// Superseded: discard regardless of success.
		return seq, false, nil
	}
	if err != nil {
		return seq, false, err
	}
	if apply != nil {
		apply(result)
	}
	return seq, true, nil
}

// Availability behaves like Quote for availability checks; both share the
// same sequence so mixed in-flight requests still resolve last-write-wins.
func (r *Requoter) Availability(ctx context.Context, q CheckAvailabilityQuery, apply func(dto.Availability)) (uint64, bool, error) {
	reqCtx, seq := r.begin(ctx)
	result, err := queries.Ask[CheckAvailabilityQuery, dto.Availability](reqCtx, r.Queries, q)
	if !r.latest(seq) {
		return seq, false, nil
	}
	if err != nil {
		return seq, false, err
	}
	if apply != nil {
		apply(result)
	}
	return seq, true, nil
}
