package dto

import (
	domainquote "staybook/internal/domain/quote"
)

type Quote struct {
	SubtotalCents    int64    `json:"subtotal_cents"`
	FeesCents        int64    `json:"fees_cents"`
	AddonsTotalCents int64    `json:"addons_total_cents"`
	DepositCents     int64    `json:"deposit_cents"`
	TotalCents       int64    `json:"total_cents"`
	Currency         string   `json:"currency"`
	RiskFlags        []string `json:"risk_flags"`
	Mode             string   `json:"mode"`
}

type Availability struct {
	PropertyID string `json:"property_id"`
	Available  bool   `json:"available"`
}

func MapQuote(b domainquote.Breakdown) Quote {
	return Quote{
		SubtotalCents:    b.SubtotalCents,
		FeesCents:        b.FeesCents,
		AddonsTotalCents: b.AddonsTotalCents,
		DepositCents:     b.DepositCents,
		TotalCents:       b.TotalCents,
		Currency:         b.Currency,
		RiskFlags:        b.Flags.Sorted(),
		Mode:             string(b.Mode),
	}
}
