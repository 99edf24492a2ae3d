package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is a quantity of a Security held in an Account as of Provenance.AsOf.
// Positions for one (account, source system, source ref) form a snapshot that is
// replaced wholesale on every ingestion; they are never updated in place.
type Position struct {
	ID          int64               `json:"id"`
	SecurityID  int64               `json:"security_id"`
	AccountID   int64               `json:"account_id"`
	Ticker      string              `json:"ticker,omitempty"` // filled on reads only
	Quantity    decimal.Decimal     `json:"quantity"`
	AvgCost     decimal.NullDecimal `json:"avg_cost"`
	MarketValue decimal.NullDecimal `json:"market_value"`
	Provenance
	IngestedAt time.Time `json:"ingested_at"`
}
