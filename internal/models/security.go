package models

import (
	"regexp"
	"strings"
	"time"
)

// SecurityType is the coarse instrument class inferred at import time
type SecurityType string

const (
	SecurityTypeStock SecurityType = "STOCK"
	SecurityTypeOther SecurityType = "OTHER"
)

// DefaultCurrency is the only currency the finance domain stores.
const DefaultCurrency = "USD"

var stockTickerPattern = regexp.MustCompile(`^[A-Z.\-]{1,10}$`)

// InferSecurityType classifies a ticker as STOCK when it looks like an exchange
// symbol (1-10 letters, dots or hyphens) and OTHER for anything else.
func InferSecurityType(ticker string) SecurityType {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if stockTickerPattern.MatchString(t) {
		return SecurityTypeStock
	}
	return SecurityTypeOther
}

// Security represents a tradeable instrument, unique by ticker and shared across accounts
type Security struct {
	ID           int64        `json:"id"`
	Ticker       string       `json:"ticker"`
	Name         string       `json:"name"`
	SecurityType SecurityType `json:"security_type"`
	Currency     string       `json:"currency"`
	Provenance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
