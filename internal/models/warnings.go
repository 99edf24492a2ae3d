package models

// WarningCode categorizes warnings by subsystem.
// W5xxx = finance ingestion row skips.
type WarningCode string

const (
	WarnPortfolioMissingTicker   WarningCode = "W5001" // positions row without ticker/symbol
	WarnPortfolioMissingQuantity WarningCode = "W5002" // positions row with absent or zero quantity
	WarnWatchlistMissingTicker   WarningCode = "W5101" // watchlist row without ticker/symbol
)

// Warning represents a non-fatal issue encountered during processing.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
	Sheet   string      `json:"sheet,omitempty"`
	Row     int         `json:"row,omitempty"` // 1-based data row, header excluded
}
