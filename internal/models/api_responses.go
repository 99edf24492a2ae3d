package models

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// IngestReport summarizes one finance ingestion run
type IngestReport struct {
	AccountID         int64          `json:"account_id"`
	AccountName       string         `json:"account_name"`
	SourceRef         string         `json:"source_ref"`
	PositionsSheet    string         `json:"positions_sheet"`
	WatchlistSheet    *string        `json:"watchlist_sheet"`
	PositionsInserted int            `json:"positions_inserted"`
	WatchlistUpserted int            `json:"watchlist_upserted"`
	PositionsRemoved  int64          `json:"positions_removed"`
	Skipped           int            `json:"skipped"`
	SkipReasons       []Warning      `json:"skip_reasons"`
	Status            ManifestStatus `json:"status"`
	Message           string         `json:"message"`
	ManifestID        int64          `json:"manifest_id"`
}

// RowCount is the number of rows recorded on the manifest
func (r *IngestReport) RowCount() int {
	return r.PositionsInserted + r.WatchlistUpserted
}
