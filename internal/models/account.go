package models

import "time"

// Account is a named holder of positions. Name is the natural key.
type Account struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Institution *string `json:"institution,omitempty"`
	AccountType *string `json:"account_type,omitempty"`
	Provenance
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
