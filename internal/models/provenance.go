package models

import (
	"errors"
	"fmt"
	"time"
)

// SourceSystem identifies which kind of producer wrote a record.
type SourceSystem string

const (
	SourceSystemImportedFixture SourceSystem = "IMPORTED_FIXTURE"
	SourceSystemManual          SourceSystem = "MANUAL"
	SourceSystemAPI             SourceSystem = "API"
)

// Confidence is the trust level attached to an ingested value. It is unrelated to freshness.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

var ErrInvalidProvenance = errors.New("invalid provenance")

// Valid reports whether s is one of the known source systems.
func (s SourceSystem) Valid() bool {
	switch s {
	case SourceSystemImportedFixture, SourceSystemManual, SourceSystemAPI:
		return true
	}
	return false
}

// Valid reports whether c is one of the known confidence levels.
func (c Confidence) Valid() bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// Provenance records where a finance row came from and how far it can be trusted.
// It is embedded in Account, Security and Position.
type Provenance struct {
	SourceSystem SourceSystem `json:"source_system"`
	SourceRef    string       `json:"source_ref"`
	AsOf         time.Time    `json:"as_of"`
	Confidence   Confidence   `json:"confidence"`
}

// Validate rejects provenance values outside the closed enumerations.
func (p Provenance) Validate() error {
	if !p.SourceSystem.Valid() {
		return fmt.Errorf("%w: unknown source system %q", ErrInvalidProvenance, p.SourceSystem)
	}
	if !p.Confidence.Valid() {
		return fmt.Errorf("%w: unknown confidence %q", ErrInvalidProvenance, p.Confidence)
	}
	if p.SourceRef == "" {
		return fmt.Errorf("%w: source ref is empty", ErrInvalidProvenance)
	}
	return nil
}
