package models

import "time"

// Domain is a top-level data category tracked independently for freshness.
type Domain string

const (
	DomainSystem     Domain = "SYSTEM"
	DomainFinance    Domain = "FINANCE"
	DomainHealthData Domain = "HEALTH"
	DomainGrocery    Domain = "GROCERY"
	DomainTasks      Domain = "TASKS"
	DomainHome       Domain = "HOME"
	DomainVehicles   Domain = "VEHICLES"
	DomainGarden     Domain = "GARDEN"
	DomainHunting    Domain = "HUNTING"
	DomainLifeAdmin  Domain = "LIFE_ADMIN"
	DomainPeople     Domain = "PEOPLE"
)

// ManifestStatus is the outcome recorded by a producer run
type ManifestStatus string

const (
	ManifestStatusOK    ManifestStatus = "OK"
	ManifestStatusWarn  ManifestStatus = "WARN"
	ManifestStatusError ManifestStatus = "ERROR"
)

// Freshness is the derived verdict for a domain's latest manifest
type Freshness string

const (
	FreshnessFresh   Freshness = "FRESH"
	FreshnessStale   Freshness = "STALE"
	FreshnessUnknown Freshness = "UNKNOWN"
)

// SourceManifest is an append-only audit record of one data-producing run.
// AsOf is the business time of the data; IngestedAt is the wall-clock time of the run.
// IngestedAt is a pointer only so that rows lacking both timestamps can be represented;
// the stores always write it.
type SourceManifest struct {
	ID         int64          `json:"id"`
	Domain     Domain         `json:"domain"`
	SourceRef  string         `json:"source_ref"`
	Status     ManifestStatus `json:"status"`
	AsOf       *time.Time     `json:"as_of"`
	IngestedAt *time.Time     `json:"ingested_at"`
	RowCount   int            `json:"row_count"`
	Message    *string        `json:"message"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// DomainHealth is one row of the system health view: the latest manifest for a
// domain plus its freshness verdict.
type DomainHealth struct {
	ManifestID int64          `json:"manifest_id"`
	Domain     Domain         `json:"domain"`
	Status     ManifestStatus `json:"status"`
	Freshness  Freshness      `json:"freshness"`
	AgeHours   *float64       `json:"age_hours"`
	AsOf       *time.Time     `json:"as_of"`
	IngestedAt *time.Time     `json:"ingested_at"`
	RowCount   int            `json:"row_count"`
	SourceRef  string         `json:"source_ref"`
	Message    *string        `json:"message"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
