package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/store"
)

// DefaultStaleAfterHours is how old a domain's latest data may get before the
// health view flags it STALE.
var DefaultStaleAfterHours = map[models.Domain]float64{
	models.DomainSystem:     24,
	models.DomainFinance:    24,
	models.DomainHealthData: 168, // 7 days
	models.DomainGrocery:    168,
	models.DomainTasks:      24,
	models.DomainHome:       168,
	models.DomainVehicles:   168,
	models.DomainGarden:     168,
	models.DomainHunting:    24,
	models.DomainLifeAdmin:  168,
	models.DomainPeople:     720, // 30 days
}

// DefaultStaleAfter applies to domains missing from the table
const DefaultStaleAfter = 168.0

// Thresholds holds per-domain staleness limits in hours
type Thresholds struct {
	ByDomain map[models.Domain]float64
	Default  float64
}

// DefaultThresholds returns a copy of the built-in table
func DefaultThresholds() Thresholds {
	byDomain := make(map[models.Domain]float64, len(DefaultStaleAfterHours))
	for d, h := range DefaultStaleAfterHours {
		byDomain[d] = h
	}
	return Thresholds{ByDomain: byDomain, Default: DefaultStaleAfter}
}

// For returns the limit for domain d
func (t Thresholds) For(d models.Domain) float64 {
	if h, ok := t.ByDomain[d]; ok {
		return h
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultStaleAfter
}

// ManifestLister is the read side of the store used by the health view
type ManifestLister interface {
	ListManifests(ctx context.Context, limit int) ([]models.SourceManifest, error)
}

// HealthService computes the system health view from stored manifests
type HealthService struct {
	manifests  ManifestLister
	thresholds Thresholds
	now        func() time.Time
}

// NewHealthService creates a new HealthService
func NewHealthService(manifests ManifestLister, thresholds Thresholds) *HealthService {
	return &HealthService{
		manifests:  manifests,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for age computation
func (s *HealthService) WithClock(now func() time.Time) *HealthService {
	s.now = now
	return s
}

// LatestByDomain returns one DomainHealth per domain, in domain order.
// It only reads; storage errors are returned unchanged in meaning.
func (s *HealthService) LatestByDomain(ctx context.Context) ([]models.DomainHealth, error) {
	defer TrackTime("latest_by_domain", time.Now(), nil)

	manifests, err := s.manifests.ListManifests(ctx, store.ManifestListLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list manifests: %w", err)
	}
	return EvaluateFreshness(manifests, s.now(), s.thresholds), nil
}

// EvaluateFreshness keeps the first manifest seen per domain (the input is
// ordered newest first within a domain) and classifies it against now.
// Age is measured from AsOf, falling back to IngestedAt; with neither the
// verdict is UNKNOWN and the age is nil. A manifest exactly at the threshold
// is still FRESH.
func EvaluateFreshness(manifests []models.SourceManifest, now time.Time, thresholds Thresholds) []models.DomainHealth {
	result := make([]models.DomainHealth, 0)
	seen := make(map[models.Domain]bool)

	for _, m := range manifests {
		if seen[m.Domain] {
			continue
		}
		seen[m.Domain] = true

		h := models.DomainHealth{
			ManifestID: m.ID,
			Domain:     m.Domain,
			Status:     m.Status,
			Freshness:  models.FreshnessUnknown,
			AsOf:       m.AsOf,
			IngestedAt: m.IngestedAt,
			RowCount:   m.RowCount,
			SourceRef:  m.SourceRef,
			Message:    m.Message,
			UpdatedAt:  m.UpdatedAt,
		}

		basis := m.AsOf
		if basis == nil {
			basis = m.IngestedAt
		}
		if basis != nil {
			age := AgeHours(*basis, now)
			h.AgeHours = &age
			if age > thresholds.For(m.Domain) {
				h.Freshness = models.FreshnessStale
			} else {
				h.Freshness = models.FreshnessFresh
			}
		}
		result = append(result, h)
	}
	return result
}

// AgeHours is the elapsed time from -> to in hours, rounded to one decimal
// (halves round up).
func AgeHours(from, to time.Time) float64 {
	hours := to.Sub(from).Hours()
	return math.Floor(hours*10+0.5) / 10
}

// Merge returns a copy of t with the given overrides applied. A zero def keeps
// the current default.
func (t Thresholds) Merge(byDomain map[models.Domain]float64, def float64) Thresholds {
	out := Thresholds{ByDomain: make(map[models.Domain]float64, len(t.ByDomain)+len(byDomain)), Default: t.Default}
	for d, h := range t.ByDomain {
		out.ByDomain[d] = h
	}
	for d, h := range byDomain {
		out.ByDomain[d] = h
	}
	if def > 0 {
		out.Default = def
	}
	return out
}
