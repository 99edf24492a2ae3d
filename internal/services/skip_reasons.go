package services

import (
	"context"
	"sync"

	"github.com/oldfield/dashboard/internal/models"
	log "github.com/sirupsen/logrus"
)

type skipContextKey struct{}

// SkipCollector gathers the rows an ingestion run declined to import, in the
// order they were classified.
type SkipCollector struct {
	mu      sync.Mutex
	reasons []models.Warning
	byCode  map[models.WarningCode]int
}

// NewSkipContext attaches a fresh SkipCollector to ctx for one ingestion run
func NewSkipContext(ctx context.Context) (context.Context, *SkipCollector) {
	sc := &SkipCollector{byCode: make(map[models.WarningCode]int)}
	return context.WithValue(ctx, skipContextKey{}, sc), sc
}

// SkipRow records why a sheet row was not imported. Without a collector in ctx
// the reason is only logged.
func SkipRow(ctx context.Context, w models.Warning) {
	log.WithFields(log.Fields{
		"code":  w.Code,
		"sheet": w.Sheet,
		"row":   w.Row,
	}).Debug(w.Message)

	sc, ok := ctx.Value(skipContextKey{}).(*SkipCollector)
	if !ok || sc == nil {
		return
	}
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.reasons = append(sc.reasons, w)
	sc.byCode[w.Code]++
}

// Reasons returns a copy of the skip reasons, or nil when every row was imported
func (sc *SkipCollector) Reasons() []models.Warning {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if len(sc.reasons) == 0 {
		return nil
	}
	out := make([]models.Warning, len(sc.reasons))
	copy(out, sc.reasons)
	return out
}

// Len returns the number of skipped rows
func (sc *SkipCollector) Len() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return len(sc.reasons)
}

// Count returns how many rows were skipped with code
func (sc *SkipCollector) Count(code models.WarningCode) int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.byCode[code]
}
