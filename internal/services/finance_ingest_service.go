package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oldfield/dashboard/config"
	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/sheet"
	"github.com/oldfield/dashboard/internal/store"
	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingSource  = errors.New("finance workbook path is not set")
	ErrSourceNotFound = errors.New("finance workbook not found")
	ErrEmptyWorkbook  = errors.New("workbook has no sheets")
)

// LoggedSkipReasons caps how many skip reasons a run writes to the log
const LoggedSkipReasons = 25

var (
	positionTickerAliases  = []string{"ticker", "symbol", "security", "asset", "instrument"}
	watchlistTickerAliases = []string{"ticker", "symbol", "security", "instrument"}
	quantityAliases        = []string{"quantity", "qty", "shares", "share count", "units"}
	nameAliases            = []string{"name", "security name", "description", "company"}
	avgCostAliases         = []string{"avg cost", "average cost", "cost basis", "avg price", "purchase price"}
	marketValueAliases     = []string{"market value", "value", "current value"}
)

// SheetSource is a parsed workbook
type SheetSource interface {
	SheetNames() []string
	Columns(name string) ([]string, error)
	Rows(name string) ([]sheet.Row, error)
}

// IngestRequest names the workbook to ingest and where its data lands
type IngestRequest struct {
	Path        string
	AccountName string
	SourceRef   string
}

// FinanceIngestService replaces an account's imported position snapshot with
// the contents of a workbook and records the outcome as a FINANCE manifest.
type FinanceIngestService struct {
	store    store.Store
	now      func() time.Time
	onCommit []func()
}

// NewFinanceIngestService creates a new FinanceIngestService
func NewFinanceIngestService(s store.Store) *FinanceIngestService {
	return &FinanceIngestService{store: s, now: time.Now}
}

// WithClock replaces the wall clock used for as-of and ingested-at stamps
func (s *FinanceIngestService) WithClock(now func() time.Time) *FinanceIngestService {
	s.now = now
	return s
}

// OnCommit registers fn to run after each committed ingestion
func (s *FinanceIngestService) OnCommit(fn func()) *FinanceIngestService {
	s.onCommit = append(s.onCommit, fn)
	return s
}

// Run opens the workbook at req.Path and ingests it. Setup failures return
// before any write.
func (s *FinanceIngestService) Run(ctx context.Context, req IngestRequest) (*models.IngestReport, error) {
	if strings.TrimSpace(req.Path) == "" {
		return nil, ErrMissingSource
	}
	if _, err := os.Stat(req.Path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, req.Path)
		}
		return nil, fmt.Errorf("failed to stat workbook: %w", err)
	}

	wb, err := sheet.Open(req.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook %s: %w", req.Path, err)
	}
	log.Infof("Workbook: %s", req.Path)

	in := config.FinanceIngest{Path: req.Path, AccountName: req.AccountName, SourceRef: req.SourceRef}.WithDefaults()
	return s.RunSource(ctx, wb, in.AccountName, in.SourceRef)
}

type positionRow struct {
	security models.Security
	position models.Position
}

// RunSource ingests an already-parsed workbook. Both sheets are read and
// classified up front; the account upsert, snapshot delete, position inserts,
// watchlist upserts and manifest append then run in one transaction.
func (s *FinanceIngestService) RunSource(ctx context.Context, src SheetSource, accountName, sourceRef string) (*models.IngestReport, error) {
	if strings.TrimSpace(accountName) == "" {
		accountName = config.DefaultFinanceAccount
	}
	if strings.TrimSpace(sourceRef) == "" {
		sourceRef = config.UnknownFinanceSourceRef
	}
	defer TrackTime("finance_ingest", time.Now(), log.Fields{"account": accountName, "source_ref": sourceRef})

	names := src.SheetNames()
	if len(names) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sel := sheet.Choose(names)
	log.Infof("Sheets: %s", strings.Join(names, ", "))
	if sel.HasWatchlist {
		log.Infof("Using positions sheet %q, watchlist sheet %q", sel.Positions, sel.Watchlist)
	} else {
		log.Infof("Using positions sheet %q, no watchlist sheet", sel.Positions)
	}

	runStart := s.now()
	prov := models.Provenance{
		SourceSystem: models.SourceSystemImportedFixture,
		SourceRef:    sourceRef,
		AsOf:         runStart,
		Confidence:   models.ConfidenceHigh,
	}

	ctx, skips := NewSkipContext(ctx)

	positionCols, positionRows, err := readSheet(src, sel.Positions)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions sheet: %w", err)
	}
	positions := parsePositions(ctx, sel.Positions, positionCols, positionRows, prov)

	var watchlist []models.Security
	if sel.HasWatchlist {
		watchCols, watchRows, err := readSheet(src, sel.Watchlist)
		if err != nil {
			return nil, fmt.Errorf("failed to read watchlist sheet: %w", err)
		}
		watchlist = parseWatchlist(ctx, sel.Watchlist, watchCols, watchRows, prov)
	}

	report := &models.IngestReport{
		AccountName:    accountName,
		SourceRef:      sourceRef,
		PositionsSheet: sel.Positions,
		SkipReasons:    skips.Reasons(),
	}
	if sel.HasWatchlist {
		report.WatchlistSheet = &sel.Watchlist
	}
	report.Skipped = skips.Len()
	if report.SkipReasons == nil {
		report.SkipReasons = []models.Warning{}
	}

	err = s.store.WithTx(ctx, func(w store.Writer) error {
		account := &models.Account{Name: accountName, Provenance: prov}
		if err := w.UpsertAccount(ctx, account); err != nil {
			return fmt.Errorf("failed to upsert account: %w", err)
		}
		report.AccountID = account.ID

		removed, err := w.DeletePositions(ctx, account.ID, prov.SourceSystem, prov.SourceRef)
		if err != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", err)
		}
		report.PositionsRemoved = removed

		for i := range positions {
			sec := positions[i].security
			if err := w.UpsertSecurity(ctx, &sec); err != nil {
				return fmt.Errorf("failed to upsert security %s: %w", sec.Ticker, err)
			}
			pos := positions[i].position
			pos.SecurityID = sec.ID
			pos.AccountID = account.ID
			pos.IngestedAt = s.now()
			if err := w.CreatePosition(ctx, &pos); err != nil {
				return fmt.Errorf("failed to insert position %s: %w", sec.Ticker, err)
			}
			report.PositionsInserted++
		}

		for i := range watchlist {
			sec := watchlist[i]
			if err := w.UpsertSecurity(ctx, &sec); err != nil {
				return fmt.Errorf("failed to upsert watchlist security %s: %w", sec.Ticker, err)
			}
			report.WatchlistUpserted++
		}

		report.Status, report.Message = summarize(report)

		asOf := runStart
		ingestedAt := s.now()
		msg := report.Message
		manifest := &models.SourceManifest{
			Domain:     models.DomainFinance,
			SourceRef:  sourceRef,
			Status:     report.Status,
			AsOf:       &asOf,
			IngestedAt: &ingestedAt,
			RowCount:   report.RowCount(),
			Message:    &msg,
		}
		if err := w.AppendManifest(ctx, manifest); err != nil {
			return fmt.Errorf("failed to append manifest: %w", err)
		}
		report.ManifestID = manifest.ID
		return nil
	})
	if err != nil {
		log.Errorf("Finance ingestion failed, nothing was written: %v", err)
		return nil, err
	}
	for _, fn := range s.onCommit {
		fn()
	}

	log.Info(report.Message)
	if report.Skipped > 0 {
		log.WithFields(log.Fields{
			"missing_ticker":    skips.Count(models.WarnPortfolioMissingTicker),
			"missing_quantity":  skips.Count(models.WarnPortfolioMissingQuantity),
			"watchlist_missing": skips.Count(models.WarnWatchlistMissingTicker),
		}).Warnf("Skipped rows (%d). First %d:", report.Skipped, min(report.Skipped, LoggedSkipReasons))
		for _, w := range report.SkipReasons[:min(report.Skipped, LoggedSkipReasons)] {
			log.Warnf(" - %s", w.Message)
		}
	}
	return report, nil
}

// summarize derives the manifest status and message from the counts
func summarize(r *models.IngestReport) (models.ManifestStatus, string) {
	msg := fmt.Sprintf("Ingested positions=%d, watchlist=%d", r.PositionsInserted, r.WatchlistUpserted)
	if r.Skipped == 0 {
		return models.ManifestStatusOK, msg
	}
	return models.ManifestStatusWarn, fmt.Sprintf("%s, skipped=%d (see logs)", msg, r.Skipped)
}

func readSheet(src SheetSource, name string) ([]string, []sheet.Row, error) {
	columns, err := src.Columns(name)
	if err != nil {
		return nil, nil, err
	}
	rows, err := src.Rows(name)
	if err != nil {
		return nil, nil, err
	}
	return columns, rows, nil
}

func parsePositions(ctx context.Context, sheetName string, columns []string, rows []sheet.Row, prov models.Provenance) []positionRow {
	out := make([]positionRow, 0, len(rows))
	for i, row := range rows {
		l := sheet.NewRowLookup(row, columns...)

		ticker, ok := l.ResolveString(positionTickerAliases...)
		ticker = strings.ToUpper(ticker)
		if !ok || ticker == "" {
			SkipRow(ctx, models.Warning{
				Code:    models.WarnPortfolioMissingTicker,
				Message: "portfolio: missing ticker/symbol",
				Sheet:   sheetName,
				Row:     i + 1,
			})
			continue
		}

		qv, _ := l.Resolve(quantityAliases...)
		qty, ok := sheet.ToDecimal(qv)
		if !ok || qty.IsZero() {
			SkipRow(ctx, models.Warning{
				Code:    models.WarnPortfolioMissingQuantity,
				Message: fmt.Sprintf("portfolio: %s missing/zero quantity", ticker),
				Sheet:   sheetName,
				Row:     i + 1,
			})
			continue
		}

		avg, _ := l.Resolve(avgCostAliases...)
		mv, _ := l.Resolve(marketValueAliases...)
		out = append(out, positionRow{
			security: newSecurity(ticker, l, prov),
			position: models.Position{
				Ticker:      ticker,
				Quantity:    qty,
				AvgCost:     sheet.ToNullDecimal(avg),
				MarketValue: sheet.ToNullDecimal(mv),
				Provenance:  prov,
			},
		})
	}
	return out
}

func parseWatchlist(ctx context.Context, sheetName string, columns []string, rows []sheet.Row, prov models.Provenance) []models.Security {
	out := make([]models.Security, 0, len(rows))
	for i, row := range rows {
		l := sheet.NewRowLookup(row, columns...)

		ticker, ok := l.ResolveString(watchlistTickerAliases...)
		ticker = strings.ToUpper(ticker)
		if !ok || ticker == "" {
			SkipRow(ctx, models.Warning{
				Code:    models.WarnWatchlistMissingTicker,
				Message: "watchlist: missing ticker/symbol",
				Sheet:   sheetName,
				Row:     i + 1,
			})
			continue
		}
		out = append(out, newSecurity(ticker, l, prov))
	}
	return out
}

func newSecurity(ticker string, l sheet.RowLookup, prov models.Provenance) models.Security {
	name, ok := l.ResolveString(nameAliases...)
	if !ok {
		name = ticker
	}
	return models.Security{
		Ticker:       ticker,
		Name:         name,
		SecurityType: models.InferSecurityType(ticker),
		Currency:     models.DefaultCurrency,
		Provenance:   prov,
	}
}
