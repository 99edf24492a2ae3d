package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/oldfield/dashboard/internal/models"
	"github.com/oldfield/dashboard/internal/repository/sqlite"
	"github.com/oldfield/dashboard/internal/sheet"
	"github.com/oldfield/dashboard/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ingestNow = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	st, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(st.Close)
	return st
}

func newTestIngest(st store.Store) *FinanceIngestService {
	return NewFinanceIngestService(st).WithClock(func() time.Time { return ingestNow })
}

func workbook(sheets ...sheet.Sheet) *sheet.Workbook {
	return sheet.NewWorkbook(sheets...)
}

func snapshot(t *testing.T, st *sqlite.Store, account, sourceRef string) []models.Position {
	t.Helper()
	a, err := st.GetAccountByName(context.Background(), account)
	require.NoError(t, err)
	positions, err := st.ListPositions(context.Background(), a.ID, models.SourceSystemImportedFixture, sourceRef)
	require.NoError(t, err)
	return positions
}

func countRows(t *testing.T, st *sqlite.Store, table string) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestRunSource_HoldingsEndToEnd(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	wb := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
		{"ticker": "AAPL", "shares": 10.0, "avg cost": 150.0},
		{"symbol": "", "qty": 5.0},
	}})

	report, err := newTestIngest(st).RunSource(ctx, wb, "Brokerage", "finance.xlsx")
	require.NoError(t, err)

	assert.Equal(t, models.ManifestStatusWarn, report.Status)
	assert.Equal(t, 1, report.PositionsInserted)
	assert.Equal(t, 0, report.WatchlistUpserted)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, "Ingested positions=1, watchlist=0, skipped=1 (see logs)", report.Message)
	assert.Equal(t, "Holdings", report.PositionsSheet)
	assert.Nil(t, report.WatchlistSheet)
	require.Len(t, report.SkipReasons, 1)
	assert.Equal(t, models.WarnPortfolioMissingTicker, report.SkipReasons[0].Code)
	assert.Equal(t, "portfolio: missing ticker/symbol", report.SkipReasons[0].Message)
	assert.Equal(t, 2, report.SkipReasons[0].Row)

	positions := snapshot(t, st, "Brokerage", "finance.xlsx")
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, "10", positions[0].Quantity.String())
	require.True(t, positions[0].AvgCost.Valid)
	assert.Equal(t, "150", positions[0].AvgCost.Decimal.String())
	assert.False(t, positions[0].MarketValue.Valid)
	assert.Equal(t, models.ConfidenceHigh, positions[0].Confidence)
	assert.True(t, positions[0].AsOf.Equal(ingestNow))

	manifests, err := st.ListManifests(ctx, store.ManifestListLimit)
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	m := manifests[0]
	assert.Equal(t, report.ManifestID, m.ID)
	assert.Equal(t, models.DomainFinance, m.Domain)
	assert.Equal(t, models.ManifestStatusWarn, m.Status)
	assert.Equal(t, 1, m.RowCount)
	assert.Equal(t, "finance.xlsx", m.SourceRef)
	require.NotNil(t, m.Message)
	assert.Contains(t, *m.Message, "skipped=1")
	require.NotNil(t, m.AsOf)
	assert.True(t, m.AsOf.Equal(ingestNow))
}

func TestRunSource_CleanRunIsOK(t *testing.T) {
	st := newTestStore(t)

	wb := workbook(
		sheet.Sheet{Name: "Portfolio", Rows: []sheet.Row{
			{"Symbol": "vti", "Quantity": "3", "Market Value": "$1,234.50", "Description": "Total Market"},
		}},
		sheet.Sheet{Name: "Watchlist", Rows: []sheet.Row{
			{"Ticker": "nvda"},
			{"Ticker": "CASH 1"},
		}},
	)

	report, err := newTestIngest(st).RunSource(context.Background(), wb, "Brokerage", "ref")
	require.NoError(t, err)
	assert.Equal(t, models.ManifestStatusOK, report.Status)
	assert.Equal(t, "Ingested positions=1, watchlist=2", report.Message)
	assert.Equal(t, 3, report.RowCount())
	require.NotNil(t, report.WatchlistSheet)
	assert.Equal(t, "Watchlist", *report.WatchlistSheet)
	assert.Empty(t, report.SkipReasons)

	positions := snapshot(t, st, "Brokerage", "ref")
	require.Len(t, positions, 1)
	assert.Equal(t, "VTI", positions[0].Ticker)
	assert.Equal(t, "1234.5", positions[0].MarketValue.Decimal.String())

	var name, secType string
	require.NoError(t, st.DB().QueryRow(
		"SELECT name, security_type FROM finance_security WHERE ticker = 'VTI'").Scan(&name, &secType))
	assert.Equal(t, "Total Market", name)
	assert.Equal(t, string(models.SecurityTypeStock), secType)

	require.NoError(t, st.DB().QueryRow(
		"SELECT name, security_type FROM finance_security WHERE ticker = 'CASH 1'").Scan(&name, &secType))
	assert.Equal(t, "CASH 1", name, "name defaults to the ticker")
	assert.Equal(t, string(models.SecurityTypeOther), secType)

	assert.Equal(t, 3, countRows(t, st, "finance_security"))
	assert.Equal(t, 1, countRows(t, st, "finance_position"), "watchlist rows never create positions")
}

func TestRunSource_SkipsMissingAndZeroQuantity(t *testing.T) {
	st := newTestStore(t)

	wb := workbook(
		sheet.Sheet{Name: "Positions", Rows: []sheet.Row{
			{"Ticker": "MSFT", "Shares": "0"},
			{"Ticker": "GOOG", "Shares": ""},
			{"Ticker": "AMZN", "Shares": "n/a"},
			{"Ticker": "META", "Shares": "-2"},
		}},
		sheet.Sheet{Name: "Ideas", Rows: []sheet.Row{
			{"Ticker": "", "Notes": "blank"},
		}},
	)

	report, err := newTestIngest(st).RunSource(context.Background(), wb, "Brokerage", "ref")
	require.NoError(t, err)
	assert.Equal(t, 1, report.PositionsInserted, "negative quantities are kept")
	assert.Equal(t, 4, report.Skipped)

	messages := make([]string, 0, len(report.SkipReasons))
	for _, w := range report.SkipReasons {
		messages = append(messages, w.Message)
	}
	assert.Equal(t, []string{
		"portfolio: MSFT missing/zero quantity",
		"portfolio: GOOG missing/zero quantity",
		"portfolio: AMZN missing/zero quantity",
		"watchlist: missing ticker/symbol",
	}, messages)
	assert.Equal(t, models.WarnWatchlistMissingTicker, report.SkipReasons[3].Code)
	assert.Equal(t, "Ideas", report.SkipReasons[3].Sheet)
}

func TestRunSource_IdempotentReplacement(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := newTestIngest(st)

	wb := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
		{"Ticker": "AAPL", "Qty": 10},
		{"Ticker": "MSFT", "Qty": 5},
	}})

	first, err := svc.RunSource(ctx, wb, "Brokerage", "finance.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(0), first.PositionsRemoved)

	second, err := svc.RunSource(ctx, wb, "Brokerage", "finance.xlsx")
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.PositionsRemoved)
	assert.Equal(t, first.AccountID, second.AccountID)

	assert.Len(t, snapshot(t, st, "Brokerage", "finance.xlsx"), 2)
	assert.Equal(t, 2, countRows(t, st, "finance_security"))
	assert.Equal(t, 1, countRows(t, st, "finance_account"))
	assert.Equal(t, 2, countRows(t, st, "source_manifest"), "every run appends a manifest")
}

func TestRunSource_DroppedTickerDisappears(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := newTestIngest(st)

	_, err := svc.RunSource(ctx, workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
		{"Ticker": "AAPL", "Qty": 10},
		{"Ticker": "MSFT", "Qty": 5},
	}}), "Brokerage", "ref")
	require.NoError(t, err)

	_, err = svc.RunSource(ctx, workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
		{"Ticker": "AAPL", "Qty": 12},
	}}), "Brokerage", "ref")
	require.NoError(t, err)

	positions := snapshot(t, st, "Brokerage", "ref")
	require.Len(t, positions, 1)
	assert.Equal(t, "AAPL", positions[0].Ticker)
	assert.Equal(t, "12", positions[0].Quantity.String())
}

func TestRunSource_OtherSnapshotsUntouched(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	svc := newTestIngest(st)

	wb := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{{"Ticker": "AAPL", "Qty": 1}}})
	_, err := svc.RunSource(ctx, wb, "Brokerage", "jan.xlsx")
	require.NoError(t, err)
	_, err = svc.RunSource(ctx, wb, "Brokerage", "feb.xlsx")
	require.NoError(t, err)
	_, err = svc.RunSource(ctx, wb, "IRA", "jan.xlsx")
	require.NoError(t, err)

	assert.Len(t, snapshot(t, st, "Brokerage", "jan.xlsx"), 1)
	assert.Len(t, snapshot(t, st, "Brokerage", "feb.xlsx"), 1)
	assert.Len(t, snapshot(t, st, "IRA", "jan.xlsx"), 1)
}

func TestRunSource_DuplicateTickersAreIndependent(t *testing.T) {
	st := newTestStore(t)

	wb := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
		{"Ticker": "AAPL", "Qty": 1},
		{"Ticker": "aapl", "Qty": 2},
	}})
	report, err := newTestIngest(st).RunSource(context.Background(), wb, "Brokerage", "ref")
	require.NoError(t, err)
	assert.Equal(t, 2, report.PositionsInserted)
	assert.Len(t, snapshot(t, st, "Brokerage", "ref"), 2)
	assert.Equal(t, 1, countRows(t, st, "finance_security"))
}

func TestRunSource_Defaults(t *testing.T) {
	st := newTestStore(t)

	report, err := newTestIngest(st).RunSource(context.Background(),
		workbook(sheet.Sheet{Name: "Sheet1", Rows: []sheet.Row{{"Ticker": "SPY", "Units": 1}}}), "", "")
	require.NoError(t, err)
	assert.Equal(t, "Primary Portfolio", report.AccountName)
	assert.Equal(t, "finance:unknown", report.SourceRef)
	assert.Len(t, snapshot(t, st, "Primary Portfolio", "finance:unknown"), 1)
}

func TestRunSource_EmptyWorkbook(t *testing.T) {
	st := newTestStore(t)

	_, err := newTestIngest(st).RunSource(context.Background(), workbook(), "Brokerage", "ref")
	assert.ErrorIs(t, err, ErrEmptyWorkbook)
	assert.Equal(t, 0, countRows(t, st, "finance_account"))
	assert.Equal(t, 0, countRows(t, st, "source_manifest"))
}

// failingStore fails the named write inside the transaction
type failingStore struct {
	*sqlite.Store
	failOn string
}

type failingWriter struct {
	store.Writer
	failOn string
}

var errInjected = errors.New("injected storage failure")

func (s failingStore) WithTx(ctx context.Context, fn func(w store.Writer) error) error {
	return s.Store.WithTx(ctx, func(w store.Writer) error {
		return fn(failingWriter{Writer: w, failOn: s.failOn})
	})
}

func (w failingWriter) CreatePosition(ctx context.Context, p *models.Position) error {
	if w.failOn == "position" && p.Ticker == "MSFT" {
		return errInjected
	}
	return w.Writer.CreatePosition(ctx, p)
}

func (w failingWriter) AppendManifest(ctx context.Context, m *models.SourceManifest) error {
	if w.failOn == "manifest" {
		return errInjected
	}
	return w.Writer.AppendManifest(ctx, m)
}

func TestRunSource_StorageFailureRollsBack(t *testing.T) {
	for _, failOn := range []string{"position", "manifest"} {
		t.Run(failOn, func(t *testing.T) {
			st := newTestStore(t)
			ctx := context.Background()

			prior := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{{"Ticker": "VTI", "Qty": 4}}})
			_, err := newTestIngest(st).RunSource(ctx, prior, "Brokerage", "ref")
			require.NoError(t, err)

			next := workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{
				{"Ticker": "AAPL", "Qty": 10},
				{"Ticker": "MSFT", "Qty": 5},
			}})
			committed := false
			svc := newTestIngest(failingStore{Store: st, failOn: failOn}).OnCommit(func() { committed = true })
			_, err = svc.RunSource(ctx, next, "Brokerage", "ref")
			require.ErrorIs(t, err, errInjected)
			assert.False(t, committed)

			positions := snapshot(t, st, "Brokerage", "ref")
			require.Len(t, positions, 1, "prior snapshot survives")
			assert.Equal(t, "VTI", positions[0].Ticker)
			assert.Equal(t, 1, countRows(t, st, "source_manifest"))
			assert.Equal(t, 1, countRows(t, st, "finance_security"))
		})
	}
}

func TestRunSource_OnCommit(t *testing.T) {
	st := newTestStore(t)
	calls := 0
	svc := newTestIngest(st).OnCommit(func() { calls++ })

	_, err := svc.RunSource(context.Background(),
		workbook(sheet.Sheet{Name: "Holdings", Rows: []sheet.Row{{"Ticker": "SPY", "Qty": 1}}}), "Brokerage", "ref")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRun_SetupErrors(t *testing.T) {
	st := newTestStore(t)
	svc := newTestIngest(st)
	ctx := context.Background()

	_, err := svc.Run(ctx, IngestRequest{Path: "  "})
	assert.ErrorIs(t, err, ErrMissingSource)

	_, err = svc.Run(ctx, IngestRequest{Path: filepath.Join(t.TempDir(), "missing.xlsx")})
	assert.ErrorIs(t, err, ErrSourceNotFound)

	odd := filepath.Join(t.TempDir(), "finance.txt")
	require.NoError(t, os.WriteFile(odd, []byte("Ticker\nAAPL\n"), 0o644))
	_, err = svc.Run(ctx, IngestRequest{Path: odd})
	assert.ErrorIs(t, err, sheet.ErrUnsupportedFormat)

	assert.Equal(t, 0, countRows(t, st, "finance_account"), "setup failures write nothing")
	assert.Equal(t, 0, countRows(t, st, "source_manifest"))
}

func TestRun_FromFileUsesBaseNameAsSourceRef(t *testing.T) {
	st := newTestStore(t)
	path := filepath.Join(t.TempDir(), "positions.csv")
	require.NoError(t, os.WriteFile(path, []byte("Ticker,Shares,Avg Cost\naapl,10,$150.00\n"), 0o644))

	report, err := newTestIngest(st).Run(context.Background(), IngestRequest{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "positions.csv", report.SourceRef)
	assert.Equal(t, "Primary Portfolio", report.AccountName)
	assert.Equal(t, "positions", report.PositionsSheet)

	positions := snapshot(t, st, "Primary Portfolio", "positions.csv")
	require.Len(t, positions, 1)
	assert.Equal(t, "150", positions[0].AvgCost.Decimal.String())
}

func TestRunSource_CSVExportIsStableAcrossRuns(t *testing.T) {
	st := newTestStore(t)
	svc := newTestIngest(st)
	ctx := context.Background()
	csv := "\uFEFFTicker,Shares,shares\naapl,10,20\n"

	for i := 0; i < 5; i++ {
		wb, err := sheet.ReadCSV("export", strings.NewReader(csv))
		require.NoError(t, err)
		report, err := svc.RunSource(ctx, wb, "Brokerage", "export.csv")
		require.NoError(t, err)
		assert.Equal(t, 1, report.PositionsInserted)
		assert.Empty(t, report.SkipReasons)

		positions := snapshot(t, st, "Brokerage", "export.csv")
		require.Len(t, positions, 1)
		assert.Equal(t, "20", positions[0].Quantity.String(), "run %d", i)
	}
}
