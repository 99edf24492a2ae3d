package sheet

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row is one data row keyed by its raw header text. Readers store blank cells
// as "" so that every header is present in every row.
type Row map[string]any

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	separatorRun  = regexp.MustCompile(`[_-]+`)
)

// NormalizeHeader folds header variants together: "Share Count", "share_count"
// and "SHARE-COUNT" all become "share count".
func NormalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return separatorRun.ReplaceAllString(s, " ")
}

// RowLookup maps normalized headers to cell values for a single row
type RowLookup map[string]any

// NewRowLookup builds the normalized view of row. Headers are applied in the
// given column order, then any unlisted headers in sorted order, so when two
// headers normalize to the same key the later column wins.
func NewRowLookup(row Row, columns ...string) RowLookup {
	lookup := make(RowLookup, len(row))
	for _, k := range orderedKeys(row, columns) {
		lookup[NormalizeHeader(k)] = row[k]
	}
	return lookup
}

func orderedKeys(row Row, columns []string) []string {
	keys := make([]string, 0, len(row))
	listed := make(map[string]bool, len(columns))
	for _, c := range columns {
		if _, ok := row[c]; ok && !listed[c] {
			listed[c] = true
			keys = append(keys, c)
		}
	}
	rest := make([]string, 0, len(row)-len(keys))
	for k := range row {
		if !listed[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// Resolve tries aliases in order and returns the first value that is present
// and non-blank once stringified. ok=false means the field was not supplied,
// which callers must keep distinct from a zero value.
func (l RowLookup) Resolve(aliases ...string) (any, bool) {
	for _, alias := range aliases {
		v, ok := l[NormalizeHeader(alias)]
		if !ok || v == nil {
			continue
		}
		if strings.TrimSpace(CellString(v)) != "" {
			return v, true
		}
	}
	return nil, false
}

// ResolveString is Resolve followed by CellString and trimming
func (l RowLookup) ResolveString(aliases ...string) (string, bool) {
	v, ok := l.Resolve(aliases...)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(CellString(v)), true
}

// Resolve is a one-shot helper for callers that only need a single field from row
func Resolve(row Row, aliases ...string) (any, bool) {
	return NewRowLookup(row).Resolve(aliases...)
}

// CellString renders a cell value as text
func CellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return ""
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}
