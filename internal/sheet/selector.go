package sheet

import "strings"

// Selection names the sheets an ingestion run reads
type Selection struct {
	Positions    string
	Watchlist    string
	HasWatchlist bool
}

var positionsMarkers = []string{"portfolio", "positions", "holdings"}

// Choose picks the positions sheet and, optionally, the watchlist sheet.
//
// Positions: the first sheet whose name contains "portfolio", "positions" or
// "holdings" (case-insensitive), else the first sheet.
// Watchlist: the first sheet whose name contains "watch"; otherwise, when the
// workbook has more than one sheet, the first sheet that is not the positions
// sheet. A single-sheet workbook has no watchlist.
func Choose(sheetNames []string) Selection {
	if len(sheetNames) == 0 {
		return Selection{}
	}

	sel := Selection{Positions: sheetNames[0]}
	for _, name := range sheetNames {
		if containsAny(strings.ToLower(name), positionsMarkers) {
			sel.Positions = name
			break
		}
	}

	for _, name := range sheetNames {
		if strings.Contains(strings.ToLower(name), "watch") {
			sel.Watchlist, sel.HasWatchlist = name, true
			return sel
		}
	}

	if len(sheetNames) > 1 {
		for _, name := range sheetNames {
			if name != sel.Positions {
				sel.Watchlist, sel.HasWatchlist = name, true
				return sel
			}
		}
	}
	return sel
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
