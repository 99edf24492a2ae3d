package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChoose(t *testing.T) {
	tests := []struct {
		name   string
		sheets []string
		want   Selection
	}{
		{
			name:   "holdings and watch",
			sheets: []string{"Summary", "Holdings", "Watch List"},
			want:   Selection{Positions: "Holdings", Watchlist: "Watch List", HasWatchlist: true},
		},
		{
			name:   "single sheet",
			sheets: []string{"Sheet1"},
			want:   Selection{Positions: "Sheet1"},
		},
		{
			name:   "no markers falls back to first and second",
			sheets: []string{"A", "B"},
			want:   Selection{Positions: "A", Watchlist: "B", HasWatchlist: true},
		},
		{
			name:   "first matching marker wins",
			sheets: []string{"Notes", "My Positions", "Old Portfolio"},
			want:   Selection{Positions: "My Positions", Watchlist: "Notes", HasWatchlist: true},
		},
		{
			name:   "case insensitive",
			sheets: []string{"PORTFOLIO", "WATCHLIST"},
			want:   Selection{Positions: "PORTFOLIO", Watchlist: "WATCHLIST", HasWatchlist: true},
		},
		{
			name:   "single watch sheet is both",
			sheets: []string{"Watchlist"},
			want:   Selection{Positions: "Watchlist", Watchlist: "Watchlist", HasWatchlist: true},
		},
		{
			name:   "empty",
			sheets: nil,
			want:   Selection{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Choose(tt.sheets))
		})
	}
}
