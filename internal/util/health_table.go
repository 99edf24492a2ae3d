package util

import (
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/oldfield/dashboard/internal/models"
)

// EmptyHealthMessage is rendered instead of a table when no manifest exists
const EmptyHealthMessage = "No manifests found."

var healthHeaders = []string{
	"Domain", "Status", "Freshness", "Age (hrs)", "As Of", "Ingested", "Rows", "Source Ref", "Message",
}

const freshnessColumn = 2

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	freshStyle   = cellStyle.Foreground(lipgloss.Color("#047857"))
	staleStyle   = cellStyle.Foreground(lipgloss.Color("#B45309"))
	unknownStyle = cellStyle.Faint(true)
)

// HealthRow renders one DomainHealth as table cells in header order
func HealthRow(h models.DomainHealth, loc *time.Location) []string {
	return []string{
		string(h.Domain),
		string(h.Status),
		string(h.Freshness),
		FormatAgeHours(h.AgeHours),
		FormatDisplayTime(h.AsOf, loc),
		FormatDisplayTime(h.IngestedAt, loc),
		strconv.Itoa(h.RowCount),
		h.SourceRef,
		OrPlaceholder(h.Message),
	}
}

// RenderHealthTable lays out the latest manifest per domain. Freshness cells
// are colored when the output supports it.
func RenderHealthTable(rows []models.DomainHealth, loc *time.Location) string {
	if len(rows) == 0 {
		return EmptyHealthMessage + "\n"
	}

	cells := make([][]string, len(rows))
	for i, h := range rows {
		cells[i] = HealthRow(h, loc)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(healthHeaders...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col != freshnessColumn || row < 0 || row >= len(rows) {
				return cellStyle
			}
			switch rows[row].Freshness {
			case models.FreshnessFresh:
				return freshStyle
			case models.FreshnessStale:
				return staleStyle
			default:
				return unknownStyle
			}
		})
	return t.String() + "\n"
}
