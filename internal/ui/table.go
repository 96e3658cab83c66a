package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// RosterRow is one player in the roster table.
type RosterRow struct {
	ID        string
	Connected bool
	Local     bool
}

// RosterView renders the current room roster.
func RosterView(rows []RosterRow) string {
	if len(rows) == 0 {
		return MutedStyle.Render("No players yet")
	}

	var body [][]string
	for _, r := range rows {
		status := MutedStyle.Render("signaling")
		switch {
		case r.Local:
			status = BoldStyle.Render("you")
		case r.Connected:
			status = SuccessStyle.Render("connected")
		}
		body = append(body, []string{r.ID, status})
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Player", "Status").
		Rows(body...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// SessionSummary reports what happened during a lobby session.
type SessionSummary struct {
	RoomID          string
	PeersSeen       int
	UpdatesReceived int
	Duration        string
}

// SessionSummaryView renders the end-of-session table.
func SessionSummaryView(summary SessionSummary) string {
	rows := [][]string{
		{"Room", summary.RoomID},
		{"Peers seen", fmt.Sprintf("%d", summary.PeersSeen)},
		{"Updates received", fmt.Sprintf("%d", summary.UpdatesReceived)},
		{"Duration", summary.Duration},
	}

	tbl := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers("Metric", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		})

	return tbl.Render()
}

// RenderSessionSummary outputs the summary directly to stdout.
func RenderSessionSummary(summary SessionSummary) {
	fmt.Println(SessionSummaryView(summary))
}

// RenderRoomInfo prints the shareable room box after hosting.
func RenderRoomInfo(roomID string) {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(Success).
		Padding(1, 2)

	content := fmt.Sprintf("%s Room Created!\n\n%s Room ID:  %s\n\nShare this id with up to three other players.",
		IconSuccess,
		IconCopy, BoldStyle.Foreground(Primary).Render(roomID),
	)

	fmt.Println(boxStyle.Render(content))
}
