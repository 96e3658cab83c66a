package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/dbaldassi/nocturna-sub000/internal/game"
	"github.com/dbaldassi/nocturna-sub000/internal/netplay"
)

const maxLogLines = 6

type eventMsg struct {
	event netplay.Event
}

type eventsClosedMsg struct{}

// Lobby is the live room view: roster, connection states, and a short
// tail of recent network events.
type Lobby struct {
	manager *netplay.Manager

	roomID   string
	playerID string

	spinner   spinner.Model
	players   []string
	connected map[string]bool
	log       []string

	start     time.Time
	peersSeen int
	updates   int
	quitting  bool
}

// NewLobby builds the lobby model for an already-joined room.
func NewLobby(manager *netplay.Manager, roomID, playerID string, participants []string) Lobby {
	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = SpinnerStyle

	return Lobby{
		manager:   manager,
		roomID:    roomID,
		playerID:  playerID,
		spinner:   sp,
		players:   append([]string(nil), participants...),
		connected: make(map[string]bool),
		start:     time.Now(),
		peersSeen: len(participants),
	}
}

func listenEvents(events <-chan netplay.Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

func (l Lobby) Init() tea.Cmd {
	return tea.Batch(l.spinner.Tick, listenEvents(l.manager.Events()))
}

func (l Lobby) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			l.quitting = true
			l.manager.Leave()
			return l, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return l, cmd

	case eventMsg:
		l.apply(msg.event)
		return l, listenEvents(l.manager.Events())

	case eventsClosedMsg:
		l.quitting = true
		return l, tea.Quit
	}

	return l, nil
}

func (l *Lobby) apply(e netplay.Event) {
	switch e := e.(type) {
	case netplay.ParticipantJoined:
		l.players = append(l.players, e.ID)
		l.peersSeen++
		l.logf("%s %s joined the room", IconPeer, e.ID)

	case netplay.ParticipantLeft:
		for i, id := range l.players {
			if id == e.ID {
				l.players = append(l.players[:i], l.players[i+1:]...)
				break
			}
		}
		delete(l.connected, e.ID)
		l.logf("%s %s left the room", IconPeer, e.ID)

	case netplay.PeerConnected:
		l.connected[e.ID] = true
		l.logf("%s data channel open to %s", IconConnect, e.ID)
		l.manager.SendUpdate(game.ActionReady, nil)

	case netplay.PeerDisconnected:
		delete(l.connected, e.ID)
		l.logf("%s data channel to %s closed", IconConnect, e.ID)

	case netplay.UpdateReceived:
		l.updates++
		l.logf("%s %s from %s", IconInfo, e.Action, e.From)

	case netplay.JoinFailed:
		l.logf("%s join failed: %s", IconError, e.Reason)
	}
}

func (l *Lobby) logf(format string, args ...any) {
	l.log = append(l.log, fmt.Sprintf(format, args...))
	if len(l.log) > maxLogLines {
		l.log = l.log[len(l.log)-maxLogLines:]
	}
}

func (l Lobby) View() string {
	if l.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s  Nocturna Lobby", IconMoon)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s Room %s  %s waiting for players %s\n\n",
		IconRoom, BoldStyle.Render(l.roomID), MutedStyle.Render("·"), l.spinner.View()))

	rows := []RosterRow{{ID: l.playerID, Local: true}}
	for _, id := range l.players {
		rows = append(rows, RosterRow{ID: id, Connected: l.connected[id]})
	}
	b.WriteString(RosterView(rows))
	b.WriteString("\n\n")

	for _, line := range l.log {
		b.WriteString(MutedStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(MutedStyle.Render("press q to leave"))
	b.WriteString("\n")

	return b.String()
}

// Summary reports what happened during the session.
func (l Lobby) Summary() SessionSummary {
	return SessionSummary{
		RoomID:          l.roomID,
		PeersSeen:       l.peersSeen,
		UpdatesReceived: l.updates,
		Duration:        fmt.Sprintf("%.1f seconds", time.Since(l.start).Seconds()),
	}
}

// RunLobby runs the lobby until the player quits or the connection
// drops, then returns the session summary.
func RunLobby(manager *netplay.Manager, roomID, playerID string, participants []string) (SessionSummary, error) {
	p := tea.NewProgram(NewLobby(manager, roomID, playerID, participants))
	final, err := p.Run()
	if err != nil {
		return SessionSummary{}, err
	}

	lobby, ok := final.(Lobby)
	if !ok {
		return SessionSummary{}, fmt.Errorf("unexpected lobby model %T", final)
	}
	return lobby.Summary(), nil
}
