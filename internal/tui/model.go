// Package tui implements the live watch view: today's timetable for the
// selected and pinned mosques with a countdown that updates every second.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/smokyabdulrahman/jamaat-times/internal/api"
	"github.com/smokyabdulrahman/jamaat-times/internal/clock"
	"github.com/smokyabdulrahman/jamaat-times/internal/display"
	"github.com/smokyabdulrahman/jamaat-times/internal/prayer"
	"github.com/smokyabdulrahman/jamaat-times/internal/prefs"
	"github.com/smokyabdulrahman/jamaat-times/internal/timers"
)

const (
	tickInterval = time.Second
	loadTimeout  = 10 * time.Second
)

// Schedule is the view's window onto the schedule source. The view never
// writes schedule data; it reads or asks for a refresh.
type Schedule interface {
	Mosques(ctx context.Context) ([]api.Mosque, error)
	Refresh()
	Wait(ctx context.Context) error
	Day() string
	Err() error
}

// Preferences is the part of the preference store the view watches.
type Preferences interface {
	Snapshot(ctx context.Context) (prefs.Snapshot, error)
	Subscribe(fn func(prefs.Snapshot)) (cancel func())
}

// Deps are the collaborators of the watch view.
type Deps struct {
	Schedule Schedule
	Prefs    Preferences
	// Clock should read in the display timezone; see clock.In.
	Clock      clock.Clock
	TimeFormat string
	Logger     *log.Logger
}

type (
	tickMsg     time.Time
	midnightMsg struct{}
	prefsMsg    prefs.Snapshot
	loadedMsg   struct {
		mosques []api.Mosque
		day     string
		err     error
	}
)

// Model is the bubbletea model of the watch view.
type Model struct {
	deps  Deps
	sched *timers.Scheduler
	keys  KeyMap
	help  help.Model

	now      time.Time
	mosques  []api.Mosque
	day      string
	err      error
	loading  bool
	snapshot prefs.Snapshot
	cursor   int
	width    int
	quitting bool
}

// New builds the view. Timers are not armed until Start.
func New(d Deps) Model {
	if d.Clock == nil {
		d.Clock = clock.NewReal()
	}
	if d.TimeFormat == "" {
		d.TimeFormat = "15:04"
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard)
	}
	return Model{
		deps:    d,
		sched:   timers.New(d.Clock),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		now:     d.Clock.Now(),
		loading: true,
	}
}

// Start arms the 1-second tick, the midnight rollover and the preference
// subscription, delivering their events through send. The returned func
// cancels all three; after it returns no further events are sent.
func (m Model) Start(send func(tea.Msg)) (stop func()) {
	clk := m.deps.Clock
	src := m.deps.Schedule

	m.sched.Every(tickInterval, func() {
		send(tickMsg(clk.Now()))
	})
	m.sched.AtMidnight(func() {
		src.Refresh()
		send(midnightMsg{})
	})
	unsubscribe := m.deps.Prefs.Subscribe(func(s prefs.Snapshot) {
		send(prefsMsg(s))
	})

	return func() {
		unsubscribe()
		m.sched.Stop()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(false), m.loadPrefs())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		m.now = time.Time(msg)
		// The midnight timer can fire late after a suspend, so every tick
		// also checks whether the data is for today.
		if !m.loading && m.day != clock.DayKey(m.now) {
			m.loading = true
			return m, m.load(false)
		}
		return m, nil

	case midnightMsg:
		m.now = m.deps.Clock.Now()
		m.loading = true
		return m, m.load(true)

	case loadedMsg:
		m.loading = false
		if msg.mosques != nil {
			m.mosques = msg.mosques
			m.day = msg.day
		}
		if msg.err != nil && (m.err == nil || m.err.Error() != msg.err.Error()) {
			m.deps.Logger.Warn("timetable unavailable", "err", msg.err)
		}
		m.err = msg.err
		m.clampCursor()
		return m, nil

	case prefsMsg:
		m.snapshot = prefs.Snapshot(msg)
		m.clampCursor()
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.tabs())
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Next):
		if n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case key.Matches(msg, m.keys.Prev):
		if n > 0 {
			m.cursor = (m.cursor - 1 + n) % n
		}
	case key.Matches(msg, m.keys.Refresh):
		m.deps.Schedule.Refresh()
		m.loading = true
		return m, m.load(true)
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

// load reads the source on a command goroutine. With wait set it first
// waits for the fetch in flight, so a refresh shows its result.
func (m Model) load(wait bool) tea.Cmd {
	src := m.deps.Schedule
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		if wait {
			if err := src.Wait(ctx); err != nil {
				return loadedMsg{err: err}
			}
		}
		ms, err := src.Mosques(ctx)
		if err == nil {
			err = src.Err()
		}
		return loadedMsg{mosques: ms, day: src.Day(), err: err}
	}
}

func (m Model) loadPrefs() tea.Cmd {
	p := m.deps.Prefs
	logger := m.deps.Logger
	return func() tea.Msg {
		snap, err := p.Snapshot(context.Background())
		if err != nil {
			logger.Warn("failed to read preferences", "err", err)
		}
		return prefsMsg(snap)
	}
}

// tabs lists the mosques the view cycles through: the selection, then the
// pinned mosques.
func (m Model) tabs() []string {
	var ids []string
	seen := make(map[string]bool)
	for _, id := range append([]string{m.snapshot.Selected}, m.snapshot.Pinned...) {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func (m *Model) clampCursor() {
	if n := len(m.tabs()); m.cursor >= n {
		m.cursor = 0
	}
}

func (m Model) currentID() string {
	tabs := m.tabs()
	if len(tabs) == 0 {
		return ""
	}
	return tabs[m.cursor]
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	if tabs := m.tabs(); len(tabs) > 1 {
		b.WriteString(m.tabsView(tabs) + "\n\n")
	}

	id := m.currentID()
	mo := api.FindMosque(m.mosques, id)
	switch {
	case id == "":
		b.WriteString(titleStyle.Render("No mosque selected") + "\n\n")
		b.WriteString(subtleStyle.Render("Pick one with `jamaat mosques` and `jamaat select <id>`.") + "\n")
	case mo == nil && m.mosques == nil:
		b.WriteString(subtleStyle.Render("Loading timetable…") + "\n")
	case mo == nil:
		b.WriteString(warningStyle.Render(fmt.Sprintf("Mosque %s is not in today's timetable.", id)) + "\n")
	default:
		b.WriteString(m.mosqueView(mo))
	}

	if m.day != "" && m.day != clock.DayKey(m.now) {
		b.WriteString("\n" + warningStyle.Render("Showing the timetable for "+m.day+"; today's is on its way.") + "\n")
	}
	if m.err != nil {
		b.WriteString("\n" + warningStyle.Render("Could not refresh timetable: "+m.err.Error()) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))
	return docStyle.Render(b.String())
}

func (m Model) tabsView(ids []string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		label := id
		if mo := api.FindMosque(m.mosques, id); mo != nil {
			label = mo.Name
		}
		if i == m.cursor {
			parts[i] = activeTabStyle.Render(label)
		} else {
			parts[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) mosqueView(mo *api.Mosque) string {
	now := m.now
	r := prayer.Resolve(mo.PrayerTimes, now)

	var b strings.Builder
	b.WriteString(titleStyle.Render(mo.Name) + "\n")
	b.WriteString(subtleStyle.Render(prayer.FormatDate(now)+"  "+now.Format(m.deps.TimeFormat)) + "\n\n")

	tbl := display.NewTable([]string{"Prayer", "Starts", "Jamaat"})
	for i, s := range prayer.Slots(mo.PrayerTimes) {
		tbl.AddRow([]string{
			s.Name.Title(),
			prayer.DisplayTime(s.Starts, now, m.deps.TimeFormat),
			prayer.DisplayTime(s.Jamat, now, m.deps.TimeFormat),
		})
		if r != nil && r.Name == s.Name {
			if r.IsPast {
				tbl.SetRowState(i, display.RowCurrent)
			} else {
				tbl.SetRowState(i, display.RowNext)
			}
		}
	}
	b.WriteString(tbl.Render())

	if jumah := prayer.Jumah(mo.PrayerTimes); len(jumah) > 0 {
		times := make([]string, len(jumah))
		for i, c := range jumah {
			times[i] = c.On(now).Format(m.deps.TimeFormat)
		}
		b.WriteString("  " + subtleStyle.Render("Jumah "+strings.Join(times, ", ")) + "\n")
	}

	b.WriteString("\n" + lineStyle.Render(prayer.DeltaLine(r, now)) + "\n")
	return b.String()
}

// Run shows the watch view until the user quits or ctx is cancelled. The
// view's timers are stopped before Run returns.
func Run(ctx context.Context, d Deps) error {
	m := New(d)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))

	stop := m.Start(p.Send)
	defer stop()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
