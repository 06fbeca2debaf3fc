package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/faultline-io/faultline/pkg/client"
	"github.com/faultline-io/faultline/pkg/runner"
	"github.com/faultline-io/faultline/pkg/scenario"
	"github.com/faultline-io/faultline/pkg/timeline"
)

// Config
const (
	pollRate = time.Second
	// cellsPerSecond is the timeline zoom: one terminal cell per two
	// seconds by default.
	cellsPerSecond = 0.5
	// nudgeCells is how many cells one arrow-key press drags.
	nudgeCells = 1.0
)

// Styles
var (
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	laneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)

	stepStyles = map[scenario.StepStatus]lipgloss.Style{
		scenario.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		scenario.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		scenario.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		scenario.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true).Underline(true)
	draftStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
)

type mode int

const (
	modeBrowse mode = iota
	modeMove
	modeResize
	modeRunning
)

type tickMsg time.Time

type scenariosMsg struct {
	scenarios []*scenario.Scenario
	err       error
}

type runStartedMsg struct {
	runID string
	err   error
}

type runSnapshotMsg struct {
	snap *runner.Snapshot
	err  error
}

type savedMsg struct {
	err error
}

type model struct {
	api     *client.Client
	spinner spinner.Model
	scale   timeline.Scale
	gesture *timeline.Controller

	scenarios []*scenario.Scenario
	selected  int // scenario index
	stepIdx   int // step index within the selected scenario

	mode       mode
	resizeEdge timeline.Edge
	dragCells  float64 // accumulated drag in cells for the active gesture

	runID    string
	runSnap  *runner.Snapshot
	status   string
	err      error
	ready    bool
	quitting bool
}

func initialModel(api *client.Client) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return model{
		api:     api,
		spinner: s,
		scale:   timeline.Scale{PixelsPerSecond: cellsPerSecond},
		gesture: timeline.NewController(0),
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchScenarios(m.api), tick())
}

func (m model) current() *scenario.Scenario {
	if m.selected < 0 || m.selected >= len(m.scenarios) {
		return nil
	}
	return m.scenarios[m.selected]
}

func (m model) currentStep() *scenario.Step {
	sc := m.current()
	if sc == nil || m.stepIdx < 0 || m.stepIdx >= len(sc.Steps) {
		return nil
	}
	return &sc.Steps[m.stepIdx]
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tickMsg:
		if m.mode == modeRunning && m.runID != "" {
			cmds = append(cmds, fetchRun(m.api, m.runID))
		}
		cmds = append(cmds, tick())

	case scenariosMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.scenarios = msg.scenarios
			if m.selected >= len(m.scenarios) {
				m.selected = 0
			}
		}
		m.ready = true

	case runStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.mode = modeBrowse
		} else {
			m.runID = msg.runID
			m.runSnap = nil
			m.status = fmt.Sprintf("run %s started", msg.runID)
			cmds = append(cmds, fetchRun(m.api, msg.runID))
		}

	case runSnapshotMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.runSnap = msg.snap
			if msg.snap.State.Terminal() {
				m.mode = modeBrowse
				m.status = fmt.Sprintf("run finished: %s", msg.snap.State)
			}
		}

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "scenario saved"
		}
	}

	return m, tea.Batch(cmds...)
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "q" || key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case modeMove, modeResize:
		return m.handleGestureKey(key)
	case modeRunning:
		if key == "x" {
			return m, stopRun(m.api, m.runID)
		}
		return m, nil
	}

	// Browse mode
	sc := m.current()
	switch key {
	case "left", "h":
		if m.selected > 0 {
			m.selected--
			m.stepIdx = 0
		}
	case "right", "l":
		if m.selected < len(m.scenarios)-1 {
			m.selected++
			m.stepIdx = 0
		}
	case "tab", "down", "j":
		if sc != nil && len(sc.Steps) > 0 {
			m.stepIdx = (m.stepIdx + 1) % len(sc.Steps)
		}
	case "shift+tab", "up", "k":
		if sc != nil && len(sc.Steps) > 0 {
			m.stepIdx = (m.stepIdx + len(sc.Steps) - 1) % len(sc.Steps)
		}
	case "m":
		if st := m.currentStep(); st != nil {
			m.gesture.SetLaneCap(sc.TotalDuration)
			if err := m.gesture.BeginMove(*st); err == nil {
				m.mode = modeMove
				m.dragCells = 0
				m.status = "moving: arrows drag, enter commits, esc cancels"
			}
		}
	case "e":
		if st := m.currentStep(); st != nil {
			m.gesture.SetLaneCap(sc.TotalDuration)
			if err := m.gesture.BeginResize(*st, timeline.EdgeEnd); err == nil {
				m.mode = modeResize
				m.resizeEdge = timeline.EdgeEnd
				m.dragCells = 0
				m.status = "resizing end edge"
			}
		}
	case "b":
		if st := m.currentStep(); st != nil {
			m.gesture.SetLaneCap(sc.TotalDuration)
			if err := m.gesture.BeginResize(*st, timeline.EdgeStart); err == nil {
				m.mode = modeResize
				m.resizeEdge = timeline.EdgeStart
				m.dragCells = 0
				m.status = "resizing start edge"
			}
		}
	case "s":
		if sc != nil {
			return m, saveScenario(m.api, sc)
		}
	case "r":
		if sc != nil {
			m.mode = modeRunning
			m.status = "starting run..."
			return m, startRun(m.api, sc.ID)
		}
	case "g":
		return m, fetchScenarios(m.api)
	}
	return m, nil
}

// handleGestureKey feeds arrow presses into the active gesture. Arrow keys
// stand in for pointer motion: each press is a fixed pixel delta that the
// Scale converts to seconds before it reaches the controller.
func (m model) handleGestureKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "left":
		m.dragCells -= nudgeCells
	case "right":
		m.dragCells += nudgeCells
	case "enter":
		st, err := m.gesture.Commit()
		if err == nil {
			if cur := m.currentStep(); cur != nil && cur.ID == st.ID {
				*cur = st
			}
		}
		m.mode = modeBrowse
		m.status = "gesture committed (unsaved)"
		return m, nil
	case "esc":
		m.gesture.Cancel()
		m.mode = modeBrowse
		m.status = "gesture cancelled"
		return m, nil
	default:
		return m, nil
	}

	deltaSeconds := m.scale.Seconds(m.dragCells)
	if m.mode == modeMove {
		m.gesture.UpdateMove(deltaSeconds)
	} else {
		m.gesture.UpdateResize(deltaSeconds)
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return fmt.Sprintf("\n%s Connecting to faultline-d...", m.spinner.View())
	}

	var sb strings.Builder
	sb.WriteString(titleStyle.Render("faultline · chaos scenario timeline"))
	sb.WriteString("\n\n")

	if len(m.scenarios) == 0 {
		sb.WriteString(subtleStyle.Render("No scenarios stored. Create one via the API or seed presets."))
		sb.WriteString("\n")
	} else {
		sc := m.current()
		sb.WriteString(fmt.Sprintf("Scenario %d/%d: %s  %s\n\n",
			m.selected+1, len(m.scenarios),
			titleStyle.Render(sc.Name),
			subtleStyle.Render(fmt.Sprintf("(%gs total)", sc.TotalDuration))))
		sb.WriteString(m.renderTimeline(sc))
		sb.WriteString("\n")
		sb.WriteString(m.renderSteps(sc))
	}

	// Status footer
	var status string
	switch {
	case m.err != nil:
		status = errorStyle.Render(fmt.Sprintf("Error: %v", m.err))
	case m.mode == modeRunning && m.runSnap != nil:
		status = okStyle.Render(fmt.Sprintf("%s run %s: step %d/%d",
			m.spinner.View(), m.runID, m.runSnap.CurrentStep+1, len(m.runSnap.Steps)))
	case m.status != "":
		status = okStyle.Render(m.status)
	default:
		status = subtleStyle.Render("ready")
	}
	help := "h/l scenario • j/k step • m move • e/b resize • enter commit • s save • r run • x stop • q quit"
	sb.WriteString(fmt.Sprintf("\n%s\n%s\n", status, subtleStyle.Render(help)))

	return sb.String()
}

// renderTimeline draws every lane of the scenario as stacked rows of step
// bars, using the layout engine for row packing and the Scale for
// seconds-to-cells conversion.
func (m model) renderTimeline(sc *scenario.Scenario) string {
	steps := m.displaySteps(sc)
	layouts := timeline.ComputeLanes(steps)

	lanes := make([]string, 0, len(layouts))
	for lane := range layouts {
		lanes = append(lanes, lane)
	}
	sort.Strings(lanes)

	width := int(m.scale.Pixels(sc.TotalDuration)) + 1
	if width < 10 {
		width = 10
	}

	var sb strings.Builder
	for _, lane := range lanes {
		l := layouts[lane]
		name := lane
		if name == "" {
			name = "(control)"
		}
		sb.WriteString(laneStyle.Render(name))
		sb.WriteString("\n")

		rows := make([][]rune, l.Rows)
		for r := range rows {
			rows[r] = []rune(strings.Repeat("·", width))
		}
		rowSteps := make([]map[int]scenario.Step, l.Rows)

		for _, st := range steps {
			if st.LaneID != lane {
				continue
			}
			r, ok := l.RowOf[st.ID]
			if !ok {
				continue
			}
			from := int(m.scale.Pixels(st.StartAt))
			to := int(m.scale.Pixels(st.StartAt + st.Duration))
			if to <= from {
				to = from + 1
			}
			for c := from; c < to && c < width; c++ {
				rows[r][c] = '█'
			}
			if rowSteps[r] == nil {
				rowSteps[r] = make(map[int]scenario.Step)
			}
			rowSteps[r][from] = st
		}

		for r := range rows {
			sb.WriteString("  " + m.colorizeRow(string(rows[r]), rowSteps[r]) + "\n")
		}
	}
	return sb.String()
}

// colorizeRow is a coarse pass: when a row contains exactly one step, the
// whole row takes that step's style. Mixed rows render unstyled, which
// keeps the renderer trivial at the cost of some color fidelity.
func (m model) colorizeRow(row string, steps map[int]scenario.Step) string {
	if len(steps) != 1 {
		return row
	}
	for _, st := range steps {
		return m.styleFor(st).Render(row)
	}
	return row
}

func (m model) styleFor(st scenario.Step) lipgloss.Style {
	if draft, ok := m.gesture.Draft(); ok && draft.ID == st.ID {
		return draftStyle
	}
	if cur := m.currentStep(); cur != nil && cur.ID == st.ID && m.mode == modeBrowse {
		return selectedStyle
	}
	if style, ok := stepStyles[m.statusOf(st)]; ok {
		return style
	}
	return stepStyles[scenario.StatusPending]
}

// displaySteps substitutes the gesture draft for its authoritative step so
// the timeline tracks the drag live.
func (m model) displaySteps(sc *scenario.Scenario) []scenario.Step {
	steps := make([]scenario.Step, len(sc.Steps))
	copy(steps, sc.Steps)
	if draft, ok := m.gesture.Draft(); ok {
		for i := range steps {
			if steps[i].ID == draft.ID {
				steps[i] = draft
			}
		}
	}
	return steps
}

// statusOf resolves a step's live status from the current run snapshot.
func (m model) statusOf(st scenario.Step) scenario.StepStatus {
	if m.runSnap == nil {
		return scenario.StatusPending
	}
	for _, sr := range m.runSnap.Steps {
		if sr.StepID == st.ID {
			return sr.Status
		}
	}
	return scenario.StatusPending
}

func (m model) renderSteps(sc *scenario.Scenario) string {
	var sb strings.Builder
	for i, st := range sc.Steps {
		cursor := "  "
		if i == m.stepIdx {
			cursor = "> "
		}
		desc := string(st.Type)
		if st.Type == scenario.StepChaosAction {
			desc = fmt.Sprintf("%s %s on %s", st.Type, st.Params.String("type"), st.LaneID)
		}
		line := fmt.Sprintf("%s%-40s start=%-6g dur=%-6g", cursor, desc, st.StartAt, st.Duration)
		style := stepStyles[m.statusOf(st)]
		if i == m.stepIdx && m.mode == modeBrowse {
			style = selectedStyle
		}
		sb.WriteString(style.Render(line))
		if status := m.statusOf(st); status != scenario.StatusPending {
			sb.WriteString(" " + subtleStyle.Render(string(status)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Commands

func fetchScenarios(api *client.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		scs, err := api.ListScenarios(ctx)
		return scenariosMsg{scenarios: scs, err: err}
	}
}

func startRun(api *client.Client, scenarioID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		runID, err := api.StartRun(ctx, scenarioID)
		return runStartedMsg{runID: runID, err: err}
	}
}

func stopRun(api *client.Client, runID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err := api.StopRun(ctx, runID)
		return savedMsg{err: err}
	}
}

func fetchRun(api *client.Client, runID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		snap, err := api.GetRun(ctx, runID)
		return runSnapshotMsg{snap: snap, err: err}
	}
}

func saveScenario(api *client.Client, sc *scenario.Scenario) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err := api.UpdateScenario(ctx, sc)
		return savedMsg{err: err}
	}
}

func tick() tea.Cmd {
	return tea.Tick(pollRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func main() {
	endpoint := os.Getenv("FAULTLINE_API_URL")
	p := tea.NewProgram(initialModel(client.NewClient(endpoint)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Alas, there's been an error: %v", err)
		os.Exit(1)
	}
}
