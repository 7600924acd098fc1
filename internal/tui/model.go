// Package tui is the interactive trial runner: a bubbletea program whose
// single-threaded event loop drives the sequencer with explicit timer and
// key events.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/perceptlab/facetrial/internal/results"
	"github.com/perceptlab/facetrial/internal/sequencer"
	"github.com/perceptlab/facetrial/internal/session"
	"github.com/perceptlab/facetrial/internal/viewer"
)

// ExportFunc receives the finished, ordered trial sequence when the terminal
// state is reached and returns the path results were written to.
type ExportFunc func([]results.Trial) (string, error)

// tickMsg carries the timer generation it was scheduled for, so a timer that
// outlived its state can never fire a transition.
type tickMsg struct {
	gen int
}

// Model wraps the sequencer for bubbletea. All mutation happens inside
// Update; the sequencer itself never sees the terminal.
type Model struct {
	seq     *sequencer.Sequencer
	cfg     *session.Config
	mapping session.KeyMap
	styles  Styles
	prog    progress.Model
	view    *viewer.Viewer
	log     *zap.Logger
	export  ExportFunc

	onset    time.Time
	gen      int
	width    int
	height   int
	aborted  bool
	exported bool

	exportPath string
	exportErr  error
}

// New builds the runner model. log must be non-nil (use zap.NewNop to
// discard); view and export may be nil.
func New(seq *sequencer.Sequencer, cfg *session.Config, mapping session.KeyMap, view *viewer.Viewer, log *zap.Logger, export ExportFunc) Model {
	return Model{
		seq:     seq,
		cfg:     cfg,
		mapping: mapping,
		styles:  DefaultStyles(),
		prog:    progress.New(progress.WithDefaultGradient()),
		view:    view,
		log:     log,
		export:  export,
	}
}

// Aborted reports whether the participant quit before the final trial.
func (m Model) Aborted() bool {
	return m.aborted
}

// ExportedTo returns the results path written at completion, if any.
func (m Model) ExportedTo() (string, error) {
	return m.exportPath, m.exportErr
}

func (m Model) Init() tea.Cmd {
	m.log.Info("session started",
		zap.Int("version", m.mapping.Version),
		zap.String("left_key", m.mapping.Left),
		zap.String("right_key", m.mapping.Right),
	)
	return tick(m.cfg.Fixation.Std(), m.gen)
}

func tick(d time.Duration, gen int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return tickMsg{gen: gen}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.prog.Width = min(msg.Width-10, 50)
		return m, nil

	case tickMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		switch m.seq.State() {
		case sequencer.StateFixation:
			m.seq.FixationDone()
			return m.enterStimulus()
		case sequencer.StateFeedback:
			m.seq.FeedbackDone()
			return m.afterTrial()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
			return m.abort()
		}
		return m.handleKey(keyName(msg))
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch m.seq.State() {
	case sequencer.StateStimulus:
		trial, ok := m.seq.Respond(key, time.Since(m.onset))
		if !ok {
			// Unrecognized keys do not transition.
			return m, nil
		}
		m.log.Info("trial completed",
			zap.String("stimulus", trial.Stimulus),
			zap.String("response", trial.Response),
			zap.Bool("correct", trial.Correct),
			zap.Int64("rt_ms", trial.RT),
		)
		if m.seq.State() == sequencer.StateFeedback {
			m.gen++
			return m, tick(m.cfg.Feedback.Std(), m.gen)
		}
		return m.afterTrial()

	case sequencer.StateBreak:
		if key != m.cfg.ContinueKey {
			return m, nil
		}
		m.seq.Resume()
		m.log.Info("break ended")
		return m.startFixation()

	case sequencer.StateDone:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) enterStimulus() (tea.Model, tea.Cmd) {
	m.onset = time.Now()
	stim, ok := m.seq.Current()
	if !ok || m.view == nil {
		return m, nil
	}
	view, log, image := m.view, m.log, stim.Image
	return m, func() tea.Msg {
		if err := view.Show(image); err != nil {
			log.Warn("viewer failed", zap.String("image", image), zap.Error(err))
		}
		return nil
	}
}

func (m Model) afterTrial() (tea.Model, tea.Cmd) {
	switch m.seq.State() {
	case sequencer.StateFixation:
		return m.startFixation()
	case sequencer.StateBreak:
		completed, total := m.seq.Progress()
		m.log.Info("break started", zap.Int("completed", completed), zap.Int("total", total))
		return m, nil
	case sequencer.StateDone:
		return m.finish()
	}
	return m, nil
}

func (m Model) startFixation() (tea.Model, tea.Cmd) {
	m.gen++
	return m, tick(m.cfg.Fixation.Std(), m.gen)
}

// finish exports the complete result sequence exactly once and leaves the
// end screen up until a key is pressed.
func (m Model) finish() (tea.Model, tea.Cmd) {
	if m.exported {
		return m, nil
	}
	m.exported = true
	if m.export != nil {
		m.exportPath, m.exportErr = m.export(m.seq.Results())
	}
	completed, _ := m.seq.Progress()
	if m.exportErr != nil {
		m.log.Error("export failed", zap.Error(m.exportErr))
	} else {
		m.log.Info("session complete", zap.Int("trials", completed), zap.String("results", m.exportPath))
	}
	return m, nil
}

func (m Model) abort() (tea.Model, tea.Cmd) {
	if m.seq.State() != sequencer.StateDone {
		m.aborted = true
		completed, total := m.seq.Progress()
		m.log.Warn("session aborted", zap.Int("completed", completed), zap.Int("total", total))
	}
	return m, tea.Quit
}

func keyName(msg tea.KeyMsg) string {
	switch msg.Type {
	case tea.KeySpace:
		return "space"
	case tea.KeyEnter:
		return "enter"
	}
	if s := msg.String(); s != " " {
		return s
	}
	return "space"
}

func (m Model) View() string {
	var body string
	switch m.seq.State() {
	case sequencer.StateFixation:
		body = m.styles.Fixation.Render("+")
	case sequencer.StateStimulus:
		body = m.stimulusView()
	case sequencer.StateFeedback:
		if m.seq.LastCorrect() {
			body = m.styles.Good.Render("Correct!")
		} else {
			body = m.styles.Bad.Render("Incorrect")
		}
	case sequencer.StateBreak:
		body = m.breakView()
	case sequencer.StateDone:
		body = m.doneView()
	}
	if m.width <= 0 || m.height <= 0 {
		return body
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m Model) stimulusView() string {
	stim, ok := m.seq.Current()
	if !ok {
		return ""
	}
	hints := fmt.Sprintf("%s = %s        %s = %s",
		m.mapping.Left, m.mapping.LeftLabel,
		m.mapping.Right, m.mapping.RightLabel)
	return lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Stimulus.Render(stim.Image),
		"",
		m.styles.Hint.Render(hints),
	)
}

func (m Model) breakView() string {
	completed, total := m.seq.Progress()
	frac := float64(completed) / float64(total)
	return lipgloss.JoinVertical(lipgloss.Center,
		m.styles.Title.Render("Take a short break"),
		"",
		fmt.Sprintf("%d of %d trials complete", completed, total),
		m.prog.ViewAs(frac),
		"",
		m.styles.Dim.Render(fmt.Sprintf("Press %s to continue", m.cfg.ContinueKey)),
	)
}

func (m Model) doneView() string {
	completed, _ := m.seq.Progress()
	lines := []string{
		m.styles.Title.Render("Session complete"),
		"",
		fmt.Sprintf("%d trials recorded", completed),
	}
	if m.exportErr != nil {
		lines = append(lines, m.styles.Bad.Render("Export failed: "+m.exportErr.Error()))
	} else if m.exportPath != "" {
		lines = append(lines, "Results written to "+m.exportPath)
	}
	lines = append(lines, "", m.styles.Dim.Render("Press any key to exit"))
	return lipgloss.JoinVertical(lipgloss.Center, lines...)
}
