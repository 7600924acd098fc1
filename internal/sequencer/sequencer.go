// Package sequencer implements the trial state machine:
//
//	Fixation -> Stimulus -> (Feedback if practice) -> [Break] -> Fixation | Done
//
// The sequencer is pure state: timers and key events are delivered by the
// caller (the terminal UI), so every transition is synchronous and testable.
package sequencer

import (
	"errors"
	"fmt"
	"time"

	"github.com/perceptlab/facetrial/internal/manifest"
	"github.com/perceptlab/facetrial/internal/results"
	"github.com/perceptlab/facetrial/internal/session"
)

// State names one node of the trial state machine.
type State int

const (
	StateFixation State = iota
	StateStimulus
	StateFeedback
	StateBreak
	StateDone
)

func (s State) String() string {
	switch s {
	case StateFixation:
		return "fixation"
	case StateStimulus:
		return "stimulus"
	case StateFeedback:
		return "feedback"
	case StateBreak:
		return "break"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Sequencer walks one participant through the manifest. It owns the
// append-only result buffer; execution is strictly sequential, so no locking
// is needed.
type Sequencer struct {
	trials        []manifest.Stimulus
	mapping       session.KeyMap
	breakInterval int

	state       State
	idx         int
	completed   int
	lastCorrect bool
	buf         []results.Trial
}

// New builds a sequencer positioned at the fixation of the first trial.
func New(trials []manifest.Stimulus, mapping session.KeyMap, breakInterval int) (*Sequencer, error) {
	if len(trials) == 0 {
		return nil, errors.New("no trials to run")
	}
	if breakInterval < 1 {
		return nil, fmt.Errorf("break interval must be >= 1, got %d", breakInterval)
	}
	return &Sequencer{
		trials:        trials,
		mapping:       mapping,
		breakInterval: breakInterval,
		state:         StateFixation,
	}, nil
}

// State returns the current state.
func (s *Sequencer) State() State {
	return s.state
}

// Current returns the stimulus of the trial in progress. The second return is
// false in the terminal state.
func (s *Sequencer) Current() (manifest.Stimulus, bool) {
	if s.idx >= len(s.trials) {
		return manifest.Stimulus{}, false
	}
	return s.trials[s.idx], true
}

// Progress reports completed and total trial counts.
func (s *Sequencer) Progress() (completed, total int) {
	return s.completed, len(s.trials)
}

// LastCorrect reports whether the most recent response was correct. Only
// meaningful while feedback is showing.
func (s *Sequencer) LastCorrect() bool {
	return s.lastCorrect
}

// Results returns the accumulated trial records in presentation order.
func (s *Sequencer) Results() []results.Trial {
	return s.buf
}

// FixationDone advances past the fixation cross. Calls in any other state are
// ignored, which makes stale timers harmless.
func (s *Sequencer) FixationDone() State {
	if s.state == StateFixation {
		s.state = StateStimulus
	}
	return s.state
}

// Respond handles a key press during stimulus presentation. Unrecognized
// keys are ignored and leave the machine where it is; a recognized key
// completes the trial, appends its record, and advances the machine. The
// boolean reports whether the press was consumed.
func (s *Sequencer) Respond(key string, rt time.Duration) (results.Trial, bool) {
	if s.state != StateStimulus {
		return results.Trial{}, false
	}
	label, ok := s.mapping.Label(key)
	if !ok {
		return results.Trial{}, false
	}
	if rt < 0 {
		rt = 0
	}

	stim := s.trials[s.idx]
	trial := results.Trial{
		Stimulus:      stim.Image,
		Source:        stim.Source,
		Response:      key,
		ResponseLabel: label,
		Correct:       label == stim.Source,
		RT:            rt.Milliseconds(),
		Version:       s.mapping.Version,
		Task:          stim.Task,
	}
	s.buf = append(s.buf, trial)
	s.lastCorrect = trial.Correct

	if stim.Task == manifest.TaskPractice {
		s.state = StateFeedback
	} else {
		s.afterTrial()
	}
	return trial, true
}

// FeedbackDone advances past the feedback screen. Ignored outside feedback.
func (s *Sequencer) FeedbackDone() State {
	if s.state == StateFeedback {
		s.afterTrial()
	}
	return s.state
}

// Resume continues after a break screen. Ignored outside a break.
func (s *Sequencer) Resume() State {
	if s.state == StateBreak {
		s.state = StateFixation
	}
	return s.state
}

// afterTrial closes out the completed trial and decides what comes next. A
// break is inserted after every breakInterval-th completed trial, but never
// between the parts of a single trial and never after the final one.
func (s *Sequencer) afterTrial() {
	s.completed++
	s.idx++
	switch {
	case s.idx >= len(s.trials):
		s.state = StateDone
	case s.completed%s.breakInterval == 0:
		s.state = StateBreak
	default:
		s.state = StateFixation
	}
}
