// Package loop runs the long-lived boundary notification process.
//
// The loop shares nothing with other invocations except the timer record, so
// a wake-up is only a hint. After every sleep the record is read again and the
// boundary is re-validated before a notification fires.
package loop

import (
	"context"
	"log/slog"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/notify"
	"github.com/verte-zerg/pomo/internal/timer"
)

const (
	MessageWorkEnded  = "End of a work period. Time for a break!"
	MessageBreakEnded = "End of a break period. Time for work!"
)

// DefaultPoll is how long the loop waits between checks while no timer exists.
const DefaultPoll = 60 * time.Second

// slack is the largest overshoot, in seconds, for which a boundary still fires.
const slack = 1

// State is the part of the timer the loop reads.
type State interface {
	IsStopped() bool
	Update() error
	Elapsed() int
}

// Recorder stores fired boundaries.
type Recorder interface {
	InsertPhase(ctx context.Context, ev model.PhaseEvent) (int64, error)
}

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type stage int

const (
	waitingForSession stage = iota
	waitingForBoundary
)

// Loop fires one notification per phase boundary.
type Loop struct {
	State    State
	Work     int
	Break    int
	Notifier notify.Notifier
	Recorder Recorder
	Sleep    Sleeper
	Poll     time.Duration
	Now      func() time.Time
	Log      *slog.Logger
}

// New returns a Loop with real sleeping and the default poll interval.
func New(st State, work, brk int, n notify.Notifier, log *slog.Logger) *Loop {
	return &Loop{
		State:    st,
		Work:     work,
		Break:    brk,
		Notifier: n,
		Sleep:    Sleep,
		Poll:     DefaultPoll,
		Now:      time.Now,
		Log:      log,
	}
}

// Run loops until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	st := waitingForSession
	for {
		switch st {
		case waitingForSession:
			if l.State.IsStopped() {
				l.Log.Debug("no timer running", "poll", l.Poll)
				if err := l.Sleep(ctx, l.Poll); err != nil {
					return err
				}
				continue
			}
			st = waitingForBoundary

		case waitingForBoundary:
			fired, err := l.waitBoundary(ctx)
			if err != nil {
				return err
			}
			st = waitingForSession
			if !fired {
				continue
			}
			if err := l.Sleep(ctx, time.Second); err != nil {
				return err
			}
		}
	}
}

// waitBoundary sleeps until the next boundary and fires it once validated.
// It reports false without firing when the timer was stopped or the record
// could not be read, leaving the caller to poll again.
func (l *Loop) waitBoundary(ctx context.Context) (bool, error) {
	for {
		if err := l.State.Update(); err != nil {
			l.Log.Warn("failed to realign timer record", "error", err)
			return false, l.Sleep(ctx, l.Poll)
		}
		running := l.State.Elapsed()
		phase, left, _ := timer.PhaseAt(running, l.Work, l.Break)
		isWork := phase == model.PhaseWork

		l.Log.Debug("waiting for boundary", "phase", phase, "elapsed", running, "left", left)
		if err := l.Sleep(ctx, time.Duration(left)*time.Second); err != nil {
			return false, err
		}

		if l.State.IsStopped() {
			l.Log.Debug("timer stopped during wait")
			return false, nil
		}
		stat := l.State.Elapsed()
		// A reset below the baseline only counts as a boundary after a
		// break; after work it is treated like a pause and recomputed.
		passed := stat >= running+left || (!isWork && stat < running)
		if !passed {
			l.Log.Debug("boundary moved, recomputing", "elapsed", stat, "expected", running+left)
			continue
		}
		if over := stat - running - left; over > slack {
			l.Log.Debug("boundary stale, skipping", "overshoot", over)
			return true, nil
		}
		l.fire(ctx, phase)
		return true, nil
	}
}

func (l *Loop) fire(ctx context.Context, ended model.Phase) {
	msg := MessageBreakEnded
	length := l.Break
	if ended == model.PhaseWork {
		msg = MessageWorkEnded
		length = l.Work
	}
	l.Log.Info("phase ended", "phase", ended)
	if err := l.Notifier.Notify(ctx, msg); err != nil {
		l.Log.Error("failed to notify", "error", err)
	}
	if l.Recorder == nil {
		return
	}
	ev := model.PhaseEvent{EndedAt: l.Now(), Phase: ended, DurationS: length}
	if _, err := l.Recorder.InsertPhase(ctx, ev); err != nil {
		l.Log.Error("failed to record phase", "error", err)
	}
}
