// Package timer implements the pomodoro state engine over a file-backed record.
//
// The record is a single file. Blank content means the timer is running and
// the file's modification time is the instant it started. An integer means
// the timer is paused with that many seconds elapsed. No file means stopped.
package timer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

// ErrStorageUnavailable wraps failures to create, write or remove the record.
var ErrStorageUnavailable = errors.New("timer storage unavailable")

// Timer reads and mutates the timer record. It keeps no state of its own
// between calls; every query re-reads the record.
type Timer struct {
	path  string
	work  int
	brk   int
	clock func() time.Time
}

// New returns a Timer for the configured record. A nil clock uses time.Now.
func New(cfg model.Config, clock func() time.Time) *Timer {
	if clock == nil {
		clock = time.Now
	}
	return &Timer{
		path:  cfg.RecordPath,
		work:  cfg.WorkSeconds,
		brk:   cfg.BreakSeconds,
		clock: clock,
	}
}

// Path returns the record location.
func (t *Timer) Path() string {
	return t.path
}

// WorkSeconds returns the configured work period length.
func (t *Timer) WorkSeconds() int {
	return t.work
}

// BreakSeconds returns the configured break period length.
func (t *Timer) BreakSeconds() int {
	return t.brk
}

// Load decodes the record. A missing file is Absent. Content that is neither
// blank nor an integer is read as Running from the file's modification time.
func (t *Timer) Load() (model.Record, error) {
	info, err := os.Stat(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.Record{State: model.RecordAbsent}, nil
		}
		return model.Record{State: model.RecordAbsent}, fmt.Errorf("%w: stat record: %v", ErrStorageUnavailable, err)
	}
	running := model.Record{State: model.RecordRunning, StartedAt: info.ModTime().Truncate(time.Second)}
	data, err := os.ReadFile(t.path)
	if err != nil {
		return running, nil
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return running, nil
	}
	n, err := strconv.Atoi(content)
	if err != nil || n < 0 {
		return running, nil
	}
	return model.Record{State: model.RecordPaused, Elapsed: n}, nil
}

func (t *Timer) load() model.Record {
	rec, err := t.Load()
	if err != nil {
		return model.Record{State: model.RecordAbsent}
	}
	return rec
}

// Start creates a running record starting now, discarding any prior state.
func (t *Timer) Start() error {
	return t.writeRunning(t.clock())
}

// Stop removes the record. Stopping a stopped timer is a no-op.
func (t *Timer) Stop() error {
	if err := os.Remove(t.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove record: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// IsStopped reports whether no record exists.
func (t *Timer) IsStopped() bool {
	return t.load().State == model.RecordAbsent
}

// IsPaused reports whether the record holds a stored elapsed duration.
func (t *Timer) IsPaused() bool {
	return t.load().State == model.RecordPaused
}

// Elapsed returns the seconds elapsed since start, excluding paused time.
// A missing or unreadable record counts as zero.
func (t *Timer) Elapsed() int {
	return ElapsedAt(t.load(), t.clock())
}

// Toggle pauses a running timer, or resumes a paused or stopped one. The
// elapsed time is carried across to the second. It returns the new state.
func (t *Timer) Toggle() (model.RecordState, error) {
	now := t.clock()
	rec := t.load()
	running := ElapsedAt(rec, now)
	if rec.State == model.RecordRunning {
		if err := t.writePaused(running); err != nil {
			return rec.State, err
		}
		return model.RecordPaused, nil
	}
	if err := t.writeRunning(now.Add(-time.Duration(running) * time.Second)); err != nil {
		return rec.State, err
	}
	return model.RecordRunning, nil
}

// Update moves the start instant of a running record forward by whole
// blocks once at least one full block has elapsed. Phase and remaining time
// are unchanged. The record is not touched when no realignment is due.
func (t *Timer) Update() error {
	rec, err := t.Load()
	if err != nil {
		return err
	}
	if rec.State != model.RecordRunning {
		return nil
	}
	block := t.work + t.brk
	elapsed := ElapsedAt(rec, t.clock())
	if elapsed < block {
		return nil
	}
	shift := time.Duration(block*(elapsed/block)) * time.Second
	return t.touch(rec.StartedAt.Add(shift))
}

// Snapshot realigns the record and derives the current timer status. Storage
// failures are returned instead of being read as a stopped timer.
func (t *Timer) Snapshot() (model.Status, error) {
	if err := t.Update(); err != nil {
		return model.Status{Stopped: true}, err
	}
	rec, err := t.Load()
	if err != nil {
		return model.Status{Stopped: true}, err
	}
	return Derive(rec, t.clock(), t.work, t.brk), nil
}

// Status is Snapshot with storage failures read as a stopped timer.
func (t *Timer) Status() model.Status {
	s, err := t.Snapshot()
	if err != nil {
		return model.Status{Stopped: true}
	}
	return s
}

// Clock returns the formatted clock, e.g. " W24:08" or "PB03:55".
func (t *Timer) Clock() string {
	return FormatClock(t.Status())
}

func (t *Timer) ensureDir() error {
	if err := os.MkdirAll(filepath.Dir(t.path), 0o755); err != nil {
		return fmt.Errorf("%w: create record directory: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (t *Timer) writeRunning(startedAt time.Time) error {
	if err := t.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(t.path, nil, 0o644); err != nil {
		return fmt.Errorf("%w: write record: %v", ErrStorageUnavailable, err)
	}
	return t.touch(startedAt)
}

func (t *Timer) writePaused(elapsed int) error {
	if err := t.ensureDir(); err != nil {
		return err
	}
	if err := os.WriteFile(t.path, []byte(strconv.Itoa(elapsed)+"\n"), 0o644); err != nil {
		return fmt.Errorf("%w: write record: %v", ErrStorageUnavailable, err)
	}
	return nil
}

func (t *Timer) touch(startedAt time.Time) error {
	startedAt = startedAt.Truncate(time.Second)
	if err := os.Chtimes(t.path, startedAt, startedAt); err != nil {
		return fmt.Errorf("%w: set record time: %v", ErrStorageUnavailable, err)
	}
	return nil
}
