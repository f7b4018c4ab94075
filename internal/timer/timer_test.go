package timer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(seconds int) {
	c.now = c.now.Add(time.Duration(seconds) * time.Second)
}

func newTestTimer(t *testing.T, work, brk int) (*Timer, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cfg := model.Config{
		WorkSeconds:  work,
		BreakSeconds: brk,
		RecordPath:   filepath.Join(t.TempDir(), "pomo", "timer"),
	}
	return New(cfg, clock.Now), clock
}

func modTime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat record: %v", err)
	}
	return info.ModTime()
}

func TestStoppedTimer(t *testing.T) {
	tm, _ := newTestTimer(t, 1500, 300)
	if !tm.IsStopped() {
		t.Fatalf("expected stopped timer")
	}
	if tm.IsPaused() {
		t.Fatalf("stopped timer should not be paused")
	}
	if got := tm.Elapsed(); got != 0 {
		t.Fatalf("expected 0 elapsed, got %d", got)
	}
	if got := tm.Clock(); got != "  --:--" {
		t.Fatalf("unexpected clock %q", got)
	}
	if err := tm.Stop(); err != nil {
		t.Fatalf("stop on stopped timer: %v", err)
	}
	if err := tm.Update(); err != nil {
		t.Fatalf("update on stopped timer: %v", err)
	}
}

func TestClockFormats(t *testing.T) {
	cases := []struct {
		elapsed int
		paused  bool
		want    string
	}{
		{52, false, " W24:08"},
		{1565, false, " B03:55"},
		{52, true, "PW24:08"},
		{1565, true, "PB03:55"},
		{0, false, " W25:00"},
		{1500, false, " B05:00"},
		{1800, false, " W25:00"},
	}
	for _, tc := range cases {
		tm, clock := newTestTimer(t, 1500, 300)
		if err := tm.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		clock.Advance(tc.elapsed)
		if tc.paused {
			if _, err := tm.Toggle(); err != nil {
				t.Fatalf("pause: %v", err)
			}
		}
		if got := tm.Clock(); got != tc.want {
			t.Fatalf("elapsed %d paused %v: expected %q, got %q", tc.elapsed, tc.paused, tc.want, got)
		}
	}
}

func TestPhaseMatchesCyclePosition(t *testing.T) {
	configs := [][2]int{{1500, 300}, {3, 2}, {7, 11}}
	for _, c := range configs {
		work, brk := c[0], c[1]
		block := work + brk
		for d := 0; d < 3*block; d += 1 + block/17 {
			tm, clock := newTestTimer(t, work, brk)
			if err := tm.Start(); err != nil {
				t.Fatalf("start: %v", err)
			}
			clock.Advance(d)
			st := tm.Status()
			wantWork := d%block < work
			if (st.Phase == model.PhaseWork) != wantWork {
				t.Fatalf("work=%d break=%d d=%d: phase %v", work, brk, d, st.Phase)
			}
		}
	}
}

func TestPauseResumeRoundTrip(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(437)
	before := tm.Elapsed()

	state, err := tm.Toggle()
	if err != nil || state != model.RecordPaused {
		t.Fatalf("pause: state %v err %v", state, err)
	}
	if !tm.IsPaused() {
		t.Fatalf("expected paused record")
	}
	state, err = tm.Toggle()
	if err != nil || state != model.RecordRunning {
		t.Fatalf("resume: state %v err %v", state, err)
	}
	if got := tm.Elapsed(); got != before {
		t.Fatalf("expected elapsed %d after round trip, got %d", before, got)
	}
}

func TestPauseFreezesElapsed(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(100)
	if _, err := tm.Toggle(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(500)
	if got := tm.Elapsed(); got != 100 {
		t.Fatalf("elapsed moved while paused: %d", got)
	}
	if _, err := tm.Toggle(); err != nil {
		t.Fatalf("resume: %v", err)
	}
	clock.Advance(30)
	if got := tm.Elapsed(); got != 130 {
		t.Fatalf("expected 130 elapsed, got %d", got)
	}
}

func TestToggleFromStoppedResumesFresh(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	state, err := tm.Toggle()
	if err != nil || state != model.RecordRunning {
		t.Fatalf("toggle from stopped: state %v err %v", state, err)
	}
	clock.Advance(12)
	if got := tm.Elapsed(); got != 12 {
		t.Fatalf("expected 12 elapsed, got %d", got)
	}
}

func TestStartDiscardsPausedState(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(200)
	if _, err := tm.Toggle(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := tm.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if tm.IsPaused() {
		t.Fatalf("start should leave a running record")
	}
	if got := tm.Elapsed(); got != 0 {
		t.Fatalf("expected fresh cycle, got %d", got)
	}
}

func TestStopRemovesRecord(t *testing.T) {
	tm, _ := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := tm.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !tm.IsStopped() {
		t.Fatalf("expected stopped")
	}
	if _, err := os.Stat(tm.Path()); !os.IsNotExist(err) {
		t.Fatalf("record still present: %v", err)
	}
}

func TestUpdateNoopWithinFirstBlock(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := modTime(t, tm.Path())
	clock.Advance(1799)
	if err := tm.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if after := modTime(t, tm.Path()); !after.Equal(before) {
		t.Fatalf("record modified: %v -> %v", before, after)
	}
	if got := tm.Elapsed(); got != 1799 {
		t.Fatalf("expected 1799 elapsed, got %d", got)
	}
}

func TestUpdateShiftsByWholeBlocks(t *testing.T) {
	cases := []struct {
		elapsed int
		shift   int
	}{
		{1800, 1800},
		{1900, 1800},
		{3599, 1800},
		{3*1800 + 5, 3 * 1800},
	}
	for _, tc := range cases {
		tm, clock := newTestTimer(t, 1500, 300)
		if err := tm.Start(); err != nil {
			t.Fatalf("start: %v", err)
		}
		start := modTime(t, tm.Path())
		clock.Advance(tc.elapsed)
		rec, err := tm.Load()
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		wantClock := FormatClock(Derive(rec, clock.Now(), 1500, 300))

		if err := tm.Update(); err != nil {
			t.Fatalf("update: %v", err)
		}
		got := modTime(t, tm.Path())
		if want := start.Add(time.Duration(tc.shift) * time.Second); !got.Equal(want) {
			t.Fatalf("elapsed %d: expected start %v, got %v", tc.elapsed, want, got)
		}
		if e := tm.Elapsed(); e != tc.elapsed-tc.shift {
			t.Fatalf("elapsed %d: expected %d after realign, got %d", tc.elapsed, tc.elapsed-tc.shift, e)
		}
		if c := tm.Clock(); c != wantClock {
			t.Fatalf("elapsed %d: clock changed %q -> %q", tc.elapsed, wantClock, c)
		}
	}
}

func TestUpdateLeavesPausedRecord(t *testing.T) {
	tm, clock := newTestTimer(t, 3, 2)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(12)
	if _, err := tm.Toggle(); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if err := tm.Update(); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := tm.Elapsed(); got != 12 {
		t.Fatalf("paused elapsed changed: %d", got)
	}
}

func TestMalformedRecordFallsBackToModTime(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := os.MkdirAll(filepath.Dir(tm.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(tm.Path(), []byte("not-a-number"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	stamp := clock.Now().Add(-40 * time.Second)
	if err := os.Chtimes(tm.Path(), stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if tm.IsStopped() || tm.IsPaused() {
		t.Fatalf("malformed record should read as running")
	}
	if got := tm.Elapsed(); got != 40 {
		t.Fatalf("expected fallback elapsed 40, got %d", got)
	}
}

func TestStorageUnavailable(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tm := New(model.Config{WorkSeconds: 60, BreakSeconds: 60, RecordPath: filepath.Join(blocker, "pomo", "timer")}, nil)
	if err := tm.Start(); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected ErrStorageUnavailable, got %v", err)
	}
	if _, err := tm.Snapshot(); !errors.Is(err, ErrStorageUnavailable) {
		t.Fatalf("expected snapshot to report ErrStorageUnavailable, got %v", err)
	}
	if got := tm.Clock(); got != StoppedClock {
		t.Fatalf("unexpected clock %q", got)
	}
}

func TestSnapshotMatchesClock(t *testing.T) {
	tm, clock := newTestTimer(t, 1500, 300)
	if err := tm.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(52)
	status, err := tm.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if got := FormatClock(status); got != " W24:08" {
		t.Fatalf("unexpected clock %q", got)
	}
	if err := tm.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
	status, err = tm.Snapshot()
	if err != nil || !status.Stopped {
		t.Fatalf("expected stopped status, got %+v, %v", status, err)
	}
}

func TestPhaseAt(t *testing.T) {
	cases := []struct {
		elapsed   int
		phase     model.Phase
		remaining int
	}{
		{0, model.PhaseWork, 1500},
		{52, model.PhaseWork, 1448},
		{1499, model.PhaseWork, 1},
		{1500, model.PhaseBreak, 300},
		{1799, model.PhaseBreak, 1},
		{1800, model.PhaseWork, 1500},
		{-5, model.PhaseWork, 1500},
	}
	for _, tc := range cases {
		phase, remaining, _ := PhaseAt(tc.elapsed, 1500, 300)
		if phase != tc.phase || remaining != tc.remaining {
			t.Fatalf("elapsed %d: got %v %d, want %v %d", tc.elapsed, phase, remaining, tc.phase, tc.remaining)
		}
	}
}
