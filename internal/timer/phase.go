package timer

import (
	"fmt"
	"time"

	"github.com/verte-zerg/pomo/internal/model"
)

// StoppedClock is the clock display used when no timer is running.
const StoppedClock = "  --:--"

// PhaseAt maps elapsed seconds onto the work/break cycle. It returns the
// current phase, the seconds left until the next boundary, and the position
// within the block.
func PhaseAt(elapsed, work, brk int) (model.Phase, int, int) {
	if elapsed < 0 {
		elapsed = 0
	}
	block := work + brk
	pos := elapsed % block
	if pos < work {
		return model.PhaseWork, work - pos, pos
	}
	return model.PhaseBreak, block - pos, pos
}

// ElapsedAt returns the elapsed seconds a record represents at now.
func ElapsedAt(rec model.Record, now time.Time) int {
	switch rec.State {
	case model.RecordPaused:
		return rec.Elapsed
	case model.RecordRunning:
		e := now.Unix() - rec.StartedAt.Unix()
		if e < 0 {
			return 0
		}
		return int(e)
	default:
		return 0
	}
}

// Derive computes the timer status for a record at now.
func Derive(rec model.Record, now time.Time, work, brk int) model.Status {
	if rec.State == model.RecordAbsent {
		return model.Status{Stopped: true}
	}
	elapsed := ElapsedAt(rec, now)
	phase, remaining, pos := PhaseAt(elapsed, work, brk)
	length := work
	if phase == model.PhaseBreak {
		length = brk
	}
	return model.Status{
		Paused:    rec.State == model.RecordPaused,
		Phase:     phase,
		Elapsed:   elapsed,
		Position:  pos,
		Remaining: remaining,
		Length:    length,
	}
}

// FormatClock renders a status as a two-character prefix and MM:SS.
func FormatClock(s model.Status) string {
	if s.Stopped {
		return StoppedClock
	}
	prefix := " "
	if s.Paused {
		prefix = "P"
	}
	return fmt.Sprintf("%s%s%02d:%02d", prefix, s.Phase.Letter(), s.Remaining/60, s.Remaining%60)
}
