// Package model defines shared data structures.
package model

import "time"

// Config defines timer settings resolved at startup.
type Config struct {
	WorkSeconds   int
	BreakSeconds  int
	RecordPath    string
	Notify        string
	NotifyCommand string
	PollSeconds   int
}

// BlockSeconds is the length of one work+break cycle.
func (c Config) BlockSeconds() int {
	return c.WorkSeconds + c.BreakSeconds
}

// Phase identifies the part of a block the timer is in.
type Phase int

const (
	PhaseWork Phase = iota
	PhaseBreak
)

// Letter returns the single-letter clock prefix for the phase.
func (p Phase) Letter() string {
	if p == PhaseBreak {
		return "B"
	}
	return "W"
}

func (p Phase) String() string {
	if p == PhaseBreak {
		return "break"
	}
	return "work"
}

// RecordState tags which shape a timer record has.
type RecordState int

const (
	RecordAbsent RecordState = iota
	RecordRunning
	RecordPaused
)

// Record is the persisted timer state. StartedAt is meaningful only when
// Running, Elapsed only when Paused.
type Record struct {
	State     RecordState
	StartedAt time.Time
	Elapsed   int
}

// Status is a derived view of the timer at one instant.
type Status struct {
	Stopped   bool
	Paused    bool
	Phase     Phase
	Elapsed   int
	Position  int
	Remaining int
	Length    int
}

// PhaseEvent records a boundary fired by the notification loop.
type PhaseEvent struct {
	ID        int64
	EndedAt   time.Time
	Phase     Phase
	DurationS int
}

// HistoryConfig defines filters for history output.
type HistoryConfig struct {
	Since *time.Time
	Last  int
}
