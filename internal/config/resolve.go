package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/verte-zerg/pomo/internal/model"
)

const (
	DefaultWorkMinutes  = 25
	DefaultBreakMinutes = 5
	DefaultNotify       = "dbus"
	DefaultPollSeconds  = 60
)

// DefaultNotifyCommand is the command used by the "command" notifier.
const DefaultNotifyCommand = "notify-send pomo"

// Environment variables consulted after the config file.
const (
	EnvWork          = "POMO_WORK"
	EnvBreak         = "POMO_BREAK"
	EnvRecord        = "POMO_RECORD"
	EnvNotify        = "POMO_NOTIFY"
	EnvNotifyCommand = "POMO_NOTIFY_COMMAND"
	EnvPoll          = "POMO_POLL"
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Defaults returns the built-in configuration.
func Defaults() model.Config {
	return model.Config{
		WorkSeconds:   DefaultWorkMinutes * 60,
		BreakSeconds:  DefaultBreakMinutes * 60,
		RecordPath:    DefaultRecordPath(),
		Notify:        DefaultNotify,
		NotifyCommand: DefaultNotifyCommand,
		PollSeconds:   DefaultPollSeconds,
	}
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already present in the environment. Missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyFile overlays values set in the TOML file.
func ApplyFile(cfg *model.Config, file FileConfig) {
	t := file.Timer
	if t.Work != nil {
		cfg.WorkSeconds = *t.Work * 60
	}
	if t.Break != nil {
		cfg.BreakSeconds = *t.Break * 60
	}
	if t.Record != nil {
		cfg.RecordPath = *t.Record
	}
	if t.Notify != nil {
		cfg.Notify = *t.Notify
	}
	if t.NotifyCommand != nil {
		cfg.NotifyCommand = *t.NotifyCommand
	}
	if t.Poll != nil {
		cfg.PollSeconds = *t.Poll
	}
}

// ApplyEnv overlays values from environment variables. Unset or empty
// variables are ignored.
func ApplyEnv(cfg *model.Config, getenv func(string) string) error {
	var errs []error
	minutes := func(name string, target *int) {
		raw := strings.TrimSpace(getenv(name))
		if raw == "" {
			return
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			errs = append(errs, &ConfigError{Field: name, Reason: fmt.Sprintf("%q is not an integer", raw)})
			return
		}
		*target = v * 60
	}
	minutes(EnvWork, &cfg.WorkSeconds)
	minutes(EnvBreak, &cfg.BreakSeconds)

	if v := strings.TrimSpace(getenv(EnvPoll)); v != "" {
		poll, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, &ConfigError{Field: EnvPoll, Reason: fmt.Sprintf("%q is not an integer", v)})
		} else {
			cfg.PollSeconds = poll
		}
	}
	if v := strings.TrimSpace(getenv(EnvRecord)); v != "" {
		cfg.RecordPath = v
	}
	if v := strings.TrimSpace(getenv(EnvNotify)); v != "" {
		cfg.Notify = v
	}
	if v := strings.TrimSpace(getenv(EnvNotifyCommand)); v != "" {
		cfg.NotifyCommand = v
	}
	return errors.Join(errs...)
}

// Validate checks that durations are positive and paths are usable.
func Validate(cfg model.Config) error {
	if cfg.WorkSeconds <= 0 {
		return &ConfigError{Field: "work", Reason: "must be a positive number of minutes"}
	}
	if cfg.BreakSeconds <= 0 {
		return &ConfigError{Field: "break", Reason: "must be a positive number of minutes"}
	}
	if cfg.PollSeconds <= 0 {
		return &ConfigError{Field: "poll", Reason: "must be a positive number of seconds"}
	}
	if strings.TrimSpace(cfg.RecordPath) == "" {
		return &ConfigError{Field: "record", Reason: "must not be empty"}
	}
	switch cfg.Notify {
	case "dbus", "command", "terminal", "none":
	default:
		return &ConfigError{Field: "notify", Reason: fmt.Sprintf("unknown notifier %q (want dbus, command, terminal or none)", cfg.Notify)}
	}
	if cfg.Notify == "command" && strings.TrimSpace(cfg.NotifyCommand) == "" {
		return &ConfigError{Field: "notify-command", Reason: "must not be empty"}
	}
	return nil
}
