// Package main provides the CLI entrypoint for pomo.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/pomo/internal/config"
	"github.com/verte-zerg/pomo/internal/history"
	"github.com/verte-zerg/pomo/internal/lockfile"
	"github.com/verte-zerg/pomo/internal/loop"
	"github.com/verte-zerg/pomo/internal/model"
	"github.com/verte-zerg/pomo/internal/notify"
	"github.com/verte-zerg/pomo/internal/store"
	"github.com/verte-zerg/pomo/internal/timer"
	"github.com/verte-zerg/pomo/internal/tui"
)

var (
	flagWork    int
	flagBreak   int
	flagRecord  string
	flagNotify  string
	flagVerbose bool

	historySince string
	historyLast  int
	historyColor string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pomo",
		Short:         "Pomodoro timer shared across invocations",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.IntVar(&flagWork, "work", config.DefaultWorkMinutes, "work period in minutes")
	flags.IntVar(&flagBreak, "break", config.DefaultBreakMinutes, "break period in minutes")
	flags.StringVar(&flagRecord, "record", "", "timer record path (default: $XDG_DATA_HOME/pomo/timer)")
	flags.StringVar(&flagNotify, "notify", config.DefaultNotify, "notifier: dbus, command, terminal or none")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging for notify")

	rootCmd.AddCommand(newStartCmd())
	rootCmd.AddCommand(newStopCmd())
	rootCmd.AddCommand(newPauseCmd())
	rootCmd.AddCommand(newClockCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newNotifyCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newUsageCmd())

	return rootCmd
}

func resolveConfig(cmd *cobra.Command) (model.Config, error) {
	if err := config.LoadEnvFile(config.DefaultEnvPath()); err != nil {
		return model.Config{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := config.Defaults()
	config.ApplyFile(&cfg, fileCfg)
	if err := config.ApplyEnv(&cfg, os.Getenv); err != nil {
		return model.Config{}, err
	}
	applyMinutesFlag(cmd, "work", &cfg.WorkSeconds, flagWork)
	applyMinutesFlag(cmd, "break", &cfg.BreakSeconds, flagBreak)
	applyStringFlag(cmd, "record", &cfg.RecordPath, flagRecord)
	applyStringFlag(cmd, "notify", &cfg.Notify, flagNotify)
	if err := config.Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func newTimer(cmd *cobra.Command) (*timer.Timer, model.Config, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, model.Config{}, err
	}
	return timer.New(cfg, nil), cfg, nil
}

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start a fresh work period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, _, err := newTimer(cmd)
			if err != nil {
				return err
			}
			if err := tm.Start(); err != nil {
				return fmt.Errorf("failed to start timer: %w", err)
			}
			return printClock(cmd, tm)
		},
	}
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, _, err := newTimer(cmd)
			if err != nil {
				return err
			}
			if err := tm.Stop(); err != nil {
				return fmt.Errorf("failed to stop timer: %w", err)
			}
			return nil
		},
	}
}

func newPauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause",
		Short: "Pause or resume the timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, _, err := newTimer(cmd)
			if err != nil {
				return err
			}
			if _, err := tm.Toggle(); err != nil {
				return fmt.Errorf("failed to toggle pause: %w", err)
			}
			return printClock(cmd, tm)
		},
	}
}

func newClockCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clock",
		Short: "Print the current phase and time left",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tm, _, err := newTimer(cmd)
			if err != nil {
				return err
			}
			return printClock(cmd, tm)
		},
	}
}

func printClock(cmd *cobra.Command, tm *timer.Timer) error {
	status, err := tm.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to read timer: %w", err)
	}
	return printLine(cmd, timer.FormatClock(status))
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show a continuously updating clock",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	tm, _, err := newTimer(cmd)
	if err != nil {
		return err
	}
	if _, err := tm.Snapshot(); err != nil {
		return fmt.Errorf("failed to read timer: %w", err)
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		program := tea.NewProgram(tui.NewModel(tm), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run status TUI: %w", err)
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	for {
		if err := printClock(cmd, tm); err != nil {
			return err
		}
		if err := loop.Sleep(ctx, time.Second); err != nil {
			return nil
		}
	}
}

func newNotifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notify",
		Short: "Run the notification loop in the foreground",
		Args:  cobra.NoArgs,
		RunE:  runNotifyCmd,
	}
}

func runNotifyCmd(cmd *cobra.Command, _ []string) error {
	tm, cfg, err := newTimer(cmd)
	if err != nil {
		return err
	}
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	lock, err := lockfile.Acquire(cfg.RecordPath + ".lock")
	if err != nil {
		return err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			logger.Warn("failed to release lock", "error", rerr)
		}
	}()

	notifier, err := notify.New(cfg.Notify, cfg.NotifyCommand, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	l := loop.New(tm, cfg.WorkSeconds, cfg.BreakSeconds, notifier, logger)
	l.Poll = time.Duration(cfg.PollSeconds) * time.Second

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		logger.Warn("history disabled", "error", err)
	} else {
		l.Recorder = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close history", "error", cerr)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("notify loop started", "record", cfg.RecordPath, "work", cfg.WorkSeconds, "break", cfg.BreakSeconds)
	if err := l.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("notify loop stopped")
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show completed work periods per day",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N days")
	cmd.Flags().StringVar(&historyColor, "color", string(history.ColorAuto), "colour bars: auto, always or never")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	if historyLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	colorMode, err := history.ParseColorMode(historyColor)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := history.BuildReport(cmd.Context(), st, model.HistoryConfig{Since: sinceTime, Last: historyLast}, time.Local)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := history.RenderSummary(out, report.Days); err != nil {
		return err
	}
	if len(report.Days) == 0 {
		return nil
	}
	if err := history.RenderTable(out, report.Days); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return err
	}
	return history.RenderBars(out, report.Days, history.TerminalWidth(), history.ShouldUseColor(out, colorMode))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newUsageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Print usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Root().Usage()
		},
	}
}

func applyMinutesFlag(cmd *cobra.Command, name string, target *int, minutes int) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = minutes * 60
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pomo configuration
# Uncomment a value to enable it. Environment variables (POMO_*) and CLI flags
# override config values.

[timer]
# work = %d                        # Work period in minutes
# break = %d                        # Break period in minutes
# record = %q
# notify = %q                  # dbus, command, terminal or none
# notify-command = %q  # Used when notify = "command"
# poll = %d                        # Seconds between checks while stopped
`,
		config.DefaultWorkMinutes,
		config.DefaultBreakMinutes,
		config.DefaultRecordPath(),
		config.DefaultNotify,
		config.DefaultNotifyCommand,
		config.DefaultPollSeconds,
	)
}

func printLine(cmd *cobra.Command, line string) error {
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
