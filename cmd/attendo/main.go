// Package main provides the CLI entrypoint for attendo.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/attendo/internal/attendance"
	"github.com/verte-zerg/attendo/internal/config"
	"github.com/verte-zerg/attendo/internal/model"
	"github.com/verte-zerg/attendo/internal/redisstore"
	"github.com/verte-zerg/attendo/internal/report"
	"github.com/verte-zerg/attendo/internal/store"
	"github.com/verte-zerg/attendo/internal/tui"
)

var (
	globalBackend   string
	globalDBPath    string
	globalLogLevel  string
	globalEphemeral bool

	recordStatus  string
	recordClasses float64
	recordTotal   float64

	predictValue   float64
	predictUnit    string
	predictStatus  string
	previewStatus  string
	previewClasses float64
	previewTotal   float64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "attendo",
		Short:         "Attendance tracker and predictor",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runInteractiveCmd,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&globalBackend, "backend", config.BackendSQLite, "storage backend: sqlite, redis or memory")
	flags.StringVar(&globalDBPath, "db-path", "", "SQLite database path")
	flags.StringVar(&globalLogLevel, "log-level", "", "log level: debug, info, warn or error")
	flags.BoolVar(&globalEphemeral, "ephemeral", false, "keep state in memory only")

	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRecordCmd())
	rootCmd.AddCommand(newPredictCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newResetCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// sessionReporter is implemented by gateways whose counters expire.
type sessionReporter interface {
	Session(ctx context.Context) (model.SessionInfo, bool, error)
}

type app struct {
	engine *attendance.Engine
	gw     attendance.Gateway
	log    *slog.Logger
	close  func() error
}

func (a *app) Close() {
	if a.close == nil {
		return
	}
	if err := a.close(); err != nil {
		a.log.Warn("failed to close storage", "err", err)
	}
}

func resolveRuntime(cmd *cobra.Command) (config.Runtime, error) {
	rt, err := config.Load(config.DefaultConfigPath())
	if err != nil {
		return config.Runtime{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringFlag(cmd, "backend", &rt.Backend, globalBackend)
	applyStringFlag(cmd, "db-path", &rt.DBPath, globalDBPath)
	applyStringFlag(cmd, "log-level", &rt.LogLevel, globalLogLevel)
	if globalEphemeral {
		rt.Backend = config.BackendMemory
	}
	if err := rt.Validate(); err != nil {
		return config.Runtime{}, err
	}
	return rt, nil
}

func openApp(cmd *cobra.Command, logOut io.Writer) (*app, error) {
	rt, err := resolveRuntime(cmd)
	if err != nil {
		return nil, err
	}
	log := setupLogger(rt, logOut)
	ctx := cmd.Context()

	a := &app{log: log}
	switch rt.Backend {
	case config.BackendMemory:
		a.gw = attendance.NewMemoryGateway()
	case config.BackendRedis:
		cfg := redisstore.DefaultConfig()
		cfg.Addr = rt.Redis.Addr
		cfg.Password = rt.Redis.Password
		cfg.DB = rt.Redis.DB
		cfg.Prefix = rt.Redis.Prefix
		cfg.SessionTTL = rt.SessionTTL
		gw, err := redisstore.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis: %w", err)
		}
		a.gw = gw
		a.close = gw.Close
	default:
		st, err := store.Open(rt.DBPath, rt.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		a.gw = st
		a.close = st.Close
	}
	log.Debug("storage opened", "backend", rt.Backend)
	a.engine = attendance.New(ctx, a.gw, attendance.WithLogger(log))
	return a, nil
}

func setupLogger(rt config.Runtime, out io.Writer) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLevel(rt.LogLevel),
	}

	if rt.LogFormat == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func runInteractiveCmd(cmd *cobra.Command, _ []string) error {
	logPath := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "attendo")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	a, err := openApp(cmd, logFile)
	if err != nil {
		return err
	}
	defer a.Close()

	program := tea.NewProgram(tui.NewModel(a.engine), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current attendance",
		Args:  cobra.NoArgs,
		RunE:  runStatusCmd,
	}
}

func runStatusCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	opts := report.Options{Color: report.ShouldUseColor(out), Width: report.TerminalWidth()}
	if err := report.RenderSnapshot(out, a.engine.Snapshot(), opts); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if warn := a.engine.ValidateSettings(); warn != nil {
		if _, err := fmt.Fprintf(out, "warning: %v\n", warn); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	sr, ok := a.gw.(sessionReporter)
	if !ok {
		return nil
	}
	info, ok, err := sr.Session(cmd.Context())
	if err != nil {
		a.log.Warn("failed to read session", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	if err := report.RenderSession(out, info, time.Now()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newRecordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record today's attendance",
		Args:  cobra.NoArgs,
		RunE:  runRecordCmd,
	}
	cmd.Flags().StringVar(&recordStatus, "status", string(model.StatusPresent), "whether --classes counts present or absent classes")
	cmd.Flags().Float64Var(&recordClasses, "classes", 0, "classes attended (or missed with --status absent)")
	cmd.Flags().Float64Var(&recordTotal, "total", 0, "classes held today")
	return cmd
}

func runRecordCmd(cmd *cobra.Command, _ []string) error {
	status, err := model.ParseStatus(recordStatus)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.engine.ApplyDailyRecord(cmd.Context(), status, recordClasses, recordTotal)
	if err != nil {
		return err
	}
	if err := report.RenderResult(cmd.OutOrStdout(), res); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Project attendance after future classes",
		Args:  cobra.NoArgs,
		RunE:  runPredictCmd,
	}
	cmd.Flags().Float64Var(&predictValue, "value", 0, "how many units ahead")
	cmd.Flags().StringVar(&predictUnit, "unit", string(model.UnitClasses), "unit: classes, days or weeks")
	cmd.Flags().StringVar(&predictStatus, "status", string(model.StatusPresent), "attend (present) or miss (absent) those classes")
	cmd.Flags().StringVar(&previewStatus, "preview-status", string(model.StatusPresent), "status of an unsaved entry for today")
	cmd.Flags().Float64Var(&previewClasses, "preview-classes", 0, "classes of an unsaved entry for today")
	cmd.Flags().Float64Var(&previewTotal, "preview-total", 0, "total classes of an unsaved entry for today")
	return cmd
}

func runPredictCmd(cmd *cobra.Command, _ []string) error {
	unit, err := model.ParseUnit(predictUnit)
	if err != nil {
		return err
	}
	status, err := model.ParseStatus(predictStatus)
	if err != nil {
		return err
	}
	var preview *model.DailyRecord
	if cmd.Flags().Changed("preview-total") {
		pStatus, err := model.ParseStatus(previewStatus)
		if err != nil {
			return err
		}
		preview = &model.DailyRecord{Status: pStatus, Classes: previewClasses, Total: previewTotal}
	}

	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	pred, err := a.engine.Predict(predictValue, unit, status, preview)
	if err != nil {
		return err
	}
	if err := report.RenderPrediction(cmd.OutOrStdout(), pred); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show settings",
		Args:  cobra.NoArgs,
		RunE:  runSettingsCmd,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "set <field> <value>",
		Short: "Change a setting (required-percentage, classes-per-day, days-per-week)",
		Args:  cobra.ExactArgs(2),
		RunE:  runSettingsSetCmd,
	})
	return cmd
}

func runSettingsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()
	return renderSettings(cmd.OutOrStdout(), a.engine)
}

func runSettingsSetCmd(cmd *cobra.Command, args []string) error {
	field, err := attendance.ParseSetting(args[0])
	if err != nil {
		return err
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(args[1]), 64)
	if err != nil {
		return fmt.Errorf("invalid value %q for %s", args[1], field)
	}

	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.UpdateSetting(cmd.Context(), field, value); err != nil {
		return err
	}
	return renderSettings(cmd.OutOrStdout(), a.engine)
}

func renderSettings(w io.Writer, engine *attendance.Engine) error {
	if err := report.RenderSettings(w, engine.Settings(), engine.ValidateSettings()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear recorded attendance (settings are kept)",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.Reset(cmd.Context()); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "Attendance reset."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
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
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the commented template unless a config already exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.WriteFile(path, []byte(config.DefaultTemplate()), 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func applyStringFlag(cmd *cobra.Command, name string, target *string, value string) {
	if !cmd.Flags().Changed(name) {
		return
	}
	*target = strings.TrimSpace(value)
}
