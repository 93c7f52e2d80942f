// Package cli wires the command tree: the bare command runs the terminal
// UI, subcommands manage tasks and history without it.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sadopc/tomato/internal/config"
	"github.com/sadopc/tomato/internal/session"
	"github.com/sadopc/tomato/internal/store"
	"github.com/sadopc/tomato/internal/tui"
)

type rootOptions struct {
	configPath string
	dbPath     string
}

// Execute runs the root command.
func Execute(version string) error {
	cmd := newRootCmd(version)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return err
	}
	return nil
}

func newRootCmd(version string) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "tomato",
		Short: "A pomodoro timer for the terminal",
		Long: `tomato counts down 25 minute focus periods followed by short breaks,
offering a longer break after every fourth one. Completed periods are
credited to the selected task and summarised over the last five days.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/tomato/config.yaml)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db", "", "database file (overrides db_path in the config)")

	root.AddCommand(newTaskCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newVersionCmd(version))

	root.Version = version
	return root
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	return cfg, nil
}

// openStore loads the config and opens the database it names. Subcommands
// log warnings to stderr.
func (o *rootOptions) openStore(stderr io.Writer) (*store.Store, *slog.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: max(cfg.Level(), slog.LevelWarn)}))

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	return st, logger, nil
}

func runTUI(opts *rootOptions) error {
	created, err := config.EnsureFile(opts.configPath)
	if err != nil {
		return err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(cfg.LogPath, "tomato")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: cfg.Level()}))

	st, err := store.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	settings := st.TimerSettings()
	screen := tui.NewScreen()
	sched := tui.NewScheduler()
	bell := tui.NewBell(cfg.Bell)
	bell.SetEnabled(settings.Bell)

	machine := session.New(session.Config{
		Durations: session.FromSettings(settings),
		Display:   screen,
		Storage:   st,
		Notifier:  bell,
		Scheduler: sched,
		Logger:    logger,
	})
	defer machine.Stop()

	app := tui.NewApp(tui.Options{
		Store:   st,
		Machine: machine,
		Screen:  screen,
		Bell:    bell,
		Logger:  logger,
	})

	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.ReportFocus {
		programOpts = append(programOpts, tea.WithReportFocus())
	}
	p := tea.NewProgram(app, programOpts...)
	sched.Attach(p)

	if created {
		logger.Info("wrote default config")
	}
	logger.Info("starting", "db", cfg.DBPath, "tasks", len(machine.Tasks()), "sessions", len(machine.Sessions()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
