package cmd

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

	"github.com/spf13/cobra"

	"github.com/theirongolddev/attain/internal/cli"
	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/daemon"
	"github.com/theirongolddev/attain/internal/model"
)

type daemonRuntimeState struct {
	PID       int       `json:"pid"`
	Addr      string    `json:"addr"`
	StartedAt time.Time `json:"started_at"`
	Source    string    `json:"source"`
}

var (
	flagDaemonAddr         string
	flagDaemonInterval     time.Duration
	flagDaemonDetach       bool
	flagDaemonPIDFile      string
	flagDaemonLogFile      string
	flagDaemonEventsBuffer int
	flagDaemonChild        bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run a background target poller with HTTP/SSE endpoints",
	RunE:  runDaemon,
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon process and API status",
	RunE:  runDaemonStatus,
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running daemon",
	RunE:  runDaemonStop,
}

func init() {
	defaultPID := newDaemonFiles("").pidPath
	defaultLog := filepath.Join(config.Dir(), "attaind.log")

	daemonCmd.PersistentFlags().StringVar(&flagDaemonAddr, "addr", "", "HTTP listen address (default from config)")
	daemonCmd.PersistentFlags().DurationVar(&flagDaemonInterval, "interval", 0, "Polling interval (default from config)")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonPIDFile, "pid-file", defaultPID, "PID file path")
	daemonCmd.PersistentFlags().StringVar(&flagDaemonLogFile, "log-file", defaultLog, "Log file path for detached mode")
	daemonCmd.PersistentFlags().IntVar(&flagDaemonEventsBuffer, "events-buffer", 0, "Max in-memory events retained (default from config)")

	daemonCmd.Flags().BoolVar(&flagDaemonDetach, "detach", false, "Run daemon as a background process")
	daemonCmd.Flags().BoolVar(&flagDaemonChild, "child", false, "Internal: mark detached child process")
	_ = daemonCmd.Flags().MarkHidden("child")

	daemonCmd.AddCommand(daemonStatusCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(_ *cobra.Command, _ []string) error {
	if flagDaemonDetach && flagDaemonChild {
		return errors.New("invalid daemon launch mode")
	}

	if flagDaemonDetach {
		return startDaemonDetached()
	}

	return runDaemonForeground()
}

func startDaemonDetached() error {
	if err := newDaemonFiles(flagDaemonPIDFile).claim(); err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(flagDaemonLogFile), 0o750); err != nil {
		return fmt.Errorf("create daemon log directory: %w", err)
	}
	//nolint:gosec // log path is configured by the local user
	logf, err := os.OpenFile(flagDaemonLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log file: %w", err)
	}
	defer func() { _ = logf.Close() }()

	// The child re-runs this invocation in the foreground.
	child := exec.Command(exe, append(filterDetachArg(os.Args[1:]), "--child")...) //nolint:gosec // re-executes the current binary
	child.Stdout, child.Stderr = logf, logf
	child.Env = os.Environ()
	if err := child.Start(); err != nil {
		return fmt.Errorf("start detached daemon: %w", err)
	}

	fmt.Printf("  Started daemon (pid %d), logging to %s\n", child.Process.Pid, flagDaemonLogFile)
	fmt.Printf("  Status: attain daemon status   API: http://%s/v1/status\n", daemonAddr(loadConfigOrDefault()))
	return nil
}

func runDaemonForeground() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	files := newDaemonFiles(flagDaemonPIDFile)
	if err := files.claim(); err != nil {
		return err
	}

	flagQuiet = true
	src, err := openSource(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	addr := daemonAddr(cfg)
	if err := files.record(daemonRuntimeState{
		PID:       os.Getpid(),
		Addr:      addr,
		StartedAt: time.Now(),
		Source:    src.Name(),
	}); err != nil {
		return err
	}
	defer files.release()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: daemonLogLevel()}))

	var pub daemon.Publisher
	if url := config.AMQPURL(cfg); url != "" {
		p, err := daemon.DialAMQP(url, cfg.AMQP.Exchange, cfg.AMQP.RoutingKey)
		if err != nil {
			return err
		}
		defer func() { _ = p.Close() }()
		pub = p
		logger.Info("publishing events", "component", "amqp", "exchange", cfg.AMQP.Exchange)
	}

	interval := flagDaemonInterval
	if interval == 0 {
		interval = time.Duration(cfg.Daemon.IntervalSec) * time.Second
	}
	buffer := flagDaemonEventsBuffer
	if buffer == 0 {
		buffer = cfg.Daemon.EventsBuffer
	}

	svc := daemon.New(daemon.Config{
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: buffer,
		Publisher:    pub,
		AccessLog:    os.Stderr,
		Logger:       logger,
	}, src)

	fmt.Printf("  attain daemon listening on http://%s\n", addr)
	fmt.Printf("  Polling %s every %s\n", src.Name(), interval)
	fmt.Printf("  Stop with: attain daemon stop --pid-file %s\n", flagDaemonPIDFile)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func daemonAddr(cfg config.Config) string {
	if flagDaemonAddr != "" {
		return flagDaemonAddr
	}
	return cfg.Daemon.Addr
}

func daemonLogLevel() slog.Level {
	if flagDebug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

func runDaemonStatus(cmd *cobra.Command, _ []string) error {
	files := newDaemonFiles(flagDaemonPIDFile)
	pid, alive, err := files.lookup()
	switch {
	case errors.Is(err, os.ErrNotExist):
		fmt.Println("  Daemon: not running")
		return nil
	case err != nil:
		return err
	case !alive:
		fmt.Printf("  Daemon: not running (stale pid %d in %s)\n", pid, flagDaemonPIDFile)
		return nil
	}

	addr := files.addr(loadConfigOrDefault())
	fmt.Printf("  Daemon PID: %d\n", pid)
	fmt.Printf("  Address: http://%s\n", addr)

	st, err := fetchDaemonStatus(cmd.Context(), addr)
	if err != nil {
		fmt.Printf("  API status: %v\n", err)
		return nil
	}
	printDaemonStatus(st)
	return nil
}

func printDaemonStatus(st daemon.Status) {
	lastPoll := "pending"
	if !st.LastPollAt.IsZero() {
		lastPoll = st.LastPollAt.Local().Format(time.RFC3339)
	}
	fmt.Printf("  Source: %s\n", st.Source)
	fmt.Printf("  Polls: %s (last %s)\n", cli.FormatNumber(st.PollCount), lastPoll)
	for _, r := range model.TimeRanges {
		if snap, ok := st.Ranges[r.String()]; ok {
			fmt.Printf("  %-10s %6.1f%% achieved, %6.1f%% forecast (%s)\n",
				r.Label()+":", snap.AchievementRate, snap.ForecastRate, snap.Severity)
		}
	}
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", st.LastError)
	}
}

func runDaemonStop(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 8*time.Second)
	defer cancel()

	pid, err := newDaemonFiles(flagDaemonPIDFile).stop(ctx, 150*time.Millisecond)
	if err != nil {
		return err
	}
	fmt.Printf("  Stopped daemon (pid %d)\n", pid)
	return nil
}

func filterDetachArg(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a == "--detach" || strings.HasPrefix(a, "--detach=") {
			continue
		}
		out = append(out, a)
	}
	return out
}
