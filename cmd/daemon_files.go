package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/theirongolddev/attain/internal/config"
	"github.com/theirongolddev/attain/internal/daemon"
)

// daemonFiles is the PID file of one daemon instance plus the runtime
// state written beside it.
type daemonFiles struct {
	pidPath string
}

func newDaemonFiles(pidPath string) daemonFiles {
	if pidPath == "" {
		pidPath = filepath.Join(config.Dir(), "attaind.pid")
	}
	return daemonFiles{pidPath: pidPath}
}

func (f daemonFiles) statePath() string {
	return strings.TrimSuffix(f.pidPath, filepath.Ext(f.pidPath)) + ".state.json"
}

// lookup reads the recorded pid and reports whether that process is alive.
// A missing PID file returns an error wrapping os.ErrNotExist.
func (f daemonFiles) lookup() (int, bool, error) {
	//nolint:gosec // pid path is configured by the local user
	data, err := os.ReadFile(f.pidPath)
	if err != nil {
		return 0, false, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("invalid pid in %s", f.pidPath)
	}
	return pid, processAlive(pid), nil
}

// claim fails while another daemon holds the files. Leftovers from a dead
// daemon are cleared.
func (f daemonFiles) claim() error {
	pid, alive, err := f.lookup()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if alive {
		return fmt.Errorf("daemon already running (pid %d)", pid)
	}
	f.release()
	if err := os.MkdirAll(filepath.Dir(f.pidPath), 0o750); err != nil {
		return fmt.Errorf("create daemon directory: %w", err)
	}
	return nil
}

func (f daemonFiles) record(st daemonRuntimeState) error {
	if err := os.WriteFile(f.pidPath, []byte(strconv.Itoa(st.PID)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.statePath(), append(data, '\n'), 0o600)
}

func (f daemonFiles) release() {
	_ = os.Remove(f.pidPath)
	_ = os.Remove(f.statePath())
}

func (f daemonFiles) state() (daemonRuntimeState, error) {
	var st daemonRuntimeState
	//nolint:gosec // state path sits beside the pid file
	data, err := os.ReadFile(f.statePath())
	if err != nil {
		return st, err
	}
	err = json.Unmarshal(data, &st)
	return st, err
}

// addr prefers the address the running daemon recorded over the config.
func (f daemonFiles) addr(cfg config.Config) string {
	if st, err := f.state(); err == nil && st.Addr != "" {
		return st.Addr
	}
	return daemonAddr(cfg)
}

// stop sends SIGTERM and waits for the process to go away or ctx to end.
func (f daemonFiles) stop(ctx context.Context, poll time.Duration) (int, error) {
	pid, alive, err := f.lookup()
	switch {
	case errors.Is(err, os.ErrNotExist):
		return 0, errors.New("daemon is not running")
	case err != nil:
		return 0, err
	case !alive:
		f.release()
		return pid, fmt.Errorf("daemon (pid %d) is not running; removed stale pid file", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return pid, fmt.Errorf("find daemon process: %w", err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return pid, fmt.Errorf("signal daemon process: %w", err)
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for processAlive(pid) {
		select {
		case <-ctx.Done():
			return pid, fmt.Errorf("daemon (pid %d) did not exit: %w", pid, ctx.Err())
		case <-ticker.C:
		}
	}
	f.release()
	return pid, nil
}

func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

// fetchDaemonStatus asks a running daemon for its /v1/status document.
func fetchDaemonStatus(ctx context.Context, addr string) (daemon.Status, error) {
	var st daemon.Status

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/v1/status", nil)
	if err != nil {
		return st, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return st, fmt.Errorf("unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return st, fmt.Errorf("malformed response: %w", err)
	}
	return st, nil
}
