// Package env bootstraps an instrumentation tool inside its host process.
//
// Run builds the logger, resolves the local process, enforces the optional
// host whitelist, and hands a ready Env to the tool's main function. Errors
// and panics escaping main are written to a timestamped report file in the
// host's working directory before Run returns.
package env

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/PurpleSec/logx"

	"github.com/graftlib/graft"
	"github.com/graftlib/graft/process"
)

// ErrNotAllowed is returned by Run when the host process is not on the
// configured whitelist.
var ErrNotAllowed = errors.New("env: host process not allowed")

// Config controls the bootstrap.
type Config struct {
	// Processes is the set of host executable names the tool may attach
	// to, compared ignoring case. Empty allows any host.
	Processes []string

	// LogPath adds a file log next to the console log when set.
	LogPath string

	// Level is the log level for every configured output.
	Level logx.Level

	// Prefix tags every log line when set.
	Prefix string
}

// Env is the runtime context handed to the tool's main function.
type Env struct {
	log  logx.Log
	proc *process.Process
}

// Run bootstraps the environment and calls main.
func Run(cfg Config, main func(*Env) error) (err error) {
	log, err := newLog(cfg)
	if err != nil {
		return fmt.Errorf("env: opening log: %w", err)
	}

	proc, err := process.Local()
	if err != nil {
		err = fmt.Errorf("env: resolving local process: %w", err)
		writeReport(log, errorReportPrefix, err.Error())
		return err
	}

	if err := checkAllowed(cfg.Processes, proc.Name()); err != nil {
		writeReport(log, errorReportPrefix, err.Error())
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			writeReport(log, panicReportPrefix, fmt.Sprintf("panic in main: %v\n\n%s", r, debug.Stack()))
			err = fmt.Errorf("env: panic in main: %v", r)
		}
	}()

	log.Info("Attached to %s.", proc)

	if err := main(&Env{log: log, proc: proc}); err != nil {
		writeReport(log, errorReportPrefix, fmt.Sprintf("main returned an error: %v", err))
		return err
	}
	return nil
}

func newLog(cfg Config) (logx.Log, error) {
	log := logx.Console(cfg.Level)
	if cfg.LogPath != "" {
		f, err := logx.File(cfg.LogPath, logx.Append, cfg.Level)
		if err != nil {
			return nil, err
		}
		log = logx.Multiple(log, f)
	}
	if cfg.Prefix != "" {
		log.SetPrefix(cfg.Prefix)
	}
	return log, nil
}

func checkAllowed(allowed []string, name string) error {
	if len(allowed) == 0 {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(a, name) {
			return nil
		}
	}
	return fmt.Errorf("env: binding to %q: %w", name, ErrNotAllowed)
}

// Log is the configured logger.
func (e *Env) Log() logx.Log { return e.log }

// Process is the host process.
func (e *Env) Process() *process.Process { return e.proc }

// MainModule wraps the host executable's image for patching.
func (e *Env) MainModule() (*graft.Module, error) {
	return graft.MainModule()
}

// Module wraps the named loaded image for patching.
func (e *Env) Module(name string) (*graft.Module, error) {
	return graft.FindModule(name)
}
