package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/vanderheijden86/chronarc/pkg/debug"
)

// Result records one hook run.
type Result struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the configured hooks for a single export.
type Executor struct {
	config  *Config
	context ExportContext
	results []Result
}

// NewExecutor returns an executor for config; a nil config has no hooks.
func NewExecutor(config *Config, ctx ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, context: ctx}
}

// RunHooks loads hooks.yaml from dir and returns an executor, or nil when
// noHooks is set or nothing is configured.
func RunHooks(dir string, ctx ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	cfg, warnings, err := Load(dir)
	if err != nil {
		return nil, err
	}
	for _, w := range warnings {
		debug.Warn("hooks: %s", w)
	}
	if cfg.Empty() {
		return nil, nil
	}
	return NewExecutor(cfg, ctx), nil
}

// RunPreExport runs the pre-export hooks in order and stops at the first
// failure whose on_error is fail.
func (e *Executor) RunPreExport() error {
	for _, hook := range e.config.Hooks.PreExport {
		res := e.run(hook, PreExport)
		if !res.Success && hook.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", hook.Name, res.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook and reports the failures of
// those whose on_error is fail.
func (e *Executor) RunPostExport() error {
	var errs []error
	for _, hook := range e.config.Hooks.PostExport {
		res := e.run(hook, PostExport)
		if res.Success {
			continue
		}
		if hook.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", hook.Name, res.Error))
		} else {
			debug.Warn("post-export hook %q failed: %v", hook.Name, res.Error)
		}
	}
	return errors.Join(errs...)
}

// Results returns every run so far.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary is a short human-readable report of the runs.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return "No hooks executed"
	}
	var ok, failed int
	var b strings.Builder
	for _, r := range e.results {
		if r.Success {
			ok++
			continue
		}
		failed++
		fmt.Fprintf(&b, "\n  %s (%s): %v", r.Hook.Name, r.Phase, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "\n    stderr: %s", truncate(r.Stderr, 200))
		}
	}
	return fmt.Sprintf("Hooks: %d succeeded, %d failed", ok, failed) + b.String()
}

func (e *Executor) run(hook Hook, phase HookPhase) Result {
	timeout := time.Duration(hook.Timeout)
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	env := append(os.Environ(), e.context.ToEnv()...)
	lookup := envLookup(env)
	for k, v := range hook.Env {
		env = append(env, k+"="+os.Expand(v, lookup))
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", hook.Command)
	cmd.Env = env
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Hook:     hook,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
		Error:    err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.Success = false
		res.Error = fmt.Errorf("timed out after %s", timeout)
	}
	debug.Log("hook %s (%s) finished in %s: %v", hook.Name, phase, res.Duration, res.Error)
	e.results = append(e.results, res)
	return res
}

// envLookup resolves names against env, later entries winning.
func envLookup(env []string) func(string) string {
	vals := make(map[string]string, len(env))
	for _, kv := range env {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vals[k] = v
		}
	}
	return func(name string) string { return vals[name] }
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
