// Package runner owns the lifecycle of a single pip+venv environment:
// creation, requirement-file generation, installation, and version/digest
// queries. All externally visible effects (filesystem mutation, external
// process invocation) are guarded by the dry-run flag so that dry-run and
// real execution share one control flow.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/loykin/provenv/internal/env"
	"github.com/loykin/provenv/internal/hashing"
	"github.com/loykin/provenv/internal/interpreter"
	"github.com/loykin/provenv/internal/logger"
)

const (
	VenvDirName         = ".venv"
	RequirementFileName = "requirements.txt"
	LockFileName        = "requirements.lock"
)

var pipVersionRe = regexp.MustCompile(`pip (?P<version>[\d.]+) from`)

// Runner executes venv+pip operations against one environment path.
// It is not safe for concurrent use; distinct environments must use
// distinct Runner instances.
type Runner struct {
	bsInterp  interpreter.Executable // bootstrap interpreter for venv creation
	envPath   string
	dryRun    bool
	specs     map[string]struct{}
	installed bool
	logCfg    logger.Config
	logName   string
	log       *slog.Logger
}

// New resolves the bootstrap interpreter from the preference list
// (python3, then python) and returns a Runner bound to it.
func New() (*Runner, error) {
	bs, err := interpreter.Resolve("python3", "python")
	if err != nil {
		return nil, err
	}
	return NewWithInterpreter(bs), nil
}

// NewWithInterpreter returns a Runner using an explicit bootstrap
// interpreter. Used by tests and by callers that already resolved one.
func NewWithInterpreter(bs interpreter.Executable) *Runner {
	return &Runner{
		bsInterp: bs,
		specs:    make(map[string]struct{}),
		logName:  "env",
		log:      slog.Default(),
	}
}

// ConfigureEnv binds subsequent operations to path. No side effects.
func (r *Runner) ConfigureEnv(path string) { r.envPath = path }

// SetDryRun toggles simulation mode. It is consulted before every
// filesystem mutation and external process invocation.
func (r *Runner) SetDryRun(dry bool) { r.dryRun = dry }

// SetLogConfig routes installer output to the given destination, using
// name for the log file naming.
func (r *Runner) SetLogConfig(cfg logger.Config, name string) {
	r.logCfg = cfg
	if name != "" {
		r.logName = name
	}
}

// EnvPath returns the configured environment path.
func (r *Runner) EnvPath() string { return r.envPath }

// DryRun reports whether the runner is in simulation mode.
func (r *Runner) DryRun() bool { return r.dryRun }

// Installed reports whether the environment is marked installed for the
// current provisioning run.
func (r *Runner) Installed() bool { return r.installed }

// CreateEnv ensures the environment directory exists and, in real mode,
// bootstraps the venv subdirectory once if absent. Safe to call
// repeatedly. Subsequent operations are bound to envPath.
func (r *Runner) CreateEnv(ctx context.Context, envPath string) error {
	st, err := os.Stat(envPath)
	if err == nil && !st.IsDir() {
		return &PathConflictError{Path: envPath}
	}
	if os.IsNotExist(err) && !r.dryRun {
		if err := os.MkdirAll(envPath, 0o750); err != nil {
			return fmt.Errorf("create environment %s: %w", envPath, err)
		}
	}
	if !r.dryRun {
		venvDir := filepath.Join(envPath, VenvDirName)
		if _, err := os.Stat(venvDir); os.IsNotExist(err) {
			if err := r.bsInterp.Run(ctx, nil, nil, "-m", "venv", venvDir); err != nil {
				return err
			}
		}
	}
	// Ensure subsequent commands use the created env now.
	r.envPath = envPath
	return nil
}

// AddSpec adds a package requirement to the spec set. Duplicate additions
// are no-ops.
func (r *Runner) AddSpec(spec string) error {
	if err := r.checkConfigured(); err != nil {
		return err
	}
	r.specs[spec] = struct{}{}
	return nil
}

// SpecCount returns the current size of the spec set.
func (r *Runner) SpecCount() int { return len(r.specs) }

// requirementContent serializes the spec set deterministically: sorted,
// newline-joined, newline-terminated. Sorting makes the file byte-stable
// across runs with the same spec set.
func (r *Runner) requirementContent() string {
	specs := make([]string, 0, len(r.specs))
	for s := range r.specs {
		specs = append(specs, s)
	}
	sort.Strings(specs)
	return strings.Join(specs, "\n") + "\n"
}

func (r *Runner) requirementFile() string {
	return filepath.Join(r.envPath, RequirementFileName)
}

func (r *Runner) lockFile() string {
	return filepath.Join(r.envPath, LockFileName)
}

// GenerateRequirementFile writes the serialized spec set, unless an
// existing requirement file and lock file are both present, the lock file
// is not older than the requirement file, and the on-disk content is
// byte-identical to the recomputed content. In that case the environment
// is marked installed and nothing is written.
func (r *Runner) GenerateRequirementFile() error {
	if err := r.checkConfigured(); err != nil {
		return err
	}
	contents := r.requirementContent()
	reqFile := r.requirementFile()
	lockFile := r.lockFile()
	reqSt, reqErr := os.Stat(reqFile)
	lockSt, lockErr := os.Stat(lockFile)
	if reqErr == nil && lockErr == nil && !lockSt.ModTime().Before(reqSt.ModTime()) {
		existing, err := os.ReadFile(reqFile) // #nosec G304 -- path is workspace-derived
		if err == nil && string(existing) == contents {
			r.installed = true
			r.log.Debug("requirement file already up-to-date", "path", reqFile)
			return nil
		}
	}
	r.installed = false
	if r.dryRun {
		r.log.Info("DRY-RUN: would write requirement file", "path", reqFile, "specs", len(r.specs))
		return nil
	}
	if err := os.WriteFile(reqFile, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("write requirement file: %w", err)
	}
	return nil
}

// Install runs pip install against the requirement file, then writes the
// freeze output to the lock file. Idempotent: a second call without spec
// changes is a no-op. In dry-run mode the intended invocations are logged
// and no process is executed.
func (r *Runner) Install(ctx context.Context) error {
	if err := r.checkConfigured(); err != nil {
		return err
	}
	if r.installed {
		r.log.Debug("installation already done, skipping", "env", r.envPath)
		return nil
	}
	reqFile := r.requirementFile()
	if !r.dryRun {
		if _, err := os.Stat(reqFile); os.IsNotExist(err) {
			return &MissingArtifactError{Path: reqFile}
		}
	}
	installer := r.venvPython().WithDefaultArgs("-m", "pip")
	installArgs := []string{"install", "-r", reqFile}
	freezeArgs := []string{"freeze", "-r", reqFile}
	if r.dryRun {
		r.dryRunPrint(installer, installArgs)
		r.dryRunPrint(installer, freezeArgs)
	} else {
		outW, errW, _ := r.logCfg.Writers(r.logName)
		defer closeBoth(outW, errW)
		var stdout, stderr io.Writer
		if outW != nil {
			stdout = outW
		}
		if errW != nil {
			stderr = errW
		}
		if err := installer.Run(ctx, stdout, stderr, installArgs...); err != nil {
			return err
		}
		frozen, err := installer.Output(ctx, freezeArgs...)
		if err != nil {
			return err
		}
		if err := os.WriteFile(r.lockFile(), []byte(frozen), 0o644); err != nil {
			return fmt.Errorf("write lock file: %w", err)
		}
	}
	r.installed = true
	return nil
}

// Version queries the installer version and extracts the version token.
func (r *Runner) Version(ctx context.Context) (string, error) {
	out, err := r.venvPython().Output(ctx, "-m", "pip", "--version")
	if err != nil {
		return "", err
	}
	m := pipVersionRe.FindStringSubmatch(out)
	if m == nil {
		return "", &VersionParseError{Output: out}
	}
	return m[pipVersionRe.SubexpIndex("version")], nil
}

// InventoryHash returns a content digest for reproducibility tracking: in
// dry-run mode the digest of the computed requirement content, otherwise
// the digest of the lock file bytes.
func (r *Runner) InventoryHash() (string, error) {
	if err := r.checkConfigured(); err != nil {
		return "", err
	}
	if r.dryRun {
		return hashing.String(r.requirementContent()), nil
	}
	return hashing.File(r.lockFile())
}

// ActivateCommand returns the shell command that activates the venv.
func (r *Runner) ActivateCommand() []string {
	return []string{"source " + r.activateScript()}
}

// DeactivateCommand returns the shell command that deactivates the venv.
func (r *Runner) DeactivateCommand() []string {
	return []string{"deactivate"}
}

// ActivationEnv composes the process environment for running commands
// inside the venv without sourcing the activate script.
func (r *Runner) ActivationEnv() []string {
	e := env.New()
	return e.Activation(filepath.Join(r.envPath, VenvDirName))
}

func (r *Runner) venvPython() interpreter.Executable {
	if r.dryRun {
		return r.bsInterp
	}
	return interpreter.New(filepath.Join(r.envPath, VenvDirName, "bin", "python"))
}

func (r *Runner) activateScript() string {
	return filepath.Join(r.envPath, VenvDirName, "bin", "activate")
}

func (r *Runner) checkConfigured() error {
	if r.envPath == "" {
		return ErrNotConfigured
	}
	if r.dryRun {
		return nil
	}
	if _, err := os.Stat(r.activateScript()); os.IsNotExist(err) {
		return fmt.Errorf("%w: venv missing at %s", ErrNotConfigured, r.envPath)
	}
	return nil
}

func (r *Runner) dryRunPrint(exe interpreter.Executable, args []string) {
	r.log.Info("DRY-RUN: would run", "cmd", exe.String(), "args", strings.Join(args, " "))
}

func closeBoth(a, b io.WriteCloser) {
	if a != nil {
		_ = a.Close()
	}
	if b != nil {
		_ = b.Close()
	}
}
