// Package workspace holds the run-scoped state shared by provisioning
// phases: the workspace root, the dry-run flag, the phase idempotency
// cache, and the named software environments to materialize.
package workspace

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// CacheKey identifies one unit of phase work. The same key must never
// execute its phase body twice within one orchestration run.
type CacheKey struct {
	Phase   string
	EnvPath string
}

func (k CacheKey) String() string { return k.Phase + ":" + k.EnvPath }

// SoftwareEnvironment is a named, ordered list of package specs.
type SoftwareEnvironment struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

// Workspace is safe for concurrent cache registration from independent
// environment provisioners.
type Workspace struct {
	root   string
	dryRun bool

	mu    sync.Mutex
	cache map[CacheKey]struct{}
	envs  map[string]SoftwareEnvironment
	order []string
}

func New(root string, dryRun bool) *Workspace {
	return &Workspace{
		root:   root,
		dryRun: dryRun,
		cache:  make(map[CacheKey]struct{}),
		envs:   make(map[string]SoftwareEnvironment),
	}
}

func (w *Workspace) Root() string { return w.root }

func (w *Workspace) DryRun() bool { return w.dryRun }

// EnvPath returns the on-disk location for a named environment.
func (w *Workspace) EnvPath(name string) string {
	return filepath.Join(w.root, "envs", name)
}

// RelPath makes p relative to the workspace root for inventory records.
// Paths outside the root are returned unchanged.
func (w *Workspace) RelPath(p string) string {
	prefix := w.root + string(filepath.Separator)
	return strings.TrimPrefix(p, prefix)
}

// CheckCache reports whether the key was already registered in this run.
func (w *Workspace) CheckCache(k CacheKey) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.cache[k]
	return ok
}

// AddToCache registers the key as seen for this run.
func (w *Workspace) AddToCache(k CacheKey) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache[k] = struct{}{}
}

// ResetCache clears the phase cache. A fresh orchestration run retries
// phases whose previous attempt failed after registration.
func (w *Workspace) ResetCache() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cache = make(map[CacheKey]struct{})
}

// AddEnvironment registers a software environment. Re-adding an existing
// name replaces its package list but keeps its position.
func (w *Workspace) AddEnvironment(se SoftwareEnvironment) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.envs[se.Name]; !ok {
		w.order = append(w.order, se.Name)
	}
	w.envs[se.Name] = se
}

// RenderEnvironment resolves a named environment. When require is true a
// missing name is an error; otherwise the zero value and false are
// returned.
func (w *Workspace) RenderEnvironment(name string, require bool) (SoftwareEnvironment, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	se, ok := w.envs[name]
	if !ok {
		if require {
			return SoftwareEnvironment{}, false, fmt.Errorf("software environment %q is not defined", name)
		}
		return SoftwareEnvironment{}, false, nil
	}
	return se, true, nil
}

// Environments returns all registered environments in registration order.
func (w *Workspace) Environments() []SoftwareEnvironment {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]SoftwareEnvironment, 0, len(w.envs))
	for _, n := range w.order {
		out = append(out, w.envs[n])
	}
	return out
}

// Names returns the sorted environment names.
func (w *Workspace) Names() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.envs))
	for n := range w.envs {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
