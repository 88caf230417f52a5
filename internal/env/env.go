package env

import (
	"os"
	"path/filepath"
	"strings"
)

type Var map[string]string

// Env composes process environments for commands that run inside a
// provisioned environment. The base is the OS environment (cached), global
// overrides apply on top, and activation of a venv path applies last.
type Env struct {
	Var Var // global variables (K->V)
	env Var // cached base from OS environment
}

func New() *Env {
	return &Env{Var: make(Var)}
}

// FromOS caches the current process environment as the base.
func (e *Env) FromOS() {
	base := make(Var)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			k := kv[:i]
			v := kv[i+1:]
			if k == "" {
				continue
			}
			base[k] = v
		}
	}
	e.env = base
}

// Set sets a global variable K=V.
func (e *Env) Set(k, v string) {
	if e.Var == nil {
		e.Var = make(Var)
	}
	e.Var[k] = v
}

// Unset removes a global variable.
func (e *Env) Unset(k string) {
	if e.Var != nil {
		delete(e.Var, k)
	}
}

// Activation returns the environment list for running tools inside the venv
// rooted at venvPath: VIRTUAL_ENV is set, the venv bin directory is
// prepended to PATH, and PYTHONHOME is dropped so the venv interpreter is
// self-contained. ${VAR} references in values are expanded against the
// composed map (simple expansion, no recursion).
func (e *Env) Activation(venvPath string) []string {
	if e.env == nil {
		e.FromOS()
	}
	m := make(Var)
	for k, v := range e.env {
		m[k] = v
	}
	for k, v := range e.Var {
		if k == "" {
			continue
		}
		m[k] = v
	}
	delete(m, "PYTHONHOME")
	m["VIRTUAL_ENV"] = venvPath
	bin := filepath.Join(venvPath, "bin")
	if p, ok := m["PATH"]; ok && p != "" {
		m["PATH"] = bin + string(os.PathListSeparator) + p
	} else {
		m["PATH"] = bin
	}
	expanded := make(Var, len(m))
	for k, v := range m {
		expanded[k] = expand(v, m)
	}
	out := make([]string, 0, len(expanded))
	for k, v := range expanded {
		if k == "" {
			continue
		}
		out = append(out, k+"="+v)
	}
	return out
}

func expand(s string, m Var) string {
	res := s
	for k, v := range m {
		res = strings.ReplaceAll(res, "${"+k+"}", v)
	}
	return res
}
