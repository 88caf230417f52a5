package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	mng "github.com/loykin/provenv/internal/manager"
)

// Router provides embeddable HTTP handlers for environment provisioning.
// Endpoints:
//   POST {basePath}/provision     query: name=... OR all=1
//   GET  {basePath}/environments
//   GET  {basePath}/inventory     query: env=... for persisted records,
//                                 none for the in-process inventory
//   GET  {basePath}/version
//   GET  {basePath}/activate      query: name=...
// basePath may be empty or start with '/'; no trailing slash.

type Router struct {
	mgr      *mng.Manager
	basePath string
}

// NewRouter constructs a new Router with configurable basePath.
// Example basePath: "/api" results in /api/provision, /api/inventory.
func NewRouter(mgr *mng.Manager, basePath string) *Router {
	bp := sanitizeBase(basePath)
	return &Router{mgr: mgr, basePath: bp}
}

// Handler returns an http.Handler powered by gin that can be mounted in any
// server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.POST("/provision", r.handleProvision)
	group.GET("/environments", r.handleEnvironments)
	group.GET("/inventory", r.handleInventory)
	group.GET("/version", r.handleVersion)
	group.GET("/activate", r.handleActivate)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
// The caller shuts it down via http.Server's Close or Shutdown.
func NewServer(addr, basePath string, mgr *mng.Manager) (*http.Server, error) {
	r := NewRouter(mgr, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK     bool `json:"ok"`
	DryRun bool `json:"dry_run"`
}

type environmentResp struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

type inventoryResp struct {
	PackageManagers []inventoryRecord `json:"package_managers"`
	Software        []inventoryRecord `json:"software"`
}

type inventoryRecord struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Digest  string `json:"digest"`
}

type versionResp struct {
	PackageManager string `json:"package_manager"`
	Version        string `json:"version"`
}

type activateResp struct {
	Command []string `json:"command"`
	Env     []string `json:"env"`
}

func (r *Router) handleProvision(c *gin.Context) {
	name := c.Query("name")
	all := c.Query("all")
	if name == "" && all == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "one of name, all query param required"})
		return
	}
	if name != "" && all != "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "only one of name, all must be provided"})
		return
	}
	if all != "" {
		if err := r.mgr.ProvisionAll(c.Request.Context()); err != nil {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusOK, okResp{OK: true, DryRun: r.mgr.DryRun()})
		return
	}
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name: allowed [A-Za-z0-9._-] and no '..' or path separators"})
		return
	}
	if err := r.mgr.Provision(c.Request.Context(), name); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true, DryRun: r.mgr.DryRun()})
}

func (r *Router) handleEnvironments(c *gin.Context) {
	envs := r.mgr.Environments()
	out := make([]environmentResp, 0, len(envs))
	for _, se := range envs {
		out = append(out, environmentResp{Name: se.Name, Packages: se.Packages})
	}
	writeJSON(c, http.StatusOK, out)
}

func (r *Router) handleInventory(c *gin.Context) {
	env := c.Query("env")
	if env != "" {
		if !isSafeName(env) {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid env name"})
			return
		}
		recs, err := r.mgr.StoredInventory(c.Request.Context(), env)
		if err != nil {
			writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
			return
		}
		writeJSON(c, http.StatusOK, recs)
		return
	}
	inv := r.mgr.Inventory()
	resp := inventoryResp{
		PackageManagers: make([]inventoryRecord, 0),
		Software:        make([]inventoryRecord, 0),
	}
	for _, rec := range inv.PackageManagers() {
		resp.PackageManagers = append(resp.PackageManagers, inventoryRecord{Name: rec.Name, Version: rec.Version, Digest: rec.Digest})
	}
	for _, rec := range inv.Software() {
		resp.Software = append(resp.Software, inventoryRecord{Name: rec.Name, Digest: rec.Digest})
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleVersion(c *gin.Context) {
	v, err := r.mgr.Version(c.Request.Context())
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, versionResp{PackageManager: "pip", Version: v})
}

func (r *Router) handleActivate(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "name query param required"})
		return
	}
	if !isSafeName(name) {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid name"})
		return
	}
	cmd, err := r.mgr.ActivateCommand(name)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	envv, err := r.mgr.ActivationEnv(name)
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, activateResp{Command: cmd, Env: envv})
}
