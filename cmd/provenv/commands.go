package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/loykin/provenv"
	"github.com/loykin/provenv/pkg/client"
	"github.com/loykin/provenv/pkg/template"
)

type command struct{}

func newAPIClient(apiURL string, timeout time.Duration) *client.Client {
	return client.New(client.Config{BaseURL: apiURL, Timeout: timeout})
}

func loadRequiredConfig(path string) (*provenv.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file required. Use --config=provenv.toml")
	}
	return provenv.LoadConfig(path)
}

// buildManager constructs a local manager with the store and history
// backends from the config wired in.
func buildManager(ctx context.Context, cfg *provenv.Config, dryRun bool) (*provenv.Manager, error) {
	m, err := provenv.New(cfg, dryRun)
	if err != nil {
		return nil, err
	}
	if cfg.Store.DSN != "" {
		st, err := provenv.NewStoreFromDSN(cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("store: %w", err)
		}
		if err := m.SetStore(ctx, st); err != nil {
			return nil, fmt.Errorf("store schema: %w", err)
		}
	}
	if cfg.History.DSN != "" {
		sink, err := provenv.NewHistorySinkFromDSN(cfg.History.DSN)
		if err != nil {
			return nil, fmt.Errorf("history: %w", err)
		}
		m.SetHistorySinks(sink)
	}
	return m, nil
}

// Setup provisions one environment or all of them, locally or through a
// running daemon when --api-url is given.
func (c *command) Setup(f SetupFlags) error {
	ctx := context.Background()

	if f.APIUrl != "" {
		apiClient := newAPIClient(f.APIUrl, f.APITimeout)
		if !apiClient.IsReachable(ctx) {
			return fmt.Errorf("daemon not reachable at %s - start it first with 'provenv serve'", f.APIUrl)
		}
		var res client.ProvisionResult
		var err error
		if f.Env != "" {
			res, err = apiClient.Provision(ctx, f.Env)
		} else {
			res, err = apiClient.ProvisionAll(ctx)
		}
		if err != nil {
			return err
		}
		printJSON(res)
		return nil
	}

	cfg, err := loadRequiredConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	m, err := buildManager(ctx, cfg, f.DryRun)
	if err != nil {
		return err
	}
	defer func() { _ = m.Close() }()

	if f.Env != "" {
		err = m.Provision(ctx, f.Env)
	} else {
		err = m.ProvisionAll(ctx)
	}
	if err != nil {
		return err
	}
	printJSON(map[string]any{
		"package_managers": m.Inventory().PackageManagers(),
		"software":         m.Inventory().Software(),
		"dry_run":          m.DryRun(),
	})
	return nil
}

// Inventory prints persisted inventory records for an environment.
func (c *command) Inventory(f InventoryFlags) error {
	ctx := context.Background()

	if f.APIUrl != "" {
		apiClient := newAPIClient(f.APIUrl, f.APITimeout)
		if f.Env != "" {
			recs, err := apiClient.StoredInventory(ctx, f.Env)
			if err != nil {
				return err
			}
			printJSON(recs)
			return nil
		}
		inv, err := apiClient.Inventory(ctx)
		if err != nil {
			return err
		}
		printJSON(inv)
		return nil
	}

	cfg, err := loadRequiredConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("no [store] dsn configured; use --api-url to query a running daemon")
	}
	if f.Env == "" {
		return fmt.Errorf("environment name required (--env)")
	}
	st, err := provenv.NewStoreFromDSN(cfg.Store.DSN)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	recs, err := st.ListByEnv(ctx, f.Env)
	if err != nil {
		return err
	}
	printJSON(recs)
	return nil
}

// Version reports the pip version, locally or via daemon.
func (c *command) Version(f VersionFlags) error {
	ctx := context.Background()

	if f.APIUrl != "" {
		apiClient := newAPIClient(f.APIUrl, f.APITimeout)
		v, err := apiClient.Version(ctx)
		if err != nil {
			return err
		}
		printJSON(v)
		return nil
	}

	cfg := &provenv.Config{}
	if f.ConfigPath != "" {
		loaded, err := provenv.LoadConfig(f.ConfigPath)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		cfg.Workspace.Root = "."
	}
	m, err := provenv.New(cfg, true)
	if err != nil {
		return err
	}
	v, err := m.Version(ctx)
	if err != nil {
		return err
	}
	printJSON(map[string]string{"package_manager": "pip", "version": v})
	return nil
}

// Env prints how to enter an environment: either the activate command or
// shell export lines for the composed process environment.
func (c *command) Env(f EnvFlags) error {
	cfg, err := loadRequiredConfig(f.ConfigPath)
	if err != nil {
		return err
	}
	if f.Name == "" {
		return fmt.Errorf("environment name required (--name)")
	}
	m, err := provenv.New(cfg, true)
	if err != nil {
		return err
	}
	if f.Export {
		kvs, err := m.ActivationEnv(f.Name)
		if err != nil {
			return err
		}
		for _, kv := range kvs {
			fmt.Printf("export %s\n", shellQuoteKV(kv))
		}
		return nil
	}
	cmdline, err := m.ActivateCommand(f.Name)
	if err != nil {
		return err
	}
	fmt.Println(strings.Join(cmdline, " "))
	return nil
}

// TemplateCreate writes a starter environment block to a file or stdout.
func (c *command) TemplateCreate(f TemplateCreateFlags) error {
	name := f.Name
	if name == "" {
		name = f.Type + "-sample"
	}
	gen := template.NewGenerator()
	out, err := gen.GenerateTOML(template.TemplateType(f.Type), name)
	if err != nil {
		return err
	}
	if f.Output == "" {
		fmt.Print(out)
		return nil
	}
	if !f.Force {
		if _, err := os.Stat(f.Output); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", f.Output)
		}
	}
	if err := os.MkdirAll(filepath.Dir(f.Output), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(f.Output, []byte(out), 0o644); err != nil { // #nosec G306
		return err
	}
	fmt.Printf("Template written to %s\n", f.Output)
	return nil
}

func printJSON(v any) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%+v\n", v)
		return
	}
	fmt.Println(string(b))
}

// shellQuoteKV quotes the value part of a KEY=VALUE pair for sh.
func shellQuoteKV(kv string) string {
	i := strings.IndexByte(kv, '=')
	if i < 0 {
		return kv
	}
	key, val := kv[:i], kv[i+1:]
	return key + "='" + strings.ReplaceAll(val, "'", `'\''`) + "'"
}
