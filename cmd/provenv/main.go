package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds minimal global/persistent flags for CLI commands
type GlobalFlags struct {
	ConfigPath string
}

// buildRoot creates the root command with all subcommands attached
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	setupFlags := &SetupFlags{}
	inventoryFlags := &InventoryFlags{}
	versionFlags := &VersionFlags{}
	envFlags := &EnvFlags{}
	serveFlags := &ServeFlags{}
	templateFlags := &TemplateCreateFlags{}

	provenvCommand := command{}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createSetupCommand(provenvCommand, globalFlags, setupFlags),
		createInventoryCommand(provenvCommand, globalFlags, inventoryFlags),
		createVersionCommand(provenvCommand, globalFlags, versionFlags),
		createEnvCommand(provenvCommand, globalFlags, envFlags),
		createServeCommand(globalFlags, serveFlags),
		createTemplateCommand(provenvCommand, templateFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "provenv",
		Short: "Idempotent Python environment provisioning tool",
		Long: `Provenv materializes named Python environments (venv + pip) from a
declarative TOML config, locally or via a remote daemon connection.

Examples:
  provenv setup --config=provenv.toml               # Provision everything
  provenv setup --config=provenv.toml --env=analysis
  provenv setup --config=provenv.toml --dry-run     # Simulate only
  provenv serve --config=provenv.toml               # Start daemon
  provenv inventory --env=analysis --api-url=http://remote:8080/api`,
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

// createSetupCommand creates the setup subcommand
func createSetupCommand(provenvCommand command, globalFlags *GlobalFlags, setupFlags *SetupFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Provision environments",
		Long: `Provision one named environment, or every environment in the config.
Provisioning is idempotent: environments already matching their package
specs are left untouched.

Examples:
  provenv setup --config=provenv.toml
  provenv setup --config=provenv.toml --env=analysis
  provenv setup --config=provenv.toml --dry-run
  provenv setup --env=analysis --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provenvCommand.Setup(SetupFlags{
				ConfigPath: globalFlags.ConfigPath,
				Env:        setupFlags.Env,
				DryRun:     setupFlags.DryRun,
				APIUrl:     setupFlags.APIUrl,
				APITimeout: setupFlags.APITimeout,
			})
		},
	}
	cmd.Flags().StringVar(&setupFlags.Env, "env", "", "environment name (defaults to all)")
	cmd.Flags().BoolVar(&setupFlags.DryRun, "dry-run", false, "simulate without touching the filesystem")
	cmd.Flags().StringVar(&setupFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&setupFlags.APITimeout, "api-timeout", 10*time.Minute, "request timeout")
	return cmd
}

// createInventoryCommand creates the inventory subcommand
func createInventoryCommand(provenvCommand command, globalFlags *GlobalFlags, inventoryFlags *InventoryFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Show provisioned environment fingerprints",
		Long: `Show inventory records (package manager versions and environment
digests) from the configured store or from a running daemon.

Examples:
  provenv inventory --config=provenv.toml --env=analysis
  provenv inventory --api-url=http://remote:8080/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provenvCommand.Inventory(InventoryFlags{
				ConfigPath: globalFlags.ConfigPath,
				Env:        inventoryFlags.Env,
				APIUrl:     inventoryFlags.APIUrl,
				APITimeout: inventoryFlags.APITimeout,
			})
		},
	}
	cmd.Flags().StringVar(&inventoryFlags.Env, "env", "", "environment name")
	cmd.Flags().StringVar(&inventoryFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&inventoryFlags.APITimeout, "api-timeout", 30*time.Second, "request timeout")
	return cmd
}

// createVersionCommand creates the version subcommand
func createVersionCommand(provenvCommand command, globalFlags *GlobalFlags, versionFlags *VersionFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the pip version",
		Long: `Show the pip version of the bootstrap interpreter, or of the daemon's
interpreter when --api-url is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provenvCommand.Version(VersionFlags{
				ConfigPath: globalFlags.ConfigPath,
				APIUrl:     versionFlags.APIUrl,
				APITimeout: versionFlags.APITimeout,
			})
		},
	}
	cmd.Flags().StringVar(&versionFlags.APIUrl, "api-url", "", "remote daemon URL (e.g. http://host:8080/api)")
	cmd.Flags().DurationVar(&versionFlags.APITimeout, "api-timeout", 30*time.Second, "request timeout")
	return cmd
}

// createEnvCommand creates the env subcommand
func createEnvCommand(provenvCommand command, globalFlags *GlobalFlags, envFlags *EnvFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print activation for an environment",
		Long: `Print the shell command that activates an environment's venv, or the
full set of export lines with --export.

Examples:
  provenv env --config=provenv.toml --name=analysis
  eval "$(provenv env --config=provenv.toml --name=analysis --export)"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provenvCommand.Env(EnvFlags{
				ConfigPath: globalFlags.ConfigPath,
				Name:       envFlags.Name,
				Export:     envFlags.Export,
			})
		},
	}
	cmd.Flags().StringVar(&envFlags.Name, "name", "", "environment name (required)")
	cmd.Flags().BoolVar(&envFlags.Export, "export", false, "print export lines instead of the activate command")
	if err := cmd.MarkFlagRequired("name"); err != nil {
		panic(err)
	}
	return cmd
}

// createServeCommand creates the serve subcommand
func createServeCommand(globalFlags *GlobalFlags, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Start the provenv daemon",
		Long: `Start the provenv daemon server exposing the provisioning API.
All configuration is loaded from the TOML config file.

Examples:
  provenv serve --config=provenv.toml
  provenv serve provenv.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			return runServeCommand(serveFlags, args)
		},
	}
	cmd.Flags().BoolVar(&serveFlags.DryRun, "dry-run", false, "serve in simulation mode")
	return cmd
}

// createTemplateCommand creates the template command
func createTemplateCommand(provenvCommand command, templateFlags *TemplateCreateFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Create environment templates",
		Long: `Create starter [[environments]] blocks for common environment types.
The output can be pasted into the provenv config file.

Supported template types:
  datascience - Interactive data analysis
  web         - HTTP service
  ml          - Model training
  scraping    - Web scraping
  testing     - Test tooling
  simple      - Single package

Examples:
  provenv template --type=datascience --name=analysis
  provenv template --type=web --output=./envs.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return provenvCommand.TemplateCreate(TemplateCreateFlags{
				Name:   templateFlags.Name,
				Type:   templateFlags.Type,
				Force:  templateFlags.Force,
				Output: templateFlags.Output,
			})
		},
	}
	cmd.Flags().StringVar(&templateFlags.Type, "type", "", "template type (required): datascience, web, ml, scraping, testing, simple")
	cmd.Flags().StringVar(&templateFlags.Name, "name", "", "environment name for template (defaults to type-sample)")
	cmd.Flags().StringVar(&templateFlags.Output, "output", "", "output file path (defaults to stdout)")
	cmd.Flags().BoolVar(&templateFlags.Force, "force", false, "overwrite existing output file")
	if err := cmd.MarkFlagRequired("type"); err != nil {
		panic(err)
	}
	return cmd
}
