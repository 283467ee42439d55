package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/fsearch/configs"
	"github.com/Aman-CERP/fsearch/internal/config"
	"github.com/Aman-CERP/fsearch/internal/output"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the user and project configuration files.

Configuration precedence (lowest to highest):
  1. Hardcoded defaults
  2. User config ($XDG_CONFIG_HOME/fsearch/config.yaml)
  3. Project config (.fsearch.yaml)
  4. Environment variables (FSEARCH_*)
  5. Command line flags`,
		Example: `  # Create the user config from a template
  fsearch config init

  # Show the effective configuration
  fsearch config show

  # Print the user config file path
  fsearch config path`,
	}

	cmd.AddCommand(newConfigInitCmd(a))
	cmd.AddCommand(newConfigShowCmd(a))
	cmd.AddCommand(newConfigPathCmd(a))
	cmd.AddCommand(newConfigRestoreCmd(a))

	return cmd
}

func newConfigInitCmd(a *app) *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Create the user configuration file from a template, or with --project
the project file .fsearch.yaml in the project root.

With --force an existing user config is backed up and rewritten with every
option spelled out, keeping your values.`,
		RunE: a.wrap(func(cmd *cobra.Command, _ []string) error {
			out := output.New(cmd.OutOrStdout())
			if project {
				return initProjectConfig(out, a.root, force)
			}
			return initUserConfig(out, force)
		}),
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create .fsearch.yaml in the project root")

	return cmd
}

func initUserConfig(out *output.Writer, force bool) error {
	configPath := config.GetUserConfigPath()

	if config.UserConfigExists() {
		if !force {
			out.Warning("User configuration already exists")
			out.Statusf("", "Location: %s", configPath)
			out.Status("", "Use --force to rewrite it with every option (your values are kept)")
			return nil
		}
		return upgradeUserConfig(out, configPath)
	}

	if err := os.MkdirAll(config.GetUserConfigDir(), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(configs.UserConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created user configuration")
	out.Statusf("", "Location: %s", configPath)
	out.Status("", "Run 'fsearch config show' to verify")
	return nil
}

// upgradeUserConfig backs up the user config and rewrites it in full.
func upgradeUserConfig(out *output.Writer, configPath string) error {
	backupPath, err := config.BackupUserConfig()
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}

	existing, err := config.LoadUserConfig()
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("config file disappeared during upgrade")
	}
	if err := existing.WriteYAML(configPath); err != nil {
		return err
	}

	out.Success("Configuration rewritten")
	out.Statusf("", "Location: %s", configPath)
	out.Statusf("", "Backup: %s", backupPath)
	return nil
}

func initProjectConfig(out *output.Writer, root string, force bool) error {
	path := filepath.Join(root, ".fsearch.yaml")
	if existing := config.ProjectConfigPath(root); existing != "" && !force {
		out.Warning("Project configuration already exists")
		out.Statusf("", "Location: %s", existing)
		return nil
	}
	if err := os.WriteFile(path, []byte(configs.ProjectConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	out.Success("Created project configuration")
	out.Statusf("", "Location: %s", path)
	return nil
}

func newConfigShowCmd(a *app) *cobra.Command {
	var (
		jsonOutput bool
		source     string
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging all sources, or a single source
with --source user, project or defaults.`,
		RunE: a.wrap(func(cmd *cobra.Command, _ []string) error {
			cfg, desc, err := configFromSource(a, source)
			if err != nil {
				return err
			}
			if cfg == nil {
				output.New(cmd.OutOrStdout()).Warning(fmt.Sprintf("No %s configuration file found", source))
				return nil
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n%s", desc, data)
			return err
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&source, "source", "merged", "Config source: merged, user, project, defaults")

	return cmd
}

// configFromSource returns the requested configuration. A missing user or
// project file yields a nil config.
func configFromSource(a *app, source string) (*config.Config, string, error) {
	switch source {
	case "merged":
		return a.cfg, "merged (defaults + user + project + env)", nil
	case "user":
		cfg, err := config.LoadUserConfig()
		return cfg, "user (" + config.GetUserConfigPath() + ")", err
	case "project":
		path := config.ProjectConfigPath(a.root)
		if path == "" {
			return nil, "", nil
		}
		cfg, err := config.LoadFile(path)
		return cfg, "project (" + path + ")", err
	case "defaults":
		return config.NewConfig(), "defaults", nil
	default:
		return nil, "", fmt.Errorf("invalid source: %s (use: merged, user, project, defaults)", source)
	}
}

func newConfigPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the user config file path",
		RunE: a.wrap(func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), config.GetUserConfigPath())
			return err
		}),
	}
}

func newConfigRestoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore [backup]",
		Short: "Restore the user config from a backup",
		Long: `Restore the user configuration from a backup made by 'config init --force'.
Without an argument the newest backup is used. The current file is backed up
first.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.wrap(func(cmd *cobra.Command, args []string) error {
			out := output.New(cmd.OutOrStdout())

			var backup string
			if len(args) == 1 {
				backup = args[0]
			} else {
				backups, err := config.ListUserConfigBackups()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					out.Warning("No backups found")
					return nil
				}
				backup = backups[0]
			}

			if err := config.RestoreUserConfig(backup); err != nil {
				return err
			}
			out.Success("Configuration restored")
			out.Statusf("", "From: %s", backup)
			return nil
		}),
	}
	return cmd
}
