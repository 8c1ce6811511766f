package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/logger"
)

// configSetters maps the keys "config set" accepts
var configSetters = map[string]func(c *config.Config, v string) error{
	"api_url":               func(c *config.Config, v string) error { c.APIURL = v; return nil },
	"api_timeout":           durationSetter(func(c *config.Config) *time.Duration { return &c.APITimeout }),
	"undo_window":           durationSetter(func(c *config.Config) *time.Duration { return &c.UndoWindow }),
	"client_id":             func(c *config.Config, v string) error { c.ClientID = v; return nil },
	"scope":                 func(c *config.Config, v string) error { c.Scope = v; return nil },
	"storage_path":          func(c *config.Config, v string) error { c.StoragePath = v; return nil },
	"log_level":             func(c *config.Config, v string) error { c.LogLevel = strings.ToUpper(v); return nil },
	"log_file":              func(c *config.Config, v string) error { c.LogFile = v; return nil },
	"theme":                 setTheme,
	"confirm_delete":        boolSetter(func(c *config.Config) *bool { return &c.Confirm }),
	"prefetch":              boolSetter(func(c *config.Config) *bool { return &c.Prefetch }),
	"log_console":           boolSetter(func(c *config.Config) *bool { return &c.LogConsole }),
	"page_sizes.todos":      sizeSetter(func(c *config.Config) *int { return &c.PageSizes.Todos }),
	"page_sizes.priorities": sizeSetter(func(c *config.Config) *int { return &c.PageSizes.Priorities }),
	"page_sizes.statuses":   sizeSetter(func(c *config.Config) *int { return &c.PageSizes.Statuses }),
}

func setTheme(c *config.Config, v string) error {
	if v != "light" && v != "dark" {
		return fmt.Errorf("theme must be light or dark")
	}
	c.Theme = v
	return nil
}

func durationSetter(field func(*config.Config) *time.Duration) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid duration %q, use values like 10s or 1m", v)
		}
		*field(c) = d
		return nil
	}
}

func boolSetter(field func(*config.Config) *bool) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", v)
		}
		*field(c) = b
		return nil
	}
}

func sizeSetter(field func(*config.Config) *int) func(*config.Config, string) error {
	return func(c *config.Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return fmt.Errorf("page size must be between 1 and 100")
		}
		*field(c) = n
		return nil
	}
}

func newConfigCmd(e *env) *cobra.Command {
	showConfig := func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(e.cfg)
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		path := e.cfgPath
		if path == "" {
			path, _ = config.Path()
		}
		e.printf("# %s\n%s", path, data)
		return nil
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change settings",
		Long: `Show or change the settings stored in ~/.irontodo/config.yaml.

Examples:
  irontodo config
  irontodo config set api_url http://localhost:8000/api/v1
  irontodo config set page_sizes.todos 25`,
		RunE: showConfig,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		RunE:  showConfig,
	}

	setCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Change one setting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			set, ok := configSetters[key]
			if !ok {
				return fmt.Errorf("unknown setting %q", key)
			}
			if err := set(e.cfg, value); err != nil {
				return err
			}
			if err := e.saveConfig(); err != nil {
				return err
			}

			// The theme also lives next to the session so the TUI picks it up
			if key == "theme" {
				if a, err := e.App(); err == nil {
					if err := a.Session.SetTheme(value); err != nil {
						logger.Warn("Failed to store theme", logger.F("error", err))
					}
				}
			}

			e.printf("✓ %s = %s\n", key, value)
			return nil
		},
	}

	configCmd.AddCommand(showCmd, setCmd)
	return configCmd
}
