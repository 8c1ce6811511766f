package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/existflow/irontodo/internal/app"
	"github.com/existflow/irontodo/internal/config"
	"github.com/existflow/irontodo/internal/logger"
	"github.com/existflow/irontodo/internal/tui"
)

// Options overrides the process defaults of the command tree
type Options struct {
	Config     *config.Config // used as is instead of ~/.irontodo/config.yaml
	ConfigPath string         // where "config set" writes, default ~/.irontodo/config.yaml
	In         io.Reader
	Out        io.Writer
}

// env is the state shared by every command of one invocation
type env struct {
	cfg     *config.Config
	cfgPath string
	persist bool // cfg came from the config file; flag overrides are saved
	app     *app.App

	rawIn io.Reader
	in    *bufio.Reader
	out   io.Writer
}

// App opens the application container on first use
func (e *env) App() (*app.App, error) {
	if e.app != nil {
		return e.app, nil
	}
	a, err := app.New(e.cfg)
	if err != nil {
		return nil, err
	}
	e.app = a
	return a, nil
}

// session returns the app, failing when nobody is logged in
func (e *env) session() (*app.App, error) {
	a, err := e.App()
	if err != nil {
		return nil, err
	}
	if !a.Session.Authenticated() {
		return nil, fmt.Errorf("not logged in, run: irontodo auth login")
	}
	return a, nil
}

func (e *env) saveConfig() error {
	if e.cfgPath != "" {
		return e.cfg.SaveFile(e.cfgPath)
	}
	return e.cfg.Save()
}

func (e *env) close() {
	if e.app != nil {
		if err := e.app.Close(); err != nil {
			logger.Warn("Failed to close app", logger.F("error", err))
		}
		e.app = nil
	}
}

func (e *env) readLine(prompt string) (string, error) {
	fmt.Fprint(e.out, prompt)
	line, err := e.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// readPassword reads without echo on a terminal and a plain line otherwise
func (e *env) readPassword(prompt string) (string, error) {
	if f, ok := e.rawIn.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(e.out, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.out)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return e.readLine(prompt)
}

func (e *env) confirm(prompt string) bool {
	answer, err := e.readLine(prompt + " [y/N]: ")
	if err != nil {
		return false
	}
	return strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes")
}

func (e *env) printf(format string, args ...interface{}) {
	fmt.Fprintf(e.out, format, args...)
}

// NewRootCmd builds the irontodo command tree
func NewRootCmd(opts Options) *cobra.Command {
	e := &env{cfg: opts.Config, cfgPath: opts.ConfigPath, rawIn: opts.In, out: opts.Out}
	if e.rawIn == nil {
		e.rawIn = os.Stdin
	}
	if e.out == nil {
		e.out = os.Stdout
	}
	e.in = bufio.NewReader(e.rawIn)

	var (
		logLevel   string
		logFile    string
		logConsole bool
		apiURL     string
	)

	rootCmd := &cobra.Command{
		Use:   "irontodo",
		Short: "IronTodo - terminal client for the todo API",
		Long: `IronTodo is a terminal client for a todo REST API with
priorities, statuses and paginated lists.

Run 'irontodo' without arguments to launch the interactive TUI.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg == nil {
				load := config.Load
				if e.cfgPath != "" {
					load = func() (*config.Config, error) { return config.LoadFile(e.cfgPath) }
				}
				cfg, err := load()
				if err != nil {
					logger.Warn("Failed to load config, using defaults", logger.F("error", err))
					cfg = config.DefaultConfig()
				}
				e.cfg = cfg
				e.persist = true
			}
			cfg := e.cfg

			// Override with CLI flags if provided
			configChanged := false
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
				configChanged = true
			}
			if cmd.Flags().Changed("log-file") {
				cfg.LogFile = logFile
				configChanged = true
			}
			if cmd.Flags().Changed("log-console") {
				cfg.LogConsole = logConsole
				configChanged = true
			}
			if cmd.Flags().Changed("api-url") {
				cfg.APIURL = apiURL
				configChanged = true
			}

			if configChanged && e.persist {
				if err := e.saveConfig(); err != nil {
					logger.Warn("Failed to save config", logger.F("error", err))
				}
			}

			logConfig := logger.Config{
				Level:      logger.ParseLevel(cfg.LogLevel),
				FilePath:   cfg.LogFile,
				MaxSize:    10 * 1024 * 1024, // 10MB
				MaxAge:     7,
				MaxBackups: 5,
				Console:    cfg.LogConsole,
			}
			if err := logger.Init(logConfig); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			logger.Info("IronTodo started", logger.F("command", cmd.Name()))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.App()
			if err != nil {
				return err
			}

			logger.Info("Launching TUI")
			if err := tui.Run(cmd.Context(), a); err != nil {
				logger.Error("TUI error", logger.F("error", err))
				return fmt.Errorf("failed to run TUI: %w", err)
			}

			logger.Info("TUI exited normally")
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			e.close()
			logger.Info("IronTodo exiting", logger.F("command", cmd.Name()))
			logger.Close()
		},
	}

	rootCmd.SetOut(e.out)
	rootCmd.SetErr(e.out)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Path to log file")
	rootCmd.PersistentFlags().BoolVar(&logConsole, "log-console", false, "Enable console logging")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Base URL of the todo API")

	rootCmd.AddCommand(newAuthCmd(e))
	rootCmd.AddCommand(newListCmd(e))
	rootCmd.AddCommand(newAddCmd(e))
	rootCmd.AddCommand(newDoneCmd(e))
	rootCmd.AddCommand(newEditCmd(e))
	rootCmd.AddCommand(newDeleteCmd(e))
	rootCmd.AddCommand(newPriorityCmd(e))
	rootCmd.AddCommand(newStatusCmd(e))
	rootCmd.AddCommand(newConfigCmd(e))
	rootCmd.AddCommand(newClearCmd(e))
	return rootCmd
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd(Options{}).ExecuteContext(context.Background())
}
