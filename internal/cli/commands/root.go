package commands

import (
	"context"
	"fmt"
	"runtime"

	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/cli/config"
	"github.com/Foxprodev/core/internal/cli/ui"
	"github.com/Foxprodev/core/internal/kernel"
	"github.com/Foxprodev/core/internal/logging"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// env is shared by the subcommands of one root command
type env struct {
	classes   *class.Registry
	configDir string
	verbose   bool
	noColor   bool
}

// config loads apicore.yml from the configured directory, or from the
// closest parent directory holding one
func (e *env) config() (*config.Config, error) {
	dir := e.configDir
	if dir == "" {
		dir = "."
		if root, err := config.GetProjectRoot(); err == nil {
			dir = root
		}
	}
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, err
	}
	if e.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// kernel wires the application. Callers close it.
func (e *env) kernel(ctx context.Context) (*kernel.Kernel, error) {
	cfg, err := e.config()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return kernel.New(ctx, kernel.Options{Config: cfg, Classes: e.classes, Logger: logger})
}

// NewRootCommand creates the root command serving the resources of classes
func NewRootCommand(classes *class.Registry) *cobra.Command {
	e := &env{classes: classes}

	rootCmd := &cobra.Command{
		Use:   "apicore",
		Short: "Inspect and exercise API resources",
		Long: color.CyanString(`apicore - resource metadata, serialization and GraphQL tooling

apicore reads the resources registered by the application together with
apicore.yml and the resource configuration files it lists.

Features:
  • Resource and property metadata inspection
  • JSON, JSON:API, HAL, YAML, XML and CSV normalization
  • GraphQL schema generation
  • Schema migrations for PostgreSQL and SQLite`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if e.noColor {
				color.NoColor = true
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&e.configDir, "config", "c", "", "Directory holding apicore.yml (default: closest parent holding one)")
	rootCmd.PersistentFlags().BoolVarP(&e.verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&e.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newDebugResourceCommand(e))
	rootCmd.AddCommand(newDebugGraphQLCommand(e))
	rootCmd.AddCommand(newNormalizeCommand(e))
	rootCmd.AddCommand(newSchemaSQLCommand(e))
	rootCmd.AddCommand(newMigrateCommand(e))

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the apicore version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			titleColor := color.New(color.FgCyan, color.Bold)
			out := cmd.OutOrStdout()

			titleColor.Fprint(out, "apicore version: ")
			fmt.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			fmt.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			fmt.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			fmt.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute(classes *class.Registry) error {
	rootCmd := NewRootCommand(classes)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprint(rootCmd.ErrOrStderr(), ui.CommandError(err, color.NoColor))
		return err
	}
	return nil
}
