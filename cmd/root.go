// Package cmd provides the command-line interface for stencil.
//
// Configuration sources, in precedence order: command-line flags, STENCIL_
// environment variables (STENCIL_PATHS_TEMPLATES, STENCIL_WATCH_DEBOUNCE,
// ...), and an optional .stencil.yml in the working directory.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"stencil/internal/config"
	"stencil/internal/engine"
)

var (
	cfgFile    string
	watchFlag  bool
	listFlag   bool
	quietFlag  bool
	listFormat string
	verbosity  int
)

// errRenderFailed is the aggregate failure signal; cobra reports it and
// main turns it into exit code 1.
var errRenderFailed = errors.New("one or more renders failed")

var rootCmd = &cobra.Command{
	Use:   "stencil [template[:variant]]",
	Short: "Render parameterized templates with variable inheritance",
	Long: `Stencil renders text templates into Markdown documents. Each template has
named variants: variables/<name>/default.json is the base variable set and
variables/<name>/<variant>.json overrides it per key.

Examples:
  stencil                      Render every template and variant
  stencil planner              Render every variant of "planner"
  stencil planner:compact      Render exactly that pair
  stencil --watch              Initial render, then re-render on change
  stencil --list -f yaml       Print the catalog as YAML`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (default is .stencil.yml)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "watch for changes and re-render")
	rootCmd.Flags().BoolVarP(&listFlag, "list", "l", false, "list templates and variants, render nothing")
	rootCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress status and diff output")
	rootCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "list output format (table, json, yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".stencil")
	}

	viper.SetEnvPrefix("STENCIL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Missing or unreadable config files fall back to defaults.
	_ = viper.ReadInConfig()
}

func runRoot(cmd *cobra.Command, args []string) error {
	setupLogging(verbosity)

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	if listFlag {
		return runList(cfg, listFormat, os.Stdout)
	}

	eng := engine.New(cfg, engine.WithQuiet(quietFlag))

	if watchFlag {
		return runWatch(cmd.Context(), cfg, eng)
	}

	ok := false
	if len(args) > 0 {
		name, variant := parseTarget(args[0])
		ok = eng.RenderTemplate(name, variant, true)
	} else {
		ok = eng.RenderAll(false)
	}
	if !ok {
		return errRenderFailed
	}
	return nil
}

// parseTarget splits a "template:variant" argument; the variant is empty
// when the argument names only a template.
func parseTarget(arg string) (name, variant string) {
	if i := strings.Index(arg, ":"); i >= 0 {
		return arg[:i], arg[i+1:]
	}
	return arg, ""
}
