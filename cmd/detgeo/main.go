// Command detgeo evaluates detector geometry scripts and prints the
// resulting layers, their approach faces and optional meshes as JSON.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/chazu/detgeo/pkg/config"
	"github.com/chazu/detgeo/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// errBuildFailed marks a script that did not produce a catalog.
var errBuildFailed = errors.New("geometry build failed")

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "detgeo:", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var configDir string

	root := &cobra.Command{
		Use:           "detgeo",
		Short:         "Build and inspect tracking detector layers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configDir == "" {
				config.SetDefaults()
			} else if err := config.Load(configDir); err != nil {
				return err
			}
			// Flags win over the file.
			if err := viper.BindPFlag("logLevel", cmd.Flag("log-level")); err != nil {
				return err
			}
			return viper.BindPFlag("logFormat", cmd.Flag("log-format"))
		},
	}
	root.PersistentFlags().StringVar(&configDir, "config", "", "directory containing "+config.FileName)
	root.PersistentFlags().String("log-level", "info", "DEBUG, INFO, WARN, ERROR or TRACE")
	root.PersistentFlags().String("log-format", config.LogFormatConsole, "console or json")

	root.AddCommand(newEvalCmd(stdout, stderr))
	return root
}

func newEvalCmd(stdout, stderr io.Writer) *cobra.Command {
	var mo MeshOptions

	cmd := &cobra.Command{
		Use:   "eval <script>",
		Short: "Evaluate a geometry script and print its layers as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Current()
			if err != nil {
				return err
			}
			src, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading script: %w", err)
			}

			log := newLogger(stderr, settings).With().Str("script", args[0]).Logger()
			result := NewApp(settings, log).Evaluate(string(src), mo)

			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("writing result: %w", err)
			}
			if !result.OK() {
				return fmt.Errorf("%w: %d error(s)", errBuildFailed, len(result.Errors))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&mo.Enabled, "mesh", false, "include slab meshes")
	cmd.Flags().BoolVar(&mo.Approach, "approach", false, "with --mesh, include approach face meshes")
	cmd.Flags().BoolVar(&mo.Modules, "modules", false, "with --mesh, include sensitive module meshes")
	return cmd
}

func newLogger(w io.Writer, s config.Settings) zerolog.Logger {
	if s.LogFormat == config.LogFormatJSON {
		return logging.NewJSON(w, s.LogLevel)
	}
	return logging.New(w, s.LogLevel)
}
