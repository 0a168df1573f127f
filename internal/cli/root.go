// Package cli implements the neighbour command line.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hupe1980/neighbour/internal/appconfig"
)

var (
	appVersion = "dev"
	appCommit  = "none"
)

// app carries state shared by the subcommands of one root command.
type app struct {
	v       *viper.Viper
	cfgFile string
	envFile string
	cfg     *appconfig.Config
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:           "neighbour",
		Short:         "neighbour: find the horses most similar to yours",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (commit: %s)", appVersion, appCommit),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := appconfig.LoadDotEnv(a.envFile); err != nil {
				return err
			}
			cfg, err := appconfig.Load(a.v, a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgFile, "config", "c", "", "config file (yaml, json or toml)")
	pf.StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")
	pf.String("data-dir", "", "directory holding the local artifact copies")
	pf.String("index", "", "neighbour index kind (hnsw or flat)")
	pf.String("metric", "", "flat index distance (euclidean, sqeuclidean or cosine)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text or json)")

	bind(a.v, "data_dir", pf.Lookup("data-dir"))
	bind(a.v, "index.kind", pf.Lookup("index"))
	bind(a.v, "index.metric", pf.Lookup("metric"))
	bind(a.v, "log.level", pf.Lookup("log-level"))
	bind(a.v, "log.format", pf.Lookup("log-format"))

	root.AddCommand(
		newServeCmd(a),
		newQueryCmd(a),
		newFetchCmd(a),
	)

	return root
}

// Execute runs the root command and exits non-zero on error.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		stop()
		os.Exit(1)
	}
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit string) {
	appVersion = version
	appCommit = commit
}
