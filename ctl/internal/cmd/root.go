// Package cmd implements the alertctl command tree.
package cmd

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciops/alertdesk/pkg/client"
)

const envPrefix = "ALERTCTL"

// globalOptions are resolved from flags, ALERTCTL_* env vars and
// ~/.alertctl.yaml, in that order of precedence.
type globalOptions struct {
	v *viper.Viper
}

func (o *globalOptions) client() *client.Client {
	return client.New(o.v.GetString("server"),
		client.WithAPIKey(o.v.GetString("api-key-header"), o.v.GetString("api-key")))
}

// NewCmdRoot returns the alertctl root command.
func NewCmdRoot() *cobra.Command {
	opts := &globalOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:               "alertctl",
		Short:             "Operate an alertdesk server",
		Long:              `Lists and acknowledges alerts and manages team webhooks on an alertdesk server.`,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("server", "http://localhost:8080", "alertdesk server URL")
	pf.String("api-key", "", "API key for mutating requests")
	pf.String("api-key-header", client.DefaultAPIKeyHeader, "header carrying the API key")
	pf.String("config", "", "config file (default ~/.alertctl.yaml)")

	rootCmd.AddCommand(newCmdAlerts(opts))
	rootCmd.AddCommand(newCmdMetrics(opts))
	rootCmd.AddCommand(newCmdRefresh(opts))
	rootCmd.AddCommand(newCmdWebhooks(opts))

	return rootCmd
}

func (o *globalOptions) load(cmd *cobra.Command) error {
	v := o.v
	if err := v.BindPFlags(cmd.Root().PersistentFlags()); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.SetConfigFile(filepath.Join(home, ".alertctl.yaml"))
	}
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
