// Package commands implements the spgci command line interface.
package commands

import (
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/spgci/spgci-go/pkg/client"
	"github.com/spgci/spgci-go/pkg/config"
	"github.com/spgci/spgci-go/pkg/logging"
)

// Root command flags
var (
	cfgFile  string
	logLevel string
	pretty   bool
	redisURL string
)

var rootCmd = &cobra.Command{
	Use:     "spgci",
	Short:   "Query S&P Global Commodity Insights data from the command line",
	Version: config.Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(logging.Config{
			Level:  logging.LogLevel(logLevel),
			Pretty: pretty,
			Output: cmd.ErrOrStderr(),
		})
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (credentials also read from SPGCI_* environment variables)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&pretty, "pretty", false, "human-readable log output")
	rootCmd.PersistentFlags().StringVar(&redisURL, "redis", "", "redis address for the shared token store and response cache")
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		log.Error().Msg(err.Error())
		return 1
	}
	return 0
}

// newClient builds an API client from the resolved configuration.
func newClient() (*client.Client, config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, config.Config{}, err
	}

	var redisClient *redis.Client
	if redisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	c, err := client.NewFromConfig(cfg, redisClient)
	if err != nil {
		return nil, config.Config{}, err
	}
	return c, cfg, nil
}
