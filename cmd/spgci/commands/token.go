package commands

import (
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/spgci/spgci-go/pkg/auth"
	"github.com/spgci/spgci-go/pkg/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Fetch an access token and print it",
	Long:  "Fetch an access token for the configured credentials. Useful for checking credentials or calling the API with curl.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		var redisClient *redis.Client
		if redisURL != "" {
			redisClient = redis.NewClient(&redis.Options{Addr: redisURL})
		}

		tokens, err := auth.NewTokenSource(auth.Config{
			BaseURL:    cfg.BaseURL,
			Username:   cfg.Username,
			Password:   cfg.Password,
			AppKey:     cfg.AppKey,
			UserAgent:  cfg.UserAgent,
			HTTPClient: &http.Client{Timeout: cfg.Timeout},
			Redis:      redisClient,
		})
		if err != nil {
			return err
		}

		token, err := tokens.Token(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}
