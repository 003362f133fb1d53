package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"adsreporter/internal/infrastructure"
	"adsreporter/pkg/config"
	"adsreporter/pkg/logger"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the stored Graph API access token",
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store an access token for the next server start",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := strings.TrimSpace(args[0])
		if token == "" {
			return fmt.Errorf("token must not be empty")
		}
		return withCredentialStore(func(ctx context.Context, store *infrastructure.BoltCredentialStore) error {
			if err := store.Save(ctx, token); err != nil {
				return err
			}
			fmt.Println("Token stored")
			return nil
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentialStore(func(ctx context.Context, store *infrastructure.BoltCredentialStore) error {
			if err := store.Clear(ctx); err != nil {
				return err
			}
			fmt.Println("Token cleared")
			return nil
		})
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a masked form of the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCredentialStore(func(ctx context.Context, store *infrastructure.BoltCredentialStore) error {
			token, err := store.Load(ctx)
			if err != nil {
				return err
			}
			if token == "" {
				fmt.Println("No token stored")
				return nil
			}
			fmt.Printf("Token: %s\n", maskToken(token))
			return nil
		})
	},
}

func init() {
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd, tokenShowCmd)
}

func withCredentialStore(fn func(ctx context.Context, store *infrastructure.BoltCredentialStore) error) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	db, err := infrastructure.OpenDB(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := infrastructure.NewBoltCredentialStore(db, logger.New(cfg.Logging.Level))
	if err != nil {
		return err
	}
	return fn(context.Background(), store)
}

// maskToken keeps the first and last four characters.
func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
