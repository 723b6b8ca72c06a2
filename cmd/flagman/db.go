package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/db"
	"github.com/zulandar/flagman/internal/store"
)

func newDBCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Store management commands",
	}

	cmd.AddCommand(newDBInitCmd())
	cmd.AddCommand(newDBResetCmd())
	return cmd
}

func newDBInitCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the Flagman store",
		Long:  "Opens the configured store backend and migrates the dedup and registry tables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := openStore(configPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Store ready (%s backend)\n", cfg.DB.Backend)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	return cmd
}

func newDBResetCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop and recreate the store tables",
		Long:  "Destroys all dedup and registry state. The next poll run re-seeds from current issue history.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			conn, err := db.Connect(cfg.DB)
			if err != nil {
				return err
			}
			if err := db.Reset(conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Store reset.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	return cmd
}

// openStore loads the config, opens the configured backend, migrates it,
// and wraps it in a Store. An unreachable store is fatal to every command
// that needs one; the loop cannot guarantee idempotency without it.
func openStore(configPath string) (*config.Config, *store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	conn, err := db.Connect(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if err := db.AutoMigrate(conn); err != nil {
		return nil, nil, err
	}
	return cfg, store.New(conn), nil
}
