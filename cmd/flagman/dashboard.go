package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/flagman/internal/dashboard"
)

func newDashboardCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve the read-only status dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			if port == 0 {
				port = cfg.Dashboard.Port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return dashboard.Start(ctx, dashboard.StartOpts{
				Store: st,
				Port:  port,
				Out:   cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (defaults to dashboard.port)")
	return cmd
}
