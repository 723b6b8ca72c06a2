package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zulandar/flagman/internal/agent"
	"github.com/zulandar/flagman/internal/classify"
	"github.com/zulandar/flagman/internal/notify"
	"github.com/zulandar/flagman/internal/poller"
	"github.com/zulandar/flagman/internal/tracker"
)

func newPollCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "poll",
		Short: "Run the polling daemon",
		Long:  "Seeds the store with existing comments, then polls labeled issues on a fixed interval, spawning one responder per new human comment. Stop with Ctrl+C; running responders are left detached.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoll(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	return cmd
}

func runPoll(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	gh := tracker.NewGitHub(cfg.Owner(), cfg.Name(), cfg.Label, cfg.Token)

	spawner := &agent.ProcessSpawner{
		Repo:      cfg.Repo,
		Responder: cfg.Responder,
		LogsDir:   cfg.LogsDir(),
		Store:     st,
		Out:       out,
	}

	notifier := notify.New(cfg.Notify)

	p, err := poller.New(poller.Opts{
		Config:     cfg,
		Store:      st,
		Tracker:    gh,
		Classifier: classify.New(cfg.ExtraBotSignatures),
		Spawner:    spawner,
		Notifier:   notifier,
		Out:        out,
	})
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 60)
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Starting Flagman issue poller")
	fmt.Fprintf(out, "  Repo: %s\n", cfg.Repo)
	fmt.Fprintf(out, "  Label: %s\n", cfg.Label)
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.Interval())
	fmt.Fprintf(out, "  Store: %s (%s)\n", cfg.DB.Backend, cfg.DB.Path)
	fmt.Fprintf(out, "  Logs dir: %s\n", cfg.LogsDir())
	fmt.Fprintln(out, rule)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.Seed(ctx); err != nil {
		return err
	}

	if err := notify.StartDigest(ctx, cfg.Notify.DigestCron, st.Count, notifier); err != nil {
		return err
	}

	p.Run(ctx)

	if sqlDB, err := st.DB().DB(); err == nil {
		sqlDB.Close()
	}
	fmt.Fprintln(out, "Store closed")
	return nil
}
