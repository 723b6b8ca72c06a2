package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show store counters and active agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	return cmd
}

func runStatus(cmd *cobra.Command, configPath string) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	counts, err := st.Count()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Processed comments: %d\n", counts.ProcessedComments)
	fmt.Fprintf(out, "Active agents: %d\n", counts.ActiveAgents)

	agents, err := st.ActiveAgents()
	if err != nil {
		return err
	}
	for _, a := range agents {
		fmt.Fprintf(out, "  #%d  pid=%d  started=%s  log=%s\n",
			a.IssueNumber, a.PID, a.StartedAt.Format(time.RFC3339), a.LogFile)
	}
	return nil
}
