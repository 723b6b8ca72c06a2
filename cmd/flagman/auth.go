package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/tracker"
)

func newAuthCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Verify GitHub access for the configured repository",
		Long:  "Checks the configured token (or GITHUB_TOKEN) against the repository. Prompts for a token without echo when none is configured.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAuth(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	return cmd
}

func runAuth(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	out := cmd.OutOrStdout()

	token := cfg.Token
	if token == "" {
		fmt.Fprint(out, "GitHub token: ")
		raw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(out)
		if err != nil {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(string(raw))
	}

	gh := tracker.NewGitHub(cfg.Owner(), cfg.Name(), cfg.Label, token)
	if err := gh.Verify(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(out, "Access to %s verified.\n", cfg.Repo)
	if cfg.Token == "" && token != "" {
		fmt.Fprintln(out, "Set this token in flagman.yaml (token:) or export GITHUB_TOKEN.")
	}
	return nil
}
