package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/zulandar/flagman/internal/config"
)

func newLogsCmd() *cobra.Command {
	var (
		configPath string
		issue      int
		lines      int
		follow     bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View responder session logs",
		Long:  "Lists session log files for an issue and tails the most recent one. Use --follow to keep printing as the responder writes.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, configPath, issue, lines, follow)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "flagman.yaml", "path to Flagman config file")
	cmd.Flags().IntVar(&issue, "issue", 0, "issue number (required)")
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing new output every 2s")
	cmd.MarkFlagRequired("issue")
	return cmd
}

func runLogs(cmd *cobra.Command, configPath string, issue, lines int, follow bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	matches, err := sessionLogs(cfg.LogsDir(), issue)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No session logs for issue #%d\n", issue)
		return nil
	}

	out := cmd.OutOrStdout()
	latest := matches[len(matches)-1]
	fmt.Fprintf(out, "Session log: %s\n", latest)

	offset, err := printTail(out, latest, lines)
	if err != nil {
		return err
	}
	if !follow {
		return nil
	}

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case <-time.After(2 * time.Second):
		}
		offset, err = printFrom(out, latest, offset)
		if err != nil {
			return err
		}
	}
}

// sessionLogs returns the issue's session log paths, oldest first. The
// timestamped naming scheme makes lexical order chronological.
func sessionLogs(logsDir string, issue int) ([]string, error) {
	pattern := filepath.Join(logsDir, fmt.Sprintf("issue-%d-*.log", issue))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("glob session logs: %w", err)
	}
	sort.Strings(matches)
	return matches, nil
}

// printTail prints the last n lines of the file and returns the file size,
// for use as a follow offset.
func printTail(out io.Writer, path string, n int) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read session log: %w", err)
	}

	all := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(all) > n {
		all = all[len(all)-n:]
	}
	for _, line := range all {
		fmt.Fprintln(out, line)
	}
	return int64(len(data)), nil
}

// printFrom prints anything appended past offset and returns the new offset.
func printFrom(out io.Writer, path string, offset int64) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return offset, fmt.Errorf("open session log: %w", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek session log: %w", err)
	}
	n, err := io.Copy(out, f)
	if err != nil {
		return offset, fmt.Errorf("copy session log: %w", err)
	}
	return offset + n, nil
}
