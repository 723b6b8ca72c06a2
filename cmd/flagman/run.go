package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// maxPromptSize caps the prompt sent to a single-shot responder. Oversized
// prompts keep their trailing portion, which carries the most recent
// context.
const maxPromptSize = 50000

func newRunCmd() *cobra.Command {
	var (
		model      string
		promptFile string
		workDir    string
		binary     string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one responder invocation directly",
		Long:  "Standalone single-shot wrapper: sends a prompt file to the responder with a hard wall-clock timeout. Shares no state with the poll loop's store.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runResponder(cmd, model, promptFile, workDir, binary, timeout)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "responder model identifier")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "path to file containing the prompt")
	cmd.Flags().StringVar(&workDir, "workdir", "", "working directory for the responder")
	cmd.Flags().StringVar(&binary, "binary", "claude", "responder binary")
	cmd.Flags().DurationVar(&timeout, "timeout", 20*time.Minute, "hard wall-clock timeout")
	cmd.MarkFlagRequired("model")
	cmd.MarkFlagRequired("prompt-file")
	cmd.MarkFlagRequired("workdir")
	return cmd
}

func runResponder(cmd *cobra.Command, model, promptFile, workDir, binary string, timeout time.Duration) error {
	data, err := os.ReadFile(promptFile)
	if err != nil {
		return fmt.Errorf("read prompt file: %w", err)
	}

	prompt := truncatePrompt(string(data), maxPromptSize)
	if len(prompt) != len(data) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Truncated prompt from %d to %d chars\n", len(data), len(prompt))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	proc := exec.CommandContext(ctx, binary,
		"--model", model,
		"--permission-mode", "bypassPermissions",
		"-p", "-",
	)
	proc.Dir = workDir
	proc.Stdin = strings.NewReader(prompt)
	proc.Stdout = cmd.OutOrStdout()
	proc.Stderr = cmd.ErrOrStderr()

	err = proc.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("responder timed out after %s", timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Responder exited with code %d\n", exitErr.ExitCode())
		os.Exit(exitErr.ExitCode())
	}
	if err != nil {
		return fmt.Errorf("run responder: %w", err)
	}
	return nil
}

// truncatePrompt keeps the trailing max bytes of an oversized prompt,
// prefixed with a truncation marker.
func truncatePrompt(prompt string, max int) string {
	if len(prompt) <= max {
		return prompt
	}
	return "...[truncated]\n\n" + prompt[len(prompt)-max:]
}
