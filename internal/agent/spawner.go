// Package agent supervises external responder processes.
//
// One spawn produces one detached child process plus two goroutines that
// live for its duration: a writer feeding the prompt to stdin, and a reader
// draining combined output into the session log. The poll loop never waits
// on a responder; liveness is tracked through the registry and re-validated
// by pid probe.
package agent

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/store"
)

// previewLen caps the per-line console echo of responder output.
const previewLen = 200

// Spawner launches responder processes for issues and registers them.
type Spawner interface {
	Spawn(issueNumber int) (*Session, error)
}

// ProcessSpawner implements Spawner using the configured responder binary.
type ProcessSpawner struct {
	Repo      string
	Responder config.ResponderConfig
	LogsDir   string
	Store     *store.Store
	Out       io.Writer
}

// Session is a handle to a running responder process.
type Session struct {
	IssueNumber int
	PID         int
	LogFile     string

	doneCh chan struct{}
	exit   error // set before doneCh closes
}

// Done returns a channel that closes when the responder exits and its
// output has been fully drained.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

// Wait blocks until the responder exits and returns its exit error, if any.
func (s *Session) Wait() error {
	<-s.doneCh
	return s.exit
}

// Spawn starts a responder for the issue. The session log file is created
// before the process so a failure after spawn still leaves an artifact. On
// a successful start the agent is registered immediately, before any output
// has been read; a process that dies right away is cleared by the next reap.
// A failed start returns an error and writes no registry entry.
func (p *ProcessSpawner) Spawn(issueNumber int) (*Session, error) {
	if p.Out == nil {
		p.Out = io.Discard
	}
	prompt := BuildPrompt(p.Repo, issueNumber)

	logPath, logFile, err := p.createSessionLog(issueNumber, prompt)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(p.Responder.Binary, p.Responder.Args...)
	if p.Responder.WorkDir != "" {
		cmd.Dir = p.Responder.WorkDir
	}
	// Own process group: the responder must survive poller shutdown. It is
	// never killed by the poll loop, only observed via the liveness probe.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("agent: stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("agent: stdout pipe: %w", err)
	}
	cmd.Stderr = cmd.Stdout // combine streams into one log

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("agent: start %s: %w", p.Responder.Binary, err)
	}

	session := &Session{
		IssueNumber: issueNumber,
		PID:         cmd.Process.Pid,
		LogFile:     logPath,
		doneCh:      make(chan struct{}),
	}

	// Register before reading any output so a second cycle sees the issue
	// as busy even if the process fails immediately afterward.
	if err := p.Store.SetActiveAgent(issueNumber, session.PID, logPath); err != nil {
		log.Printf("#%d: register agent: %v", issueNumber, err)
	}

	// Writer: feed the prompt and close stdin. Runs concurrently with the
	// reader so a child blocked on a full output buffer cannot deadlock us.
	go func() {
		if _, err := io.WriteString(stdin, prompt); err != nil {
			log.Printf("#%d: write prompt: %v", issueNumber, err)
		}
		if err := stdin.Close(); err != nil {
			log.Printf("#%d: close stdin: %v", issueNumber, err)
		}
	}()

	// Reader: drain combined output into the session log line by line,
	// echoing a truncated preview, then reap the process.
	go func() {
		defer close(session.doneCh)

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			fmt.Fprintln(logFile, line)
			if preview := truncate(line, previewLen); preview != "" {
				fmt.Fprintf(p.Out, "#%d: OUTPUT: %s\n", issueNumber, preview)
			}
		}
		if err := scanner.Err(); err != nil {
			log.Printf("#%d: read output: %v", issueNumber, err)
		}

		session.exit = cmd.Wait()

		fmt.Fprintf(logFile, "\n%s\n", separator)
		fmt.Fprintf(logFile, "Session ended: %s (exit: %v)\n",
			time.Now().Format(time.RFC3339), session.exit)
		logFile.Close()

		// Exit status is logged only; a non-zero exit never re-triggers
		// the comment.
		fmt.Fprintf(p.Out, "#%d: session ended (pid=%d, exit: %v)\n",
			issueNumber, session.PID, session.exit)
	}()

	fmt.Fprintf(p.Out, "#%d: responder started (pid=%d, log=%s)\n",
		issueNumber, session.PID, logPath)
	return session, nil
}

const separator = "============================================================"

// createSessionLog creates the uniquely named session log and writes its
// header, including the full prompt.
func (p *ProcessSpawner) createSessionLog(issueNumber int, prompt string) (string, *os.File, error) {
	if err := os.MkdirAll(p.LogsDir, 0o755); err != nil {
		return "", nil, fmt.Errorf("agent: create logs dir: %w", err)
	}

	name := fmt.Sprintf("issue-%d-%s.log", issueNumber, time.Now().Format("20060102_150405"))
	logPath := filepath.Join(p.LogsDir, name)
	logFile, err := os.Create(logPath)
	if err != nil {
		return "", nil, fmt.Errorf("agent: create session log: %w", err)
	}

	fmt.Fprintf(logFile, "%s\n", separator)
	fmt.Fprintf(logFile, "Responder Session - Issue #%d\n", issueNumber)
	fmt.Fprintf(logFile, "Started: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(logFile, "%s\n\nPROMPT:\n%s\n\n%s\nOUTPUT:\n%s\n\n",
		separator, prompt, separator, separator)

	return logPath, logFile, nil
}

// truncate trims s to at most n runes of its leading content.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
