package agent

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/models"
	"github.com/zulandar/flagman/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.ProcessedComment{}, &models.ActiveAgent{}); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return store.New(db)
}

func newTestSpawner(t *testing.T, binary string, args []string) (*ProcessSpawner, *store.Store, *bytes.Buffer) {
	t.Helper()
	st := openTestStore(t)
	out := &bytes.Buffer{}
	return &ProcessSpawner{
		Repo:      "acme/widgets",
		Responder: config.ResponderConfig{Binary: binary, Args: args},
		LogsDir:   t.TempDir(),
		Store:     st,
		Out:       out,
	}, st, out
}

func TestSpawn_EchoResponder(t *testing.T) {
	// cat echoes the prompt back, standing in for a real responder.
	sp, st, _ := newTestSpawner(t, "cat", nil)

	session, err := sp.Spawn(42)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if session.PID <= 0 {
		t.Errorf("PID = %d, want > 0", session.PID)
	}

	// Registered immediately, before output was drained.
	agents, err := st.ActiveAgents()
	if err != nil {
		t.Fatalf("ActiveAgents: %v", err)
	}
	if len(agents) != 1 || agents[0].IssueNumber != 42 || agents[0].PID != session.PID {
		t.Fatalf("registry = %+v, want one entry for #42 pid %d", agents, session.PID)
	}
	if agents[0].LogFile != session.LogFile {
		t.Errorf("registry log = %q, want %q", agents[0].LogFile, session.LogFile)
	}

	if err := session.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	data, err := os.ReadFile(session.LogFile)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	log := string(data)
	if !strings.Contains(log, "Responder Session - Issue #42") {
		t.Error("session log missing header")
	}
	if !strings.Contains(log, "responding to GitHub issue #42") {
		t.Error("session log missing prompt")
	}
	// cat echoed the prompt, so the output section repeats it.
	if !strings.Contains(log, "Session ended:") {
		t.Error("session log missing footer")
	}
}

func TestSpawn_FailureLeavesNoRegistryEntry(t *testing.T) {
	sp, st, _ := newTestSpawner(t, filepath.Join(t.TempDir(), "missing-binary"), nil)

	if _, err := sp.Spawn(7); err == nil {
		t.Fatal("expected spawn error for missing binary")
	}

	agents, err := st.ActiveAgents()
	if err != nil {
		t.Fatalf("ActiveAgents: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("registry = %+v, want empty after failed spawn", agents)
	}
}

func TestSpawn_StreamsOutputPreview(t *testing.T) {
	sp, _, out := newTestSpawner(t, "sh", []string{"-c", "cat >/dev/null; echo hello from responder"})

	session, err := sp.Spawn(9)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if err := session.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	if !strings.Contains(out.String(), "#9: OUTPUT: hello from responder") {
		t.Errorf("console preview missing responder output:\n%s", out.String())
	}

	data, err := os.ReadFile(session.LogFile)
	if err != nil {
		t.Fatalf("read session log: %v", err)
	}
	if !strings.Contains(string(data), "hello from responder") {
		t.Error("session log missing responder output")
	}
}

func TestSpawn_NonZeroExitIsReported(t *testing.T) {
	sp, _, out := newTestSpawner(t, "sh", []string{"-c", "cat >/dev/null; exit 3"})

	session, err := sp.Spawn(5)
	if err != nil {
		t.Fatalf("Spawn: %v", err)
	}
	if waitErr := session.Wait(); waitErr == nil {
		t.Fatal("expected non-zero exit error")
	}
	if !strings.Contains(out.String(), "session ended") {
		t.Errorf("missing session end line:\n%s", out.String())
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate("abcdefghij", 4); got != "abcd" {
		t.Errorf("truncate = %q, want abcd", got)
	}
}
