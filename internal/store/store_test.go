package store

import (
	"os"
	"testing"

	"github.com/zulandar/flagman/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestStore(t *testing.T) *Store {
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
	return New(db)
}

func TestMarkProcessed_Idempotent(t *testing.T) {
	st := openTestStore(t)

	processed, err := st.IsProcessed(100)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if processed {
		t.Fatal("comment 100 should not be processed yet")
	}

	if err := st.MarkProcessed(100, 7); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	// Redundant mark must be a no-op, not an error.
	if err := st.MarkProcessed(100, 7); err != nil {
		t.Fatalf("redundant MarkProcessed: %v", err)
	}

	processed, err = st.IsProcessed(100)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatal("comment 100 should be processed")
	}

	var count int64
	st.db.Model(&models.ProcessedComment{}).Count(&count)
	if count != 1 {
		t.Errorf("processed rows = %d, want 1", count)
	}
}

func TestMarkProcessed_NegativePseudoComment(t *testing.T) {
	st := openTestStore(t)

	if err := st.MarkProcessed(-42, 42); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}
	processed, err := st.IsProcessed(-42)
	if err != nil {
		t.Fatalf("IsProcessed: %v", err)
	}
	if !processed {
		t.Fatal("pseudo-comment -42 should be processed")
	}
}

func TestHasActiveAgent_Alive(t *testing.T) {
	st := openTestStore(t).WithProbe(func(pid int) bool { return true })

	if err := st.SetActiveAgent(42, 1234, "/tmp/issue-42.log"); err != nil {
		t.Fatalf("SetActiveAgent: %v", err)
	}

	active, err := st.HasActiveAgent(42)
	if err != nil {
		t.Fatalf("HasActiveAgent: %v", err)
	}
	if !active {
		t.Fatal("agent for #42 should be active")
	}
}

func TestHasActiveAgent_DeadIsCleared(t *testing.T) {
	st := openTestStore(t).WithProbe(func(pid int) bool { return false })

	if err := st.SetActiveAgent(42, 1234, ""); err != nil {
		t.Fatalf("SetActiveAgent: %v", err)
	}

	active, err := st.HasActiveAgent(42)
	if err != nil {
		t.Fatalf("HasActiveAgent: %v", err)
	}
	if active {
		t.Fatal("dead agent should not be reported active")
	}

	// The dead record must be gone, not just ignored.
	agents, err := st.ActiveAgents()
	if err != nil {
		t.Fatalf("ActiveAgents: %v", err)
	}
	if len(agents) != 0 {
		t.Errorf("registry rows = %d, want 0", len(agents))
	}
}

func TestHasActiveAgent_NoRecord(t *testing.T) {
	st := openTestStore(t)

	active, err := st.HasActiveAgent(99)
	if err != nil {
		t.Fatalf("HasActiveAgent: %v", err)
	}
	if active {
		t.Fatal("unregistered issue should not be active")
	}
}

func TestSetActiveAgent_ReplacesStaleRecord(t *testing.T) {
	st := openTestStore(t).WithProbe(func(pid int) bool { return true })

	if err := st.SetActiveAgent(42, 1000, "old.log"); err != nil {
		t.Fatalf("SetActiveAgent: %v", err)
	}
	if err := st.SetActiveAgent(42, 2000, "new.log"); err != nil {
		t.Fatalf("replace SetActiveAgent: %v", err)
	}

	agents, err := st.ActiveAgents()
	if err != nil {
		t.Fatalf("ActiveAgents: %v", err)
	}
	if len(agents) != 1 {
		t.Fatalf("registry rows = %d, want 1", len(agents))
	}
	if agents[0].PID != 2000 || agents[0].LogFile != "new.log" {
		t.Errorf("agent = pid %d log %q, want pid 2000 log new.log", agents[0].PID, agents[0].LogFile)
	}
}

func TestReapDeadAgents(t *testing.T) {
	alive := map[int]bool{1000: true, 2000: false, 3000: false}
	st := openTestStore(t).WithProbe(func(pid int) bool { return alive[pid] })

	st.SetActiveAgent(1, 1000, "")
	st.SetActiveAgent(2, 2000, "")
	st.SetActiveAgent(3, 3000, "")

	reaped, err := st.ReapDeadAgents()
	if err != nil {
		t.Fatalf("ReapDeadAgents: %v", err)
	}
	if len(reaped) != 2 {
		t.Fatalf("reaped = %d agents, want 2", len(reaped))
	}

	agents, err := st.ActiveAgents()
	if err != nil {
		t.Fatalf("ActiveAgents: %v", err)
	}
	if len(agents) != 1 || agents[0].IssueNumber != 1 {
		t.Errorf("surviving agents = %+v, want only #1", agents)
	}

	active, err := st.HasActiveAgent(2)
	if err != nil {
		t.Fatalf("HasActiveAgent: %v", err)
	}
	if active {
		t.Error("reaped issue #2 should not be active")
	}
}

func TestCount(t *testing.T) {
	st := openTestStore(t).WithProbe(func(pid int) bool { return true })

	st.MarkProcessed(1, 10)
	st.MarkProcessed(2, 10)
	st.MarkProcessed(3, 11)
	st.SetActiveAgent(10, 500, "")

	c, err := st.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if c.ProcessedComments != 3 {
		t.Errorf("ProcessedComments = %d, want 3", c.ProcessedComments)
	}
	if c.ActiveAgents != 1 {
		t.Errorf("ActiveAgents = %d, want 1", c.ActiveAgents)
	}
}

func TestProcessAlive_OwnPid(t *testing.T) {
	// Default probe against our own pid must report alive.
	if !processAlive(os.Getpid()) {
		t.Fatal("own process should be alive")
	}
}
