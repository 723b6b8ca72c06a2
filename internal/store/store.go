// Package store implements the persistent dedup and agent registry.
//
// Two tables back the poll loop's decisions: processed_comments makes
// triggering idempotent across restarts, and active_agents tracks which
// issues have a responder believed to be running. Registry rows are hints:
// the pid is re-validated against the OS before being treated as busy.
package store

import (
	"fmt"
	"log"
	"time"

	"github.com/zulandar/flagman/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProbeFunc reports whether a pid refers to a live process. Injectable so
// tests can simulate dead agents without real processes.
type ProbeFunc func(pid int) bool

// Store wraps the GORM connection with the dedup and registry operations.
type Store struct {
	db    *gorm.DB
	probe ProbeFunc
}

// New creates a Store over an already-migrated database connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db, probe: processAlive}
}

// WithProbe overrides the liveness probe. For tests.
func (s *Store) WithProbe(probe ProbeFunc) *Store {
	s.probe = probe
	return s
}

// DB exposes the underlying connection for read-only consumers (dashboard).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// IsProcessed reports whether a comment has already triggered a decision.
func (s *Store) IsProcessed(commentID int64) (bool, error) {
	var count int64
	err := s.db.Model(&models.ProcessedComment{}).
		Where("comment_id = ?", commentID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("store: is processed %d: %w", commentID, err)
	}
	return count > 0, nil
}

// MarkProcessed records a comment as seen. Insert-or-ignore: calling it
// redundantly is safe and leaves the original processed_at untouched.
func (s *Store) MarkProcessed(commentID int64, issueNumber int) error {
	row := models.ProcessedComment{
		CommentID:   commentID,
		IssueNumber: issueNumber,
		ProcessedAt: time.Now(),
	}
	err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("store: mark processed %d: %w", commentID, err)
	}
	return nil
}

// HasActiveAgent reports whether a live responder is registered for the
// issue. A registered-but-dead pid is cleared as a side effect and reported
// as not active.
func (s *Store) HasActiveAgent(issueNumber int) (bool, error) {
	var agent models.ActiveAgent
	err := s.db.Where("issue_number = ?", issueNumber).First(&agent).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, fmt.Errorf("store: lookup agent for #%d: %w", issueNumber, err)
	}

	if s.probe(agent.PID) {
		return true, nil
	}
	if err := s.ClearActiveAgent(issueNumber); err != nil {
		return false, err
	}
	return false, nil
}

// SetActiveAgent records that a responder is running for the issue,
// replacing any stale prior record.
func (s *Store) SetActiveAgent(issueNumber, pid int, logFile string) error {
	agent := models.ActiveAgent{
		IssueNumber: issueNumber,
		PID:         pid,
		StartedAt:   time.Now(),
		LogFile:     logFile,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "issue_number"}},
		DoUpdates: clause.AssignmentColumns([]string{"p_id", "started_at", "log_file"}),
	}).Create(&agent).Error
	if err != nil {
		return fmt.Errorf("store: set agent for #%d: %w", issueNumber, err)
	}
	return nil
}

// ClearActiveAgent removes the registry record for an issue.
func (s *Store) ClearActiveAgent(issueNumber int) error {
	err := s.db.Where("issue_number = ?", issueNumber).
		Delete(&models.ActiveAgent{}).Error
	if err != nil {
		return fmt.Errorf("store: clear agent for #%d: %w", issueNumber, err)
	}
	return nil
}

// ReapDeadAgents probes every registered agent and clears those whose
// process no longer exists. Run once per poll cycle before decisions are
// made so HasActiveAgent reflects current reality during the cycle.
func (s *Store) ReapDeadAgents() ([]models.ActiveAgent, error) {
	var agents []models.ActiveAgent
	if err := s.db.Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("store: list agents: %w", err)
	}

	var reaped []models.ActiveAgent
	for _, agent := range agents {
		if s.probe(agent.PID) {
			continue
		}
		if err := s.ClearActiveAgent(agent.IssueNumber); err != nil {
			log.Printf("store: reap agent for #%d: %v", agent.IssueNumber, err)
			continue
		}
		reaped = append(reaped, agent)
	}
	return reaped, nil
}

// ActiveAgents returns all registry rows without probing.
func (s *Store) ActiveAgents() ([]models.ActiveAgent, error) {
	var agents []models.ActiveAgent
	if err := s.db.Order("issue_number").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("store: list agents: %w", err)
	}
	return agents, nil
}

// Counts holds the aggregate counters reported in periodic status lines.
type Counts struct {
	ActiveAgents      int64
	ProcessedComments int64
}

// Count returns the aggregate counters.
func (s *Store) Count() (Counts, error) {
	var c Counts
	if err := s.db.Model(&models.ActiveAgent{}).Count(&c.ActiveAgents).Error; err != nil {
		return c, fmt.Errorf("store: count agents: %w", err)
	}
	if err := s.db.Model(&models.ProcessedComment{}).Count(&c.ProcessedComments).Error; err != nil {
		return c, fmt.Errorf("store: count processed: %w", err)
	}
	return c, nil
}

// RecentProcessed returns the most recently processed comments, newest first.
func (s *Store) RecentProcessed(limit int) ([]models.ProcessedComment, error) {
	var rows []models.ProcessedComment
	err := s.db.Order("processed_at DESC").Limit(limit).Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("store: recent processed: %w", err)
	}
	return rows, nil
}
