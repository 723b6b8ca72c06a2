// Package models defines the GORM models for the Flagman store.
package models

import "time"

// ProcessedComment records that a comment has already triggered a decision.
// Rows are insert-only: a comment ID is marked once and never revisited, even
// across restarts. Issue bodies are tracked as pseudo-comments with negative
// IDs derived from the issue number.
type ProcessedComment struct {
	CommentID   int64 `gorm:"primaryKey;autoIncrement:false"`
	IssueNumber int   `gorm:"not null;index"`
	ProcessedAt time.Time
}
