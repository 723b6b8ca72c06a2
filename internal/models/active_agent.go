package models

import "time"

// ActiveAgent asserts that a responder process is believed to be running for
// an issue. At most one row exists per issue. The recorded pid may already
// have exited between reap cycles; callers must probe before trusting it.
type ActiveAgent struct {
	IssueNumber int `gorm:"primaryKey;autoIncrement:false"`
	PID         int `gorm:"not null"`
	StartedAt   time.Time
	LogFile     string `gorm:"size:512"`
}
