// Package tracker is the read-mostly GitHub query interface for the poller.
package tracker

import (
	"context"
	"time"
)

// Comment is the poller's view of an issue comment. Issue bodies are
// reinterpreted as pseudo-comments with a negative ID derived from the issue
// number, so a labeled issue with no discussion still yields one trigger.
type Comment struct {
	ID          int64
	IssueNumber int
	Body        string
	UserLogin   string
	UserType    string // "User" or "Bot"
	CreatedAt   time.Time
}

// Tracker lists labeled issues and fetches their latest comments. Failures
// are non-fatal to the poll loop; the affected issue is skipped for the
// cycle and retried on the next interval.
type Tracker interface {
	// ListLabeledOpenIssues returns the numbers of open issues carrying the
	// watched label, in the order the API returns them.
	ListLabeledOpenIssues(ctx context.Context) ([]int, error)

	// LatestComment returns the most recent comment on the issue, or the
	// issue body as a pseudo-comment when no comments exist.
	LatestComment(ctx context.Context, issueNumber int) (*Comment, error)

	// ListCommentIDs returns every comment ID on the issue. Used by the
	// seed pass to suppress pre-existing discussion.
	ListCommentIDs(ctx context.Context, issueNumber int) ([]int64, error)
}
