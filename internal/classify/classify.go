// Package classify decides whether a comment came from a bot or agent.
//
// The signature list is an allow-list of known self-generated content, not a
// general bot heuristic. Its only job is to keep the poller from responding
// to its own prior output; a missing signature risks an infinite response
// loop, so new automation output formats must be added here (or via the
// extra_bot_signatures config) as they appear.
package classify

import (
	"strings"

	"github.com/zulandar/flagman/internal/tracker"
)

// botSignatures are substrings known to appear in automated responses,
// including legacy formats from earlier automation generations.
var botSignatures = []string{
	"Co-Authored-By: Claude",
	"Generated with [Claude Code]",
	"Generated with Claude Code",
	"🤖 Generated with",
	"🤖 **CLAUDE_TRIGGER**", // old workflow trigger
	// Legacy section headers from old agent comments.
	"## Re-Planning",
	"## Re-planning",
	"## ✅ Execution Complete",
	"## ✅ Implementation",
	"### Root Cause Identified",
	"### Root Cause Analysis",
	"## 🎯 Execution Summary",
	"## 📋 Re-Planning Summary",
}

// Classifier holds the effective signature list.
type Classifier struct {
	signatures []string
}

// New creates a Classifier with the built-in signatures plus any extras.
// Extras extend the list; the built-ins are never removed.
func New(extra []string) *Classifier {
	sigs := make([]string, 0, len(botSignatures)+len(extra))
	sigs = append(sigs, botSignatures...)
	sigs = append(sigs, extra...)
	return &Classifier{signatures: sigs}
}

// IsBot reports whether the comment is from a bot or agent: a service
// account, a bot-suffixed login, or a body carrying a known signature.
func (c *Classifier) IsBot(comment *tracker.Comment) bool {
	if comment.UserType == "Bot" {
		return true
	}
	if strings.HasSuffix(comment.UserLogin, "[bot]") {
		return true
	}
	for _, sig := range c.signatures {
		if strings.Contains(comment.Body, sig) {
			return true
		}
	}
	return false
}
