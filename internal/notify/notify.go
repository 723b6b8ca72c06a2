// Package notify delivers best-effort chat notifications for poller events.
// Delivery failures are logged, never returned; notifications must not
// affect the poll loop's decisions.
package notify

import (
	"fmt"

	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/store"
)

// Notifier receives poller lifecycle events.
type Notifier interface {
	AgentSpawned(issueNumber, pid int, logFile string)
	AgentReaped(issueNumber, pid int)
	Digest(c store.Counts)
}

// Multi fans events out to several notifiers.
type Multi []Notifier

func (m Multi) AgentSpawned(issueNumber, pid int, logFile string) {
	for _, n := range m {
		n.AgentSpawned(issueNumber, pid, logFile)
	}
}

func (m Multi) AgentReaped(issueNumber, pid int) {
	for _, n := range m {
		n.AgentReaped(issueNumber, pid)
	}
}

func (m Multi) Digest(c store.Counts) {
	for _, n := range m {
		n.Digest(c)
	}
}

// New builds the configured notifier fan-out. With nothing configured it
// returns an empty Multi, which silently drops every event.
func New(cfg config.NotifyConfig) Multi {
	var m Multi
	if cfg.Slack.BotToken != "" && cfg.Slack.Channel != "" {
		m = append(m, NewSlack(cfg.Slack.BotToken, cfg.Slack.Channel))
	}
	if cfg.Discord.BotToken != "" && cfg.Discord.ChannelID != "" {
		if d, err := NewDiscord(cfg.Discord.BotToken, cfg.Discord.ChannelID); err == nil {
			m = append(m, d)
		}
	}
	return m
}

// spawnedText formats the spawn notification message.
func spawnedText(issueNumber, pid int, logFile string) string {
	return fmt.Sprintf("Responder started for issue #%d (pid %d, log %s)", issueNumber, pid, logFile)
}

// reapedText formats the reap notification message.
func reapedText(issueNumber, pid int) string {
	return fmt.Sprintf("Responder for issue #%d (pid %d) has exited", issueNumber, pid)
}

// digestText formats the digest message.
func digestText(c store.Counts) string {
	return fmt.Sprintf("Flagman digest: %d active agents, %d processed comments",
		c.ActiveAgents, c.ProcessedComments)
}
