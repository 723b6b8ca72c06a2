package notify

import (
	"log"

	slackapi "github.com/slack-go/slack"

	"github.com/zulandar/flagman/internal/store"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

// Slack posts notifications to a Slack channel.
type Slack struct {
	client  slackClient
	channel string
}

// NewSlack creates a Slack notifier from a bot token and channel ID.
func NewSlack(botToken, channel string) *Slack {
	return &Slack{
		client:  slackapi.New(botToken),
		channel: channel,
	}
}

func (s *Slack) post(text string) {
	_, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(text, false))
	if err != nil {
		log.Printf("notify: slack post: %v", err)
	}
}

func (s *Slack) AgentSpawned(issueNumber, pid int, logFile string) {
	s.post(spawnedText(issueNumber, pid, logFile))
}

func (s *Slack) AgentReaped(issueNumber, pid int) {
	s.post(reapedText(issueNumber, pid))
}

func (s *Slack) Digest(c store.Counts) {
	s.post(digestText(c))
}
