package notify

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"

	"github.com/zulandar/flagman/internal/store"
)

// discordSession abstracts the discordgo methods we use, enabling test mocks.
type discordSession interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Discord posts notifications to a Discord channel. Messages go over the
// REST API; no gateway connection is opened.
type Discord struct {
	sess      discordSession
	channelID string
}

// NewDiscord creates a Discord notifier from a bot token and channel ID.
func NewDiscord(botToken, channelID string) (*Discord, error) {
	dg, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("notify: discord session: %w", err)
	}
	return &Discord{sess: dg, channelID: channelID}, nil
}

func (d *Discord) post(text string) {
	if _, err := d.sess.ChannelMessageSend(d.channelID, text); err != nil {
		log.Printf("notify: discord post: %v", err)
	}
}

func (d *Discord) AgentSpawned(issueNumber, pid int, logFile string) {
	d.post(spawnedText(issueNumber, pid, logFile))
}

func (d *Discord) AgentReaped(issueNumber, pid int) {
	d.post(reapedText(issueNumber, pid))
}

func (d *Discord) Digest(c store.Counts) {
	d.post(digestText(c))
}
