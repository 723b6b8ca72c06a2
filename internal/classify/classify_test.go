package classify

import (
	"testing"

	"github.com/zulandar/flagman/internal/tracker"
)

func TestIsBot_ServiceAccount(t *testing.T) {
	c := New(nil)

	if !c.IsBot(&tracker.Comment{UserLogin: "github-actions", UserType: "Bot"}) {
		t.Error("account type Bot should classify as bot")
	}
	if c.IsBot(&tracker.Comment{UserLogin: "alice", UserType: "User", Body: "please fix"}) {
		t.Error("plain user comment should not classify as bot")
	}
}

func TestIsBot_LoginSuffix(t *testing.T) {
	c := New(nil)

	if !c.IsBot(&tracker.Comment{UserLogin: "dependabot[bot]", UserType: "User"}) {
		t.Error("[bot] login suffix should classify as bot")
	}
	if c.IsBot(&tracker.Comment{UserLogin: "robotics-fan", UserType: "User"}) {
		t.Error("login merely containing bot should not classify as bot")
	}
}

func TestIsBot_Signatures(t *testing.T) {
	c := New(nil)

	bodies := []string{
		"Done!\n\n---\n🤖 Generated with [Claude Code](https://claude.com/claude-code)\n\nCo-Authored-By: Claude <noreply@anthropic.com>",
		"some text\nCo-Authored-By: Claude <noreply@anthropic.com>",
		"## ✅ Execution Complete\nall good",
		"### Root Cause Analysis\n...",
	}
	for _, body := range bodies {
		if !c.IsBot(&tracker.Comment{UserLogin: "alice", UserType: "User", Body: body}) {
			t.Errorf("body %q should classify as bot", body)
		}
	}
}

func TestIsBot_HumanDiscussingBots(t *testing.T) {
	c := New(nil)

	// Mentioning bots is not the same as carrying a signature.
	comment := &tracker.Comment{
		UserLogin: "alice",
		UserType:  "User",
		Body:      "the bot never replied to my last question, can you rerun it?",
	}
	if c.IsBot(comment) {
		t.Error("human comment about bots should not classify as bot")
	}
}

func TestIsBot_ExtraSignatures(t *testing.T) {
	c := New([]string{"-- posted by issuebot"})

	comment := &tracker.Comment{UserLogin: "alice", UserType: "User", Body: "hi\n-- posted by issuebot"}
	if !c.IsBot(comment) {
		t.Error("extra signature should classify as bot")
	}

	// Built-ins still apply alongside extras.
	builtin := &tracker.Comment{UserLogin: "alice", UserType: "User", Body: "🤖 Generated with tooling"}
	if !c.IsBot(builtin) {
		t.Error("built-in signature should still classify as bot")
	}
}
