package agent

import "fmt"

// signatureBlock is appended by the responder to every comment it posts.
// classify matches on it, so the poller recognizes and skips its own output
// on later cycles. Changing this text requires a matching classifier entry.
const signatureBlock = "---\n" +
	"🤖 Generated with [Claude Code](https://claude.com/claude-code)\n\n" +
	"Co-Authored-By: Claude <noreply@anthropic.com>"

const promptTemplate = `You are responding to GitHub issue #%d in the %s repository.

INSTRUCTIONS:
1. First, read the issue and all comments:
   gh issue view %d --repo %s --json title,body,comments

2. Understand what the user is asking or discussing.

3. Provide a helpful response. You can:
   - Answer questions
   - Investigate code in the repository
   - Suggest fixes or improvements
   - Create PRs if appropriate

4. Post your response as a comment:
   gh issue comment %d --repo %s --body "<your response>"

5. IMPORTANT: Always end your comment with this signature:

   %s

Be helpful, concise, and actionable.`

// BuildPrompt renders the task prompt for one issue.
func BuildPrompt(repo string, issueNumber int) string {
	return fmt.Sprintf(promptTemplate,
		issueNumber, repo,
		issueNumber, repo,
		issueNumber, repo,
		signatureBlock)
}
