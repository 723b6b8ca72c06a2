package tracker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"
)

// GitHub implements Tracker against the GitHub REST API.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
	label  string
}

// NewGitHub creates a Tracker for owner/repo filtered to the given label.
// An empty token falls back to unauthenticated requests (useful against
// public repos, subject to much lower rate limits).
func NewGitHub(owner, repo, label, token string) *GitHub {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(context.Background(),
			oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	}
	return &GitHub{
		client: github.NewClient(hc),
		owner:  owner,
		repo:   repo,
		label:  label,
	}
}

// NewGitHubWithClient creates a Tracker over an existing go-github client.
// For tests against an httptest server.
func NewGitHubWithClient(client *github.Client, owner, repo, label string) *GitHub {
	return &GitHub{client: client, owner: owner, repo: repo, label: label}
}

// Verify checks that the client can reach the repository.
func (g *GitHub) Verify(ctx context.Context) error {
	_, _, err := g.client.Repositories.Get(ctx, g.owner, g.repo)
	if err != nil {
		return fmt.Errorf("tracker: verify %s/%s: %w", g.owner, g.repo, err)
	}
	return nil
}

// ListLabeledOpenIssues returns open issue numbers carrying the label.
// Pull requests share the issues API and are filtered out.
func (g *GitHub) ListLabeledOpenIssues(ctx context.Context) ([]int, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{g.label},
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var numbers []int
	for {
		issues, resp, err := g.client.Issues.ListByRepo(ctx, g.owner, g.repo, opts)
		if err != nil {
			return nil, fmt.Errorf("tracker: list issues with label %q: %w", g.label, err)
		}
		for _, issue := range issues {
			if issue.IsPullRequest() {
				continue
			}
			numbers = append(numbers, issue.GetNumber())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return numbers, nil
}

// LatestComment returns the newest comment on the issue, falling back to the
// issue body as a pseudo-comment with ID -issueNumber.
func (g *GitHub) LatestComment(ctx context.Context, issueNumber int) (*Comment, error) {
	opts := &github.IssueListCommentsOptions{
		Sort:        github.String("created"),
		Direction:   github.String("desc"),
		ListOptions: github.ListOptions{PerPage: 1},
	}
	comments, _, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, issueNumber, opts)
	if err != nil {
		return nil, fmt.Errorf("tracker: list comments for #%d: %w", issueNumber, err)
	}
	if len(comments) == 0 {
		return g.issueBody(ctx, issueNumber)
	}

	c := comments[0]
	return &Comment{
		ID:          c.GetID(),
		IssueNumber: issueNumber,
		Body:        c.GetBody(),
		UserLogin:   c.GetUser().GetLogin(),
		UserType:    c.GetUser().GetType(),
		CreatedAt:   c.GetCreatedAt().Time,
	}, nil
}

// issueBody fetches the issue itself and shapes it as a comment. The
// negative ID keeps pseudo-comments out of the real comment ID space.
func (g *GitHub) issueBody(ctx context.Context, issueNumber int) (*Comment, error) {
	issue, _, err := g.client.Issues.Get(ctx, g.owner, g.repo, issueNumber)
	if err != nil {
		return nil, fmt.Errorf("tracker: get issue #%d: %w", issueNumber, err)
	}
	return &Comment{
		ID:          -int64(issueNumber),
		IssueNumber: issueNumber,
		Body:        issue.GetBody(),
		UserLogin:   issue.GetUser().GetLogin(),
		UserType:    issue.GetUser().GetType(),
		CreatedAt:   issue.GetCreatedAt().Time,
	}, nil
}

// ListCommentIDs returns every comment ID on the issue, paginated.
func (g *GitHub) ListCommentIDs(ctx context.Context, issueNumber int) ([]int64, error) {
	opts := &github.IssueListCommentsOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var ids []int64
	for {
		comments, resp, err := g.client.Issues.ListComments(ctx, g.owner, g.repo, issueNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("tracker: list comment IDs for #%d: %w", issueNumber, err)
		}
		for _, c := range comments {
			ids = append(ids, c.GetID())
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return ids, nil
}
