// Package poller drives the poll-dedup-supervise loop.
//
// The loop is strictly single-threaded: one cycle completes fully before the
// interval sleep begins. Every decision runs from this one goroutine, which
// is what makes "mark processed happens-before spawn" a real ordering
// guarantee rather than a race to reason about. Concurrency exists only
// inside a spawn (see package agent).
package poller

import (
	"context"
	"fmt"
	"io"
	"log"
	"runtime/debug"
	"time"

	"github.com/zulandar/flagman/internal/agent"
	"github.com/zulandar/flagman/internal/classify"
	"github.com/zulandar/flagman/internal/config"
	"github.com/zulandar/flagman/internal/notify"
	"github.com/zulandar/flagman/internal/store"
	"github.com/zulandar/flagman/internal/tracker"
)

// Poller owns one poll-dedup-supervise loop over a single repository label.
type Poller struct {
	cfg        *config.Config
	store      *store.Store
	tracker    tracker.Tracker
	classifier *classify.Classifier
	spawner    agent.Spawner
	notifier   notify.Notifier
	out        io.Writer
}

// Opts holds the collaborators for a Poller.
type Opts struct {
	Config     *config.Config
	Store      *store.Store
	Tracker    tracker.Tracker
	Classifier *classify.Classifier
	Spawner    agent.Spawner
	Notifier   notify.Notifier
	Out        io.Writer
}

// New wires up a Poller.
func New(opts Opts) (*Poller, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("poller: config is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("poller: store is required")
	}
	if opts.Tracker == nil {
		return nil, fmt.Errorf("poller: tracker is required")
	}
	if opts.Spawner == nil {
		return nil, fmt.Errorf("poller: spawner is required")
	}
	if opts.Classifier == nil {
		opts.Classifier = classify.New(opts.Config.ExtraBotSignatures)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Multi(nil)
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	return &Poller{
		cfg:        opts.Config,
		store:      opts.Store,
		tracker:    opts.Tracker,
		classifier: opts.Classifier,
		spawner:    opts.Spawner,
		notifier:   opts.Notifier,
		out:        opts.Out,
	}, nil
}

// Seed marks every existing comment on labeled issues as processed without
// spawning anything, so enabling the poller on a repository with history
// does not trigger a burst of responses. Run once at startup.
func (p *Poller) Seed(ctx context.Context) error {
	fmt.Fprintf(p.out, "Seeding existing comments...\n")

	issues, err := p.tracker.ListLabeledOpenIssues(ctx)
	if err != nil {
		return fmt.Errorf("poller: seed: %w", err)
	}

	seeded := 0
	for _, issueNumber := range issues {
		ids, err := p.tracker.ListCommentIDs(ctx, issueNumber)
		if err != nil {
			log.Printf("#%d: seed comments: %v", issueNumber, err)
			continue
		}
		for _, id := range ids {
			processed, err := p.store.IsProcessed(id)
			if err != nil {
				log.Printf("#%d: seed check %d: %v", issueNumber, id, err)
				continue
			}
			if processed {
				continue
			}
			if err := p.store.MarkProcessed(id, issueNumber); err != nil {
				log.Printf("#%d: seed mark %d: %v", issueNumber, id, err)
				continue
			}
			seeded++
		}
	}

	if seeded > 0 {
		fmt.Fprintf(p.out, "Seeded %d existing comments\n", seeded)
	}
	return nil
}

// RunOnce executes one poll cycle over all labeled issues.
func (p *Poller) RunOnce(ctx context.Context) {
	issues, err := p.tracker.ListLabeledOpenIssues(ctx)
	if err != nil {
		log.Printf("poller: list issues: %v", err)
		return
	}

	for _, issueNumber := range issues {
		p.pollIssue(ctx, issueNumber)
	}
}

// pollIssue makes the per-issue decision. Ordering matters: the comment is
// marked processed before any spawn attempt, so a crash or spawn failure
// after the mark can never cause a duplicate response later.
func (p *Poller) pollIssue(ctx context.Context, issueNumber int) {
	active, err := p.store.HasActiveAgent(issueNumber)
	if err != nil {
		log.Printf("#%d: agent lookup: %v", issueNumber, err)
		return
	}
	if active {
		return // never run two responders for one issue
	}

	comment, err := p.tracker.LatestComment(ctx, issueNumber)
	if err != nil {
		// Transient tracker failure: skip this cycle, no state written.
		log.Printf("#%d: fetch comment: %v", issueNumber, err)
		return
	}
	if comment == nil {
		return
	}

	processed, err := p.store.IsProcessed(comment.ID)
	if err != nil {
		log.Printf("#%d: dedup check %d: %v", issueNumber, comment.ID, err)
		return
	}
	if processed {
		return
	}

	// Idempotency anchor: mark before acting. Even if the spawn below fails
	// or the process dies instantly, this comment never triggers again.
	if err := p.store.MarkProcessed(comment.ID, issueNumber); err != nil {
		log.Printf("#%d: mark processed %d: %v", issueNumber, comment.ID, err)
		return
	}

	if p.classifier.IsBot(comment) {
		fmt.Fprintf(p.out, "#%d: skipping bot/agent comment %d\n", issueNumber, comment.ID)
		return
	}

	fmt.Fprintf(p.out, "#%d: new comment from @%s (id=%d)\n",
		issueNumber, comment.UserLogin, comment.ID)

	session, err := p.spawner.Spawn(issueNumber)
	if err != nil {
		// Deliberate trade-off: no retry on spawn failure. The comment
		// stays marked; never double-respond.
		log.Printf("#%d: spawn responder: %v", issueNumber, err)
		return
	}
	p.notifier.AgentSpawned(issueNumber, session.PID, session.LogFile)
}

// Run executes the main loop: reap, one cycle, periodic status, sleep.
// It returns when ctx is cancelled. In-flight responders are not terminated;
// they are detached and reaped as dead on a later start.
func (p *Poller) Run(ctx context.Context) {
	fmt.Fprintf(p.out, "Entering main polling loop (every %s)...\n", p.cfg.Interval())

	pollCount := 0
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(p.out, "Shutting down...\n")
			return
		default:
		}

		pollCount++
		p.runCycle(ctx)

		if p.cfg.StatusEvery > 0 && pollCount%p.cfg.StatusEvery == 0 {
			p.reportStatus(pollCount)
		}

		sleepWithContext(ctx, p.cfg.Interval())
	}
}

// runCycle runs reap + one cycle behind a recovery boundary. A panic in
// decision logic is logged with a stack and the loop continues on the next
// interval; poller uptime wins over surfacing every fault.
func (p *Poller) runCycle(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("poller: cycle panic: %v\n%s", r, debug.Stack())
		}
	}()

	reaped, err := p.store.ReapDeadAgents()
	if err != nil {
		log.Printf("poller: reap agents: %v", err)
	}
	for _, a := range reaped {
		fmt.Fprintf(p.out, "#%d: agent (pid=%d) has exited - cleaning up\n", a.IssueNumber, a.PID)
		p.notifier.AgentReaped(a.IssueNumber, a.PID)
	}

	p.RunOnce(ctx)
}

// reportStatus emits the aggregate counter line.
func (p *Poller) reportStatus(pollCount int) {
	c, err := p.store.Count()
	if err != nil {
		log.Printf("poller: status counts: %v", err)
		return
	}
	fmt.Fprintf(p.out, "Status: %d polls, %d active agents, %d processed comments\n",
		pollCount, c.ActiveAgents, c.ProcessedComments)
}

// sleepWithContext sleeps for d, returning early if ctx is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
