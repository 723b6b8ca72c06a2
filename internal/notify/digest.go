package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/zulandar/flagman/internal/store"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// NextDigest parses a 5-field cron expression and returns the duration until
// the next fire time.
func NextDigest(expr string) (time.Duration, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0, fmt.Errorf("notify: parse digest cron %q: %w", expr, err)
	}
	d := time.Until(sched.Next(time.Now()))
	if d < 0 {
		d = 0
	}
	return d, nil
}

// StartDigest launches a goroutine that sends an aggregate-counter digest on
// the given cron schedule until ctx is cancelled. An empty expression
// disables the digest. An invalid expression is an error so a typo does not
// silently drop all digests.
func StartDigest(ctx context.Context, expr string, counts func() (store.Counts, error), n Notifier) error {
	if expr == "" {
		return nil
	}
	if _, err := NextDigest(expr); err != nil {
		return err
	}

	go func() {
		for {
			wait, err := NextDigest(expr)
			if err != nil {
				log.Printf("notify: digest schedule: %v", err)
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}

			c, err := counts()
			if err != nil {
				log.Printf("notify: digest counts: %v", err)
				continue
			}
			n.Digest(c)
		}
	}()
	return nil
}
