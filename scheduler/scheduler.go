package scheduler

import (
	"context"
	"log"
	"time"

	"civicplus-be/store"

	"github.com/robfig/cron/v3"
)

// Start runs the escalation sweep every 5 minutes: pending issues older
// than the threshold are persisted as delayed. The sweep is idempotent and
// each pass is short, so it never starves request-driven mutations.
func Start(s store.Store, thresholdDays int) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc("*/5 * * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		count, err := s.Escalate(ctx, time.Now(), thresholdDays)
		if err != nil {
			log.Printf("escalation sweep failed: %v", err)
			return
		}
		if count > 0 {
			log.Printf("escalation sweep: %d issue(s) marked delayed", count)
		}
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	log.Println("Escalation scheduler started")
	return c, nil
}
