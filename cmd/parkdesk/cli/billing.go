package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hibiken/asynq"

	"github.com/parkdesk/parkdesk/jobs"
)

// Enqueuer submits billing tasks.
type Enqueuer interface {
	EnqueueBillingCycle(ctx context.Context, payload jobs.BillingCyclePayload) (*asynq.TaskInfo, error)
	Close() error
}

// Inspector reads queue state.
type Inspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Close() error
}

// BillingCLI wraps manual helpers for the billing job.
type BillingCLI struct {
	client    Enqueuer
	inspector Inspector
}

// NewBillingCLI initialises the helpers against the Redis queue backend.
func NewBillingCLI(redisOpts asynq.RedisClientOpt) *BillingCLI {
	return &BillingCLI{
		client:    jobs.NewClient(redisOpts),
		inspector: asynq.NewInspector(redisOpts),
	}
}

// Close releases underlying resources.
func (c *BillingCLI) Close() error {
	var err error
	if c.inspector != nil {
		err = errors.Join(err, c.inspector.Close())
	}
	if c.client != nil {
		err = errors.Join(err, c.client.Close())
	}
	return err
}

// ParseDate validates an optional YYYY-MM-DD argument. Empty input is allowed
// and leaves the date choice to the worker.
func ParseDate(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(time.DateOnly, raw); err != nil {
		return "", fmt.Errorf("billing cli: date %q must be YYYY-MM-DD", raw)
	}
	return raw, nil
}

// Trigger enqueues a billing run for date, or for the worker's current date
// when date is empty.
func (c *BillingCLI) Trigger(ctx context.Context, date string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("billing cli: client not configured")
	}
	date, err := ParseDate(date)
	if err != nil {
		return nil, err
	}
	info, err := c.client.EnqueueBillingCycle(ctx, jobs.BillingCyclePayload{Date: date})
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil, fmt.Errorf("billing cli: a run for %s is already queued", date)
	}
	return info, err
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string
	Pending   int
	Active    int
	Scheduled int
	Retry     int
	Failed    int
}

// InspectQueue reports the queue metrics for the default queue.
func (c *BillingCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("billing cli: inspector not configured")
	}
	if err := ctx.Err(); err != nil {
		return QueueStats{}, err
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = info.Pending
		stats.Active = info.Active
		stats.Scheduled = info.Scheduled
		stats.Retry = info.Retry
		stats.Failed = info.Failed
	}
	return stats, nil
}

// Run dispatches "trigger [date]" and "queue" subcommands and returns the exit code.
func (c *BillingCLI) Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: parkdesk billing <trigger [YYYY-MM-DD] | queue>")
		return 2
	}
	switch args[0] {
	case "trigger":
		date := ""
		if len(args) > 1 {
			date = args[1]
		}
		info, err := c.Trigger(ctx, date)
		if err != nil {
			fmt.Fprintf(stderr, "trigger failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
		return 0
	case "queue":
		stats, err := c.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(stderr, "inspect failed: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "queue=%s pending=%d active=%d scheduled=%d retry=%d failed=%d\n",
			stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry, stats.Failed)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown billing command %q\n", args[0])
		return 2
	}
}
