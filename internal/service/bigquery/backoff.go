package bigquery

import (
	"context"
	"time"
)

// DefaultPollUnit is the time unit of the default polling backoff.
const DefaultPollUnit = time.Second

// Backoff computes the wait before the given polling attempt, counted from
// zero. Intervals must strictly increase with the attempt count.
type Backoff interface {
	Interval(attempt int) time.Duration
}

// LinearBackoff waits 2*attempt+5 units before each poll, without a cap.
type LinearBackoff struct {
	Unit time.Duration // zero means DefaultPollUnit
}

// Interval implements Backoff.
func (b LinearBackoff) Interval(attempt int) time.Duration {
	unit := b.Unit
	if unit <= 0 {
		unit = DefaultPollUnit
	}
	if attempt < 0 {
		attempt = 0
	}
	return time.Duration(2*attempt+5) * unit
}

// sleepFunc blocks for d or until ctx is done.
type sleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type waitOptions struct {
	backoff  Backoff
	deadline time.Duration
}

// WaitOption configures Job.WaitUntilDone and the polling done by
// Project.Query.
type WaitOption func(*waitOptions)

// WithBackoff overrides the project's backoff policy.
func WithBackoff(b Backoff) WaitOption {
	return func(o *waitOptions) { o.backoff = b }
}

// WithDeadline bounds the total wait. Zero or negative leaves the wait
// unbounded.
func WithDeadline(d time.Duration) WaitOption {
	return func(o *waitOptions) { o.deadline = d }
}

// poll sleeps per backoff, then calls check, until check reports done.
// A check error ends the loop and is returned as is.
func (c *client) poll(ctx context.Context, opts []WaitOption, check func(ctx context.Context, attempt int) (bool, error)) error {
	o := waitOptions{backoff: c.backoff, deadline: c.pollDeadline}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backoff == nil {
		o.backoff = LinearBackoff{}
	}
	if o.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.deadline)
		defer cancel()
	}

	for attempt := 0; ; attempt++ {
		if err := c.sleep(ctx, o.backoff.Interval(attempt)); err != nil {
			return err
		}
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
}
