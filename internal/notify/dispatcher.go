package notify

import (
	"context"
	"sync"
	"time"
)

// Pusher sends a push message.
type Pusher interface {
	Push(ctx context.Context, to, text string) error
}

// Outbound is one push message waiting to be sent.
type Outbound struct {
	// Ref is an opaque caller reference echoed in the result.
	Ref  string
	To   string
	Text string
}

// DispatchResult contains the result of one push.
type DispatchResult struct {
	Ref      string
	To       string
	Success  bool
	Duration time.Duration
	Error    error
}

// Dispatcher pushes batches of messages concurrently.
type Dispatcher struct {
	pusher      Pusher
	concurrency int
}

// NewDispatcher creates a dispatcher with at most concurrency pushes in flight.
func NewDispatcher(p Pusher, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Dispatcher{pusher: p, concurrency: concurrency}
}

// Dispatch sends every message and returns one result per message, in input order.
func (d *Dispatcher) Dispatch(ctx context.Context, msgs []Outbound) []DispatchResult {
	results := make([]DispatchResult, len(msgs))
	sem := make(chan struct{}, d.concurrency)

	var wg sync.WaitGroup
	for i, m := range msgs {
		wg.Add(1)
		go func(idx int, m Outbound) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			start := time.Now()
			err := d.pusher.Push(ctx, m.To, m.Text)
			results[idx] = DispatchResult{
				Ref:      m.Ref,
				To:       m.To,
				Success:  err == nil,
				Duration: time.Since(start),
				Error:    err,
			}
		}(i, m)
	}

	wg.Wait()
	return results
}
