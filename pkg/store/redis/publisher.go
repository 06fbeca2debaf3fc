package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/faultline-io/faultline/pkg/runner"
)

const runsChannel = "faultline:runs"

// EventPublisher fans run step events out over redis pub/sub so dashboards
// on other hosts can follow a run live without polling the daemon.
// Publishing is best effort: a redis outage never fails a run.
type EventPublisher struct {
	client *redis.Client
}

// NewEventPublisher wraps an existing redis client.
func NewEventPublisher(client *redis.Client) *EventPublisher {
	return &EventPublisher{client: client}
}

// channelFor returns the per-run channel name.
func channelFor(runID string) string {
	return fmt.Sprintf("%s:%s", runsChannel, runID)
}

// Publish sends one event to the run's channel and the firehose channel.
func (p *EventPublisher) Publish(ctx context.Context, ev runner.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("failed to marshal run event: %v", err)
		return
	}
	if err := p.client.Publish(ctx, channelFor(ev.RunID), data).Err(); err != nil {
		log.Printf("failed to publish run event to %s: %v", channelFor(ev.RunID), err)
		return
	}
	if err := p.client.Publish(ctx, runsChannel, data).Err(); err != nil {
		log.Printf("failed to publish run event to firehose: %v", err)
	}
}

// Forward drains a run's event stream into redis until the run finishes.
// It blocks; callers run it in a goroutine alongside the run.
func (p *EventPublisher) Forward(ctx context.Context, run *runner.Run) {
	for ev := range run.Events() {
		p.Publish(ctx, ev)
	}
}

// Subscribe returns a channel of events for one run (or every run when
// runID is empty). The caller cancels the context to unsubscribe.
func (p *EventPublisher) Subscribe(ctx context.Context, runID string) <-chan runner.Event {
	channel := runsChannel
	if runID != "" {
		channel = channelFor(runID)
	}
	sub := p.client.Subscribe(ctx, channel)
	out := make(chan runner.Event, 16)

	go func() {
		defer close(out)
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var ev runner.Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("failed to unmarshal run event: %v", err)
					continue
				}
				out <- ev
			}
		}
	}()
	return out
}
