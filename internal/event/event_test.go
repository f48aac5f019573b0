package event_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/event"
)

var (
	created  = domain.EventRoomCreated{Room: domain.Room{ID: "r1", Name: "QUIZ"}}
	answered = domain.EventAnswerSubmitted{RoomID: "r1", ParticipantID: "p1", Answer: domain.Answer{QuestionIndex: 0, IsCorrect: true, Points: 1}}
	finished = domain.EventRoomFinished{Room: domain.Room{ID: "r1", Status: domain.RoomStatusFinished}}
)

func TestBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		published []event.Event
		// subscriber name -> event names it subscribes to
		subscriptions map[string][]string
		want          map[string][]event.Event
	}{
		"should only deliver subscribed events": {
			published:     []event.Event{created, answered},
			subscriptions: map[string][]string{"metrics": {domain.EventNameRoomCreated}},
			want:          map[string][]event.Event{"metrics": {created}},
		},
		"should deliver every publication": {
			published:     []event.Event{answered, answered},
			subscriptions: map[string][]string{"metrics": {domain.EventNameAnswerSubmitted}},
			want:          map[string][]event.Event{"metrics": {answered, answered}},
		},
		"should fan out to all subscribers": {
			published: []event.Event{finished},
			subscriptions: map[string][]string{
				"metrics": {domain.EventNameRoomFinished},
				"audit":   {domain.EventNameRoomFinished},
			},
			want: map[string][]event.Event{
				"metrics": {finished},
				"audit":   {finished},
			},
		},
		"should route mixed events to mixed subscribers": {
			published: []event.Event{created, answered, created, finished},
			subscriptions: map[string][]string{
				"s1": {domain.EventNameRoomCreated},
				"s2": {domain.EventNameRoomCreated, domain.EventNameAnswerSubmitted},
				"s3": {domain.EventNameRoomFinished, domain.EventNameAnswerSubmitted},
			},
			want: map[string][]event.Event{
				"s1": {created, created},
				"s2": {created, created, answered},
				"s3": {answered, finished},
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var mu sync.Mutex
			received := make(map[string][]event.Event)

			b := event.NewBus()
			for sub, names := range tt.subscriptions {
				for _, n := range names {
					b.Subscribe(n, func(_ context.Context, e event.Event) error {
						mu.Lock()
						received[sub] = append(received[sub], e)
						mu.Unlock()
						return nil
					})
				}
			}

			for _, e := range tt.published {
				b.Publish(context.Background(), e)
			}
			b.Stop()

			for sub, want := range tt.want {
				assert.ElementsMatch(t, want, received[sub], sub)
			}
		})
	}
}

func TestBus_HandlerFailuresAreIsolated(t *testing.T) {
	t.Parallel()

	b := event.NewBus(event.WithPoolSize(1), event.WithTimeout(time.Second))

	var calls atomic.Int32
	b.Subscribe(domain.EventNameRoomCreated, func(context.Context, event.Event) error {
		calls.Add(1)
		panic("boom")
	})
	b.Subscribe(domain.EventNameRoomCreated, func(context.Context, event.Event) error {
		calls.Add(1)
		return errors.New("failed")
	})
	b.Subscribe(domain.EventNameRoomCreated, func(context.Context, event.Event) error {
		calls.Add(1)
		return nil
	})

	b.Publish(context.Background(), created)
	b.Publish(context.Background(), created)
	b.Stop()

	assert.Equal(t, int32(6), calls.Load())
}

func TestBus_HandlerOutlivesPublisherContext(t *testing.T) {
	t.Parallel()

	b := event.NewBus()

	var handlerErr atomic.Value
	release := make(chan struct{})
	b.Subscribe(domain.EventNameRoomFinished, func(ctx context.Context, _ event.Event) error {
		<-release
		if err := ctx.Err(); err != nil {
			handlerErr.Store(err)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	b.Publish(ctx, finished)
	cancel()
	close(release)
	b.Stop()

	assert.Nil(t, handlerErr.Load())
}

func TestBus_NilBusDropsEvents(t *testing.T) {
	t.Parallel()

	var b *event.Bus

	assert.NotPanics(t, func() {
		b.Publish(context.Background(), created)
		b.Stop()
	})
}
