package telemetry

import (
	"context"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/victornm/teamquiz/internal/domain"
	"github.com/victornm/teamquiz/internal/event"
)

const namespace = "teamquiz"

// Metrics counts domain events. Counters are updated from event bus handlers, so they lag
// the operations that published them.
type Metrics struct {
	RoomsCreated       prometheus.Counter
	GamesStarted       prometheus.Counter
	GamesFinished      prometheus.Counter
	Answers            *prometheus.CounterVec
	SessionsFinished   prometheus.Counter
	LeaderboardCleared *prometheus.CounterVec
	HTTPRequests       *prometheus.HistogramVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Number of rooms created.",
		}),
		GamesStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_started_total",
			Help:      "Number of room games started.",
		}),
		GamesFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Number of room games finished.",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_total",
			Help:      "Number of answers recorded in rooms.",
		}, []string{"correct"}),
		SessionsFinished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_finished_total",
			Help:      "Number of standalone sessions finished.",
		}),
		LeaderboardCleared: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_cleared_total",
			Help:      "Number of leaderboard clears.",
		}, []string{"archived"}),
		HTTPRequests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.RoomsCreated,
		m.GamesStarted,
		m.GamesFinished,
		m.Answers,
		m.SessionsFinished,
		m.LeaderboardCleared,
		m.HTTPRequests,
	)

	return m
}

// Subscribe counts the events published on eb.
func (m *Metrics) Subscribe(eb *event.Bus) {
	count := func(c prometheus.Counter) event.Handler {
		return func(context.Context, event.Event) error {
			c.Inc()
			return nil
		}
	}

	eb.Subscribe(domain.EventNameRoomCreated, count(m.RoomsCreated))
	eb.Subscribe(domain.EventNameRoomStarted, count(m.GamesStarted))
	eb.Subscribe(domain.EventNameRoomFinished, count(m.GamesFinished))
	eb.Subscribe(domain.EventNameSessionFinished, count(m.SessionsFinished))

	eb.Subscribe(domain.EventNameAnswerSubmitted, func(_ context.Context, e event.Event) error {
		a := e.(domain.EventAnswerSubmitted).Answer
		m.Answers.WithLabelValues(strconv.FormatBool(a.IsCorrect)).Inc()
		return nil
	})

	eb.Subscribe(domain.EventNameLeaderboardCleared, func(_ context.Context, e event.Event) error {
		archived := e.(domain.EventLeaderboardCleared).Entry != nil
		m.LeaderboardCleared.WithLabelValues(strconv.FormatBool(archived)).Inc()
		return nil
	})
}
