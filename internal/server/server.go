package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/victornm/teamquiz/internal/api"
	"github.com/victornm/teamquiz/internal/archive"
	"github.com/victornm/teamquiz/internal/event"
	"github.com/victornm/teamquiz/internal/leaderboard"
	"github.com/victornm/teamquiz/internal/lock"
	"github.com/victornm/teamquiz/internal/quizconfig"
	"github.com/victornm/teamquiz/internal/room"
	"github.com/victornm/teamquiz/internal/session"
	"github.com/victornm/teamquiz/internal/store"
	"github.com/victornm/teamquiz/internal/store/memory"
	"github.com/victornm/teamquiz/internal/store/postgres"
	redisstore "github.com/victornm/teamquiz/internal/store/redis"
	"github.com/victornm/teamquiz/internal/store/sqlite"
	"github.com/victornm/teamquiz/internal/telemetry"
)

// Version is reported by the health endpoint.
var Version = "dev"

const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP struct {
		Port      int32
		PublicURL string `mapstructure:"public_url"`
	}

	GRPC struct {
		Port int32
	}

	Store struct {
		Driver string

		SQLite struct {
			Path string
		}

		Redis struct {
			Addrs  []string
			Pass   string
			Prefix string
		}

		Postgres PostgresConfig
	}

	Room struct {
		EnforceTimeLimit bool `mapstructure:"enforce_time_limit"`
		// DefaultTimeLimit is in seconds.
		DefaultTimeLimit int `mapstructure:"default_time_limit"`
	}
}

type PostgresConfig struct {
	Addr string
	User string
	Pass string
	Name string
}

func (c PostgresConfig) DSN() string {
	return postgres.DSN(c.Addr, c.User, c.Pass, c.Name)
}

// DefaultConfig is the configuration used for every key missing from the file and environment.
func DefaultConfig() Config {
	var c Config
	c.HTTP.Port = 8080
	c.GRPC.Port = 8081
	c.Store.Driver = DriverMemory
	c.Store.SQLite.Path = sqlite.DefaultPath
	c.Store.Redis.Addrs = []string{"localhost:6379"}
	c.Store.Redis.Prefix = "teamquiz"
	c.Store.Postgres = PostgresConfig{Addr: "localhost:5432", User: "postgres", Pass: "postgres", Name: "teamquiz"}
	c.Room.DefaultTimeLimit = 40
	return c
}

type Server struct {
	c Config

	eb      *event.Bus
	locks   *lock.Keyed
	metrics *telemetry.Metrics

	infra struct {
		store  store.Store
		redis  redis.UniversalClient
		pg     *pgxpool.Pool
		sqlite *sqlite.Store
	}

	service struct {
		room        *room.Service
		session     *session.Service
		leaderboard *leaderboard.Service
		archive     *archive.Service
		quizConfig  *quizconfig.Service
	}

	http   *http.Server
	grpc   *grpc.Server
	health *health.Server
}

func Init(c Config) (*Server, error) {
	s := &Server{c: c}

	s.eb = event.NewBus()
	s.locks = lock.NewKeyed()
	s.metrics = telemetry.NewMetrics(prometheus.DefaultRegisterer)
	s.metrics.Subscribe(s.eb)

	if err := s.initInfra(); err != nil {
		return nil, fmt.Errorf("server: init infra: %w", err)
	}

	s.initService()
	s.initAPI()
	return s, nil
}

func (s *Server) initInfra() error {
	switch s.c.Store.Driver {
	case DriverMemory, "":
		s.infra.store = memory.NewStore()
		slog.Warn("server: using the memory store, data is lost on restart")
		return nil

	case DriverSQLite:
		st, err := sqlite.NewStore(s.c.Store.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		s.infra.sqlite = st
		s.infra.store = st
		return nil

	case DriverRedis:
		if err := s.initRedis(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		s.infra.store = redisstore.NewStore(s.infra.redis, s.c.Store.Redis.Prefix)
		return nil

	case DriverPostgres:
		if err := s.initPostgres(); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		s.infra.store = postgres.NewStore(s.infra.pg)
		return nil

	default:
		return fmt.Errorf("unknown store driver %q", s.c.Store.Driver)
	}
}

func (s *Server) initRedis() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	r := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    s.c.Store.Redis.Addrs,
		Password: s.c.Store.Redis.Pass,
	})

	if err := telemetry.MonitorRedis(r); err != nil {
		return err
	}

	if err := r.Ping(ctx).Err(); err != nil {
		return err
	}

	s.infra.redis = r
	return nil
}

func (s *Server) initPostgres() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := s.c.Store.Postgres.DSN()
	if err := postgres.Migrate(ctx, dsn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	cc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return err
	}

	db, err := pgxpool.NewWithConfig(ctx, cc)
	if err != nil {
		return err
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return err
	}

	s.infra.pg = db
	return nil
}

func (s *Server) initService() {
	s.service.leaderboard = leaderboard.NewService(leaderboard.Config{
		Store: s.infra.store,
		Locks: s.locks,
	})

	s.service.session = session.NewService(session.Config{
		Store:       s.infra.store,
		Locks:       s.locks,
		Leaderboard: s.service.leaderboard,
		EventBus:    s.eb,
	})

	s.service.room = room.NewService(room.Config{
		Store:            s.infra.store,
		Locks:            s.locks,
		EventBus:         s.eb,
		EnforceTimeLimit: s.c.Room.EnforceTimeLimit,
		DefaultTimeLimit: time.Duration(s.c.Room.DefaultTimeLimit) * time.Second,
	})

	s.service.archive = archive.NewService(archive.Config{
		Store:    s.infra.store,
		Locks:    s.locks,
		EventBus: s.eb,
	})

	s.service.quizConfig = quizconfig.NewService(quizconfig.Config{
		Store: s.infra.store,
		Locks: s.locks,
	})
}

func (s *Server) initAPI() {
	e := gin.New()
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(e, "/debug/pprof")
	e.Use(gin.Recovery(), telemetry.HTTPMiddleware(s.metrics))

	api.New(api.Config{
		Router:      e,
		Room:        s.service.room,
		Session:     s.service.session,
		Leaderboard: s.service.leaderboard,
		Archive:     s.service.archive,
		QuizConfig:  s.service.quizConfig,
		PublicURL:   s.c.HTTP.PublicURL,
		Version:     Version,
	})

	s.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.c.HTTP.Port),
		Handler:           e,
		ReadHeaderTimeout: 60 * time.Second,
	}

	s.grpc = grpc.NewServer(telemetry.GRPCServerInterceptor())
	s.health = health.NewServer()
	healthpb.RegisterHealthServer(s.grpc, s.health)
}

func (s *Server) Start() {
	ctx := context.TODO()

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.c.GRPC.Port))
	if err != nil {
		slog.ErrorContext(ctx, "grpc server: listen failed", "error", err)
		panic(err)
	}

	var eg errgroup.Group
	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: gRPC listening on port %d", s.c.GRPC.Port))
		return s.grpc.Serve(lis)
	})

	eg.Go(func() error {
		slog.InfoContext(ctx, fmt.Sprintf("server: HTTP listening on port %d", s.c.HTTP.Port), "store", s.c.Store.Driver)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
}

func (s *Server) Shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.health.Shutdown()
	if err := s.http.Shutdown(ctx); err != nil {
		slog.ErrorContext(ctx, "server: shutdown HTTP failed", "error", err)
	}
	s.grpc.GracefulStop()

	s.eb.Stop()
	s.closeInfra()

	slog.InfoContext(ctx, "server: shutdown completed")
}

func (s *Server) closeInfra() {
	if s.infra.redis != nil {
		if err := s.infra.redis.Close(); err != nil {
			slog.Error("server: close redis failed", "error", err)
		}
	}
	if s.infra.pg != nil {
		s.infra.pg.Close()
	}
	if s.infra.sqlite != nil {
		if err := s.infra.sqlite.Close(); err != nil {
			slog.Error("server: close sqlite failed", "error", err)
		}
	}
}
