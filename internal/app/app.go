package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/office-pools/internal/config"
	"github.com/riskibarqy/office-pools/internal/domain/claim"
	"github.com/riskibarqy/office-pools/internal/domain/matchup"
	"github.com/riskibarqy/office-pools/internal/domain/pool"
	"github.com/riskibarqy/office-pools/internal/domain/scoreboard"
	"github.com/riskibarqy/office-pools/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/office-pools/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/office-pools/internal/infrastructure/schedule"
	"github.com/riskibarqy/office-pools/internal/interfaces/httpapi"
	"github.com/riskibarqy/office-pools/internal/platform/cache"
	idgen "github.com/riskibarqy/office-pools/internal/platform/id"
	"github.com/riskibarqy/office-pools/internal/platform/logging"
	"github.com/riskibarqy/office-pools/internal/platform/random"
	"github.com/riskibarqy/office-pools/internal/platform/telemetry"
	"github.com/riskibarqy/office-pools/internal/usecase"
)

const dbPingTimeout = 5 * time.Second

type stores struct {
	pools    pool.Repository
	slots    claim.Repository
	matchups matchup.Repository
	boards   scoreboard.Repository
	close    func() error
}

// NewHTTPServer wires the services onto the configured store and telemetry sink. The returned
// cleanup releases the database pool and flushes the sink.
func NewHTTPServer(cfg config.Config, logger *logging.Logger) (*http.Server, func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return nil, nil, fmt.Errorf("http server addr cannot be empty")
	}

	st, err := newStores(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	sink, closeSink := newTelemetrySink(cfg, logger)

	retrier := usecase.NewStoreRetrier(cfg.RetryConfig(), logger, sink)
	snapshots := cache.NewStore[scoreboard.Snapshot](cfg.CacheTTL)

	scoreboardSvc := usecase.NewScoreboardService(st.pools, st.slots, st.matchups, st.boards, snapshots, retrier)
	scoreboardSvc.SetLogger(logger)

	poolSvc := usecase.NewPoolService(st.pools, st.slots, random.NewAssigner(logger), idgen.NewUUIDGenerator(), retrier)
	poolSvc.SetLogger(logger)
	poolSvc.SetTelemetry(sink)
	poolSvc.SetScoreboardInvalidator(scoreboardSvc)
	poolSvc.SetInviteCodePolicy(cfg.InviteCodeLength, cfg.InviteCodeMaxAttempts)

	claimSvc := usecase.NewClaimService(st.pools, st.slots, retrier)
	claimSvc.SetLogger(logger)
	claimSvc.SetTelemetry(sink)
	claimSvc.SetScoreboardInvalidator(scoreboardSvc)

	matchupSvc := usecase.NewMatchupService(st.pools, st.matchups, schedule.NewStaticFeed(schedule.SeedGames()...), idgen.NewUUIDGenerator(), retrier)
	matchupSvc.SetLogger(logger)
	matchupSvc.SetScoreboardInvalidator(scoreboardSvc)
	matchupSvc.SetImportConcurrency(cfg.ImportConcurrency)

	rescoreSvc := usecase.NewRescoreService(poolSvc, scoreboardSvc, cfg.RescoreWorkers)
	rescoreSvc.SetLogger(logger)
	rescoreSvc.SetTelemetry(sink)

	handler := httpapi.NewHandler(poolSvc, claimSvc, matchupSvc, scoreboardSvc, rescoreSvc, logger)
	router := httpapi.NewRouter(handler, logger, httpapi.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		InternalJobToken:   cfg.InternalJobToken,
		WorkflowTimeout:    cfg.WorkflowTimeout,
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	cleanup := func() error {
		return errors.Join(closeSink(), st.close())
	}

	logger.Info("http server wired",
		"store_driver", cfg.StoreDriver,
		"telemetry_sink", cfg.TelemetrySink,
		"retry_max_attempts", cfg.RetryMaxAttempts,
		"circuit_enabled", cfg.StoreCircuitEnabled,
	)

	return server, cleanup, nil
}

func newStores(cfg config.Config, logger *logging.Logger) (stores, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		db, err := openPostgres(cfg)
		if err != nil {
			return stores{}, err
		}
		logger.Info("postgres store connected", "db_name", postgres.DatabaseName(cfg.DBURL))
		return stores{
			pools:    postgres.NewPoolRepository(db),
			slots:    postgres.NewSlotRepository(db),
			matchups: postgres.NewMatchupRepository(db),
			boards:   postgres.NewScoreboardRepository(db),
			close:    db.Close,
		}, nil
	default:
		return stores{
			pools:    memory.NewPoolRepository(),
			slots:    memory.NewSlotRepository(),
			matchups: memory.NewMatchupRepository(),
			boards:   memory.NewScoreboardRepository(),
			close:    func() error { return nil },
		}, nil
	}
}

func openPostgres(cfg config.Config) (*sqlx.DB, error) {
	dsn := cfg.DBURL
	if cfg.DBDisablePreparedBinary {
		dsn = postgres.DisablePreparedBinaryResult(dsn)
	}

	db, err := otelsqlx.Open("postgres", dsn,
		otelsql.WithAttributes(attribute.String("db.system", "postgresql")),
		otelsql.WithDBName(postgres.DatabaseName(cfg.DBURL)),
		otelsql.WithQueryFormatter(postgres.TraceQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbPingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func newTelemetrySink(cfg config.Config, logger *logging.Logger) (telemetry.Sink, func() error) {
	noClose := func() error { return nil }
	switch cfg.TelemetrySink {
	case config.SinkKafka:
		sink := telemetry.NewKafkaSink(strings.Join(cfg.KafkaBrokers, ","), cfg.KafkaTopic, logger)
		return sink, sink.Close
	case config.SinkNone:
		return telemetry.Nop(), noClose
	default:
		return telemetry.NewLogSink(logger), noClose
	}
}
