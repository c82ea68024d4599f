// Command server runs the SoulTribe backend: HTTP API, activity worker, and
// the cleanup cron, supervised together and shut down gracefully.
package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"soultribe/internal/activity"
	authhandler "soultribe/internal/auth/handler"
	authservice "soultribe/internal/auth/service"
	authstore "soultribe/internal/auth/store"
	availabilityhandler "soultribe/internal/availability/handler"
	availabilityservice "soultribe/internal/availability/service"
	availabilitystore "soultribe/internal/availability/store"
	"soultribe/internal/cleanup"
	"soultribe/internal/mailer"
	matchhandler "soultribe/internal/match/handler"
	matchservice "soultribe/internal/match/service"
	matchstore "soultribe/internal/match/store"
	meetuphandler "soultribe/internal/meetup/handler"
	"soultribe/internal/meetup/room"
	meetupservice "soultribe/internal/meetup/service"
	meetupstore "soultribe/internal/meetup/store"
	"soultribe/internal/platform/config"
	"soultribe/internal/platform/httpserver"
	"soultribe/internal/platform/logger"
	"soultribe/internal/platform/metrics"
	"soultribe/internal/platform/postgres"
	platformredis "soultribe/internal/platform/redis"
	profilehandler "soultribe/internal/profile/handler"
	profileservice "soultribe/internal/profile/service"
	profilestore "soultribe/internal/profile/store"
	"soultribe/internal/ratelimit"
	httptransport "soultribe/internal/transport/http"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	m := metrics.New()

	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(ctx, cfg.PostgresURL, log)
		if err != nil {
			return err
		}
		defer db.Close()
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	redisClient, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var limitStore ratelimit.Store
	if redisClient != nil {
		limitStore = ratelimit.NewRedisStore(redisClient.Client)
	} else {
		limitStore = ratelimit.NewInMemoryStore()
	}

	// Activity pipeline: services emit, the worker drains into the store
	// and, when brokers are configured, onto Kafka.
	recorder := activity.NewService(256, log)
	var activityStore activity.Store
	if db != nil {
		activityStore = activity.NewPostgresStore(db)
	} else {
		activityStore = activity.NewInMemoryStore(10_000)
	}
	var publisher *activity.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err = activity.NewKafkaPublisher(ctx, cfg.KafkaBrokers, cfg.ActivityTopic)
		if err != nil {
			return err
		}
		defer publisher.Close()
	}
	worker := activity.NewWorker(activityStore, publisher, recorder.Inbox(), log)

	var (
		userStore  authstore.Store
		profStore  profilestore.Store
		slotStore  availabilitystore.Store
		pairStore  matchstore.Store
		meetStore  meetupstore.Store
		slotPurger cleanup.SlotPurger
		tokPurger  cleanup.TokenPurger
	)
	if db != nil {
		pg := authstore.NewPostgresStore(db)
		slots := availabilitystore.NewPostgresStore(db)
		userStore, tokPurger = pg, pg
		profStore = profilestore.NewPostgresStore(db)
		slotStore, slotPurger = slots, slots
		pairStore = matchstore.NewPostgresStore(db)
		meetStore = meetupstore.NewPostgresStore(db)
	} else {
		mem := authstore.NewInMemoryStore()
		slots := availabilitystore.NewInMemoryStore()
		userStore, tokPurger = mem, mem
		profStore = profilestore.NewInMemoryStore()
		slotStore, slotPurger = slots, slots
		pairStore = matchstore.NewInMemoryStore()
		meetStore = meetupstore.NewInMemoryStore()
	}

	jwtSvc := authservice.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer)
	mail := mailer.NewLogMailer(log)

	authSvc, err := authservice.New(userStore, jwtSvc, mail, recorder, m, authservice.Config{
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		VerifyTokenTTL:  cfg.VerifyTokenTTL,
		ResetTokenTTL:   cfg.ResetTokenTTL,
		PublicWebURL:    cfg.PublicWebURL,
	})
	if err != nil {
		return err
	}
	profileSvc, err := profileservice.New(profStore, authSvc, recorder)
	if err != nil {
		return err
	}
	availabilitySvc, err := availabilityservice.New(slotStore, recorder, m)
	if err != nil {
		return err
	}
	matchSvc, err := matchservice.New(pairStore, authSvc, profileSvc, availabilitySvc, nil, recorder, m, matchservice.Config{
		LookaheadDays:  cfg.MatchLookaheadDays,
		MaxOverlaps:    cfg.MatchMaxOverlaps,
		ActivityCutoff: time.Duration(cfg.ActivityCutoffDays) * 24 * time.Hour,
	})
	if err != nil {
		return err
	}
	meetupSvc, err := meetupservice.New(
		meetStore, matchSvc, authSvc, profileSvc,
		room.NewGenerator(cfg.MeetBaseURL, cfg.MeetSecret),
		mail, recorder, m, log,
	)
	if err != nil {
		return err
	}

	janitor, err := cleanup.New(cfg.CleanupCron, slotPurger, tokPurger, log)
	if err != nil {
		return err
	}

	router := httptransport.NewRouter(httptransport.Deps{
		Auth:         authhandler.New(authSvc, httptransport.Limits(limitStore, m, log), log),
		Profile:      profilehandler.New(profileSvc, log),
		Availability: availabilityhandler.New(availabilitySvc, log),
		Match:        matchhandler.New(matchSvc, httptransport.FindLimit(limitStore, m, log), log),
		Meetup:       meetuphandler.New(meetupSvc, log),
		JWT:          jwtSvc,
		Metrics:      m,
		Logger:       log,
		Health: func(r *http.Request) error {
			if db == nil {
				return nil
			}
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			return db.PingContext(pingCtx)
		},
	})
	srv := httpserver.New(cfg.Addr, router)

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		return worker.Run(ctx)
	})
	group.Go(func() error {
		janitor.Start()
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		janitor.Stop(stopCtx)
		return nil
	})

	return group.Wait()
}
