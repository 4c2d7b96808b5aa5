package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/presenter-booking/internal/config"
	"github.com/iliyamo/presenter-booking/internal/database"
	"github.com/iliyamo/presenter-booking/internal/handler"
	"github.com/iliyamo/presenter-booking/internal/identity"
	"github.com/iliyamo/presenter-booking/internal/metrics"
	"github.com/iliyamo/presenter-booking/internal/middleware"
	"github.com/iliyamo/presenter-booking/internal/queue"
	"github.com/iliyamo/presenter-booking/internal/repository"
	"github.com/iliyamo/presenter-booking/internal/router"
	"github.com/iliyamo/presenter-booking/internal/service"
	"github.com/iliyamo/presenter-booking/internal/storage"
	"github.com/iliyamo/presenter-booking/internal/validation"
)

// stores groups the repositories of the selected driver.
type stores struct {
	db            *sql.DB // nil for the memory driver
	roles         service.RoleStore
	presenters    service.PresenterStore
	numbers       service.NumberStore
	registrations service.RegistrationStore
	users         interface {
		identity.Users
		service.UserDirectory
	}
	tokens identity.Tokens
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		m := repository.NewMemory()
		return stores{
			roles:         m.Roles,
			presenters:    m.Presenters,
			numbers:       m.Numbers,
			registrations: m.Registrations,
			users:         m.Users,
			tokens:        m.Tokens,
		}, nil
	}
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, err
	}
	return stores{
		db:            db,
		roles:         repository.NewRoleRepo(db),
		presenters:    repository.NewPresenterRepo(db),
		numbers:       repository.NewNumberRepo(db),
		registrations: repository.NewRegistrationRepo(db),
		users:         repository.NewUserRepo(db),
		tokens:        repository.NewTokenRepo(db),
	}, nil
}

func main() {
	_ = godotenv.Load() // .env is optional; real environment wins
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	if st.db != nil {
		defer st.db.Close()
	}

	m := metrics.New()
	v := validation.New(st.roles, st.presenters, st.numbers, st.presenters.CountByRole, st.numbers.CountByPresenter)

	var events service.EventPublisher = queue.Nop{}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.NewConsumer(cfg.RabbitURL).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("registration-consumer stopped: %v", err)
			}
		}()
	}

	files, err := storage.NewFileStore(cfg.UploadDir, cfg.UploadURLPrefix)
	if err != nil {
		log.Fatalf("uploads: %v", err)
	}

	ids := identity.New(st.users, st.tokens, identity.Config{
		JWTSecret:       cfg.JWTSecret,
		AccessTTLMin:    cfg.AccessTTLMin,
		RefreshTTL:      cfg.RefreshTTL(),
		SessionTTL:      cfg.SessionTTL(),
		BcryptCost:      cfg.BcryptCost,
		MaxFailures:     cfg.LockoutMax,
		LockoutDuration: cfg.LockoutDuration,
	})

	roles := service.NewRoleService(st.roles, v, m)
	presenters := service.NewPresenterService(st.presenters, v, m)
	numbers := service.NewNumberService(st.numbers, st.registrations, v, m)
	registrations := service.NewRegistrationService(st.numbers, st.registrations, events, m)
	showcase := service.NewShowcaseService(st.numbers, st.registrations)
	dashboard := service.NewDashboardService(st.roles, st.presenters, st.numbers, st.registrations, st.users)
	accounts := service.NewAccountService(ids, files, m)

	rdb := config.NewRedisClient(config.LoadRedisConfig()) // nil when Redis is unreachable
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(middleware.RequestMetrics(m))
	e.Static(cfg.UploadURLPrefix, cfg.UploadDir)

	router.RegisterRoutes(e, st.db, m)
	router.RegisterAuth(e, handler.NewAuthHandler(accounts, cfg.UploadMaxBytes), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheCfg := config.LoadCacheConfig()
	router.RegisterPublic(e, handler.NewPublicHandler(showcase), cfg.JWTSecret,
		middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterRegistrations(e, handler.NewRegistrationHandler(registrations), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(roles, presenters, numbers, dashboard), cfg.JWTSecret,
		middleware.PurgeCacheOnWrite(cacheCfg, rdb))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreDriver)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
