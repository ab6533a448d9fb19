package router

import (
	"net/http"

	"fundledger-backend/internal/application/access"
	allocsvc "fundledger-backend/internal/application/allocations"
	evsvc "fundledger-backend/internal/application/events"
	holdsvc "fundledger-backend/internal/application/holdings"
	lotsvc "fundledger-backend/internal/application/lots"
	pfsvc "fundledger-backend/internal/application/portfolios"
	wdsvc "fundledger-backend/internal/application/withdrawals"
	"fundledger-backend/internal/config"
	"fundledger-backend/internal/constants"
	"fundledger-backend/internal/infrastructure/database"
	healthhandler "fundledger-backend/internal/interfaces/handlers/health"
	holdhandler "fundledger-backend/internal/interfaces/handlers/holdings"
	lothandler "fundledger-backend/internal/interfaces/handlers/lots"
	pfhandler "fundledger-backend/internal/interfaces/handlers/portfolios"
	wdhandler "fundledger-backend/internal/interfaces/handlers/withdrawals"
	"fundledger-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type gormDBPinger struct {
	db *gorm.DB
}

func (g *gormDBPinger) Ping() error {
	if g == nil || g.db == nil {
		return nil
	}
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CreateApp builds the fiber app. The ledger routes are registered only when
// a database is configured; without Redis no session resolves and every
// ledger route answers 401.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = client
	} else {
		log.Warn().Msg("REDIS_URL not set; sessions and traffic stats are disabled")
	}

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.AutoMigrate {
			if err := database.AutoMigrate(db); err != nil {
				return nil, nil, nil, err
			}
		}
	}

	app := NewApp(cfg, db, rdb)
	return app, db, rdb, nil
}

// NewApp registers middleware and routes on already opened connections.
func NewApp(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage:   true,
		ErrorHandler:            middleware.ErrorHandler,
		EnableTrustedProxyCheck: true,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{AllowedOrigins: cfg.AllowedOrigins}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())
	app.Use(middleware.HealthMarker(rdb))
	app.Use(middleware.Session(rdb))

	hh := &healthhandler.Handlers{Rdb: rdb, HealthAdminKey: cfg.HealthAdminKey}
	if db != nil {
		hh.DB = &gormDBPinger{db: db}
	}
	app.Get("/health/json", hh.JSON)
	app.Get("/health/errors", hh.Errors)
	app.Get("/health/reset", hh.Reset)

	if db == nil {
		log.Warn().Msg("no database configured; ledger routes are disabled")
		return app
	}

	az := &access.PortfolioOwnerAuthorizer{DB: db}
	view := middleware.AuthorizePermission(constants.ViewData)
	manage := middleware.AuthorizePermission(constants.ManageHoldings)

	// Portfolios
	pfh := &pfhandler.Handlers{Service: &pfsvc.Service{DB: db}}
	pg := app.Group("/api/v1/portfolios", middleware.RequireAuth())
	pg.Post("/create-portfolio", manage, pfh.CreatePortfolio)
	pg.Get("/view-portfolios", view, pfh.ViewPortfolios)

	// Holdings
	holdh := &holdhandler.Handlers{
		Service:      &holdsvc.Service{DB: db, Authorizer: az},
		EventService: &evsvc.Service{DB: db},
	}
	hg := app.Group("/api/v1/holdings", middleware.RequireAuth())
	hg.Post("/open-holding", manage, holdh.OpenHolding)
	hg.Get("/view-holdings", view, holdh.ViewHoldings)
	hg.Get("/:holding_id", view, holdh.ViewHolding)
	hg.Delete("/:holding_id", manage, holdh.CloseHolding)
	hg.Get("/:holding_id/reconcile", view, holdh.Reconcile)
	hg.Get("/:holding_id/events", view, holdh.Events)

	// Lots
	loth := &lothandler.Handlers{Service: &lotsvc.Service{DB: db, Authorizer: az, MaxRetries: cfg.LedgerMaxRetries}}
	lg := app.Group("/api/v1/lots", middleware.RequireAuth())
	lg.Post("/create-lot", manage, loth.CreateLot)
	lg.Get("/holding/:holding_id", view, loth.ListLots)
	lg.Delete("/:lot_id", manage, loth.DeleteLot)

	// Withdrawals
	wdh := &wdhandler.Handlers{
		Service:           &wdsvc.Service{DB: db, Authorizer: az, MaxRetries: cfg.LedgerMaxRetries},
		AllocationService: &allocsvc.Service{DB: db, Authorizer: az},
	}
	wg := app.Group("/api/v1/withdrawals", middleware.RequireAuth())
	wg.Post("/create-withdrawal", manage, wdh.CreateWithdrawal)
	wg.Get("/holding/:holding_id", view, wdh.ListWithdrawals)
	wg.Get("/:withdrawal_id", view, wdh.ViewWithdrawal)
	wg.Get("/:withdrawal_id/allocations", view, wdh.Allocations)
	wg.Delete("/:withdrawal_id", manage, wdh.DeleteWithdrawal)

	return app
}

func Handler(app *fiber.App) http.Handler {
	return adaptor.FiberApp(app)
}
