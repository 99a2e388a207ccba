package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpadp "lendora-core/internal/adapter/http"
	"lendora-core/internal/adapter/middleware"
	"lendora-core/internal/adapter/repository/mysql"
	"lendora-core/internal/config"
	"lendora-core/internal/creditgate"
	"lendora-core/internal/domain/collateral"
	domainLiq "lendora-core/internal/domain/liquidation"
	domainLoan "lendora-core/internal/domain/loan"
	domainParams "lendora-core/internal/domain/params"
	"lendora-core/internal/infrastructure/cache"
	"lendora-core/internal/infrastructure/db"
	"lendora-core/internal/metrics"
	"lendora-core/internal/oracle"
	adminuc "lendora-core/internal/usecase/admin"
	ledgeruc "lendora-core/internal/usecase/ledger"
	liquc "lendora-core/internal/usecase/liquidation"
	loanuc "lendora-core/internal/usecase/loan"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN())
	if err != nil {
		log.Fatalf("mysql: %v", err)
	}
	if err := gdb.AutoMigrate(
		&domainLoan.Loan{},
		&collateral.Position{},
		&domainLiq.Event{},
		&domainParams.Params{},
		&domainParams.Change{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}

	store := mysql.NewGormUoW(gdb)
	feed := oracle.NewRedisFeed(rdb, 2*time.Second)

	var gate creditgate.Gate
	if cfg.GateURL != "" {
		gate = creditgate.NewHTTPGate(cfg.GateURL, cfg.GateTimeout)
	} else {
		log.Println("CREDIT_GATE_URL unset, treating every borrower as eligible")
		gate = &creditgate.StaticGate{Default: true}
	}

	met := metrics.New()
	svc := ledgeruc.NewService(feed, cfg.PriceFreshness)
	engine := liquc.NewEngine(svc)

	loans := loanuc.NewUsecase(store, gate, svc, engine, met)
	ledger := ledgeruc.NewUsecase(store, svc)
	admin := adminuc.NewUsecase(store)

	if err := admin.EnsureDefaults(context.Background()); err != nil {
		log.Fatalf("seed params: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	e.Use(middleware.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second))

	h := httpadp.NewHandler()
	lh := httpadp.NewLoanHandler(loans)
	ch := httpadp.NewCollateralHandler(ledger)
	ah := httpadp.NewAdminHandler(admin)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	e.POST("/loans", lh.OriginateLoan)
	e.GET("/loans/:loan_id", lh.GetLoan)
	e.GET("/loans/:loan_id/ratio", lh.GetLoanRatio)
	e.GET("/loans/:loan_id/events", lh.ListLoanEvents)
	e.POST("/loans/:loan_id/repayments", lh.RepayLoan)
	e.POST("/loans/:loan_id/health-checks", lh.CheckHealth)
	e.POST("/loans/:loan_id/expire", lh.ExpireLoan)

	e.POST("/collateral", ch.PostCollateral)
	e.POST("/collateral/withdrawals", ch.WithdrawCollateral)
	e.GET("/borrowers/:borrower_id/positions", ch.ListPositions)

	adm := e.Group("/admin", httpadp.RequireAdminToken(cfg.AdminToken))
	adm.GET("/params", ah.GetParams)
	adm.GET("/params/changes", ah.ListParamChanges)
	adm.PUT("/params/base-rate", ah.SetBaseRate)
	adm.PUT("/params/liquidation", ah.SetLiquidationParams)

	// Background sweep defaults matured loans that nobody expired by hand.
	go func() {
		t := time.NewTicker(cfg.SweepInterval)
		defer t.Stop()
		for range t.C {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
			n, err := loans.SweepExpired(ctx)
			cancel()
			if err != nil {
				log.Printf("expiry sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("expiry sweep: defaulted %d loans", n)
			}
		}
	}()

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
