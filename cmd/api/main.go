package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-core-go/internal/config"
	appHTTP "github.com/cmlabs-hris/hris-core-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-core-go/internal/pkg/routing"
	"github.com/cmlabs-hris/hris-core-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-core-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-core-go/internal/service/leave"
	payrollService "github.com/cmlabs-hris/hris-core-go/internal/service/payroll"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(ctx, dsn, database.PoolSettings{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	// Route provider, optionally behind the Redis cache
	var routeProvider routing.Provider
	if cfg.Routing.BaseURL != "" {
		client := routing.NewClient(cfg.Routing)
		var rdb *redis.Client
		if cfg.Redis.Addr != "" {
			rdb = redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			if err := rdb.Ping(ctx).Err(); err != nil {
				slog.Warn("Redis unavailable, route lookups are not cached", "addr", cfg.Redis.Addr, "error", err)
				rdb.Close()
				rdb = nil
			} else {
				defer rdb.Close()
			}
		}
		// The deadline covers the cache round trip as well as the HTTP call
		routeProvider = routing.WithTimeout(
			routing.NewCachedProvider(client, rdb, cfg.Routing.Profile, cfg.Routing.CacheTTL, cfg.Routing.Timeout),
			cfg.Routing.Timeout,
		)
	} else {
		slog.Info("No routing provider configured, distances use Haversine")
	}

	txManager := postgresql.NewTxManager(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	workSiteRepo := postgresql.NewWorkSiteRepository(db)
	checkInPointRepo := postgresql.NewCheckInPointRepository(db)
	dailyDistanceRepo := postgresql.NewDailyDistanceRepository(db)
	leavePolicyRepo := postgresql.NewLeavePolicyRepository(db)
	leaveBalanceRepo := postgresql.NewLeaveBalanceRepository(db)
	leaveRequestRepo := postgresql.NewLeaveRequestRepository(db)
	salaryStructureRepo := postgresql.NewSalaryStructureRepository(db)
	calculationContextProvider := postgresql.NewCalculationContextProvider(db)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessTokenExpirationTime)

	anomalyConfig, err := attendanceService.NewAnomalyConfig(cfg.Anomaly)
	if err != nil {
		log.Fatal("Invalid anomaly configuration:", err)
	}
	statutoryConfig, err := payrollService.NewStatutoryConfig(cfg.Statutory)
	if err != nil {
		log.Fatal("Invalid statutory configuration:", err)
	}
	salaryEngine, err := payrollService.NewEngine(statutoryConfig, cfg.Payroll)
	if err != nil {
		log.Fatal("Invalid payroll configuration:", err)
	}

	trackingSvc := attendanceService.NewTrackingService(
		txManager,
		workSiteRepo,
		checkInPointRepo,
		dailyDistanceRepo,
		attendanceService.NewDistanceTracker(routeProvider),
		anomalyConfig,
		cfg.App,
	)
	leaveSvc := leaveService.NewLeaveService(
		txManager,
		leavePolicyRepo,
		leaveBalanceRepo,
		leaveRequestRepo,
		employeeRepo,
		leaveService.NewAccrualCalculator(),
	)
	payrollSvc := payrollService.NewPayrollService(employeeRepo, salaryStructureRepo, calculationContextProvider, salaryEngine)

	attendanceHandler := appHTTP.NewAttendanceHandler(trackingSvc, employeeRepo)
	leaveHandler := appHTTP.NewLeaveHandler(leaveSvc, employeeRepo)
	payrollHandler := appHTTP.NewPayrollHandler(payrollSvc, employeeRepo)

	router := appHTTP.NewRouter(
		cfg.App,
		JWTService,
		attendanceHandler,
		leaveHandler,
		payrollHandler,
	)

	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.App.CronEnabled {
		location, _ := time.LoadLocation(cfg.App.Timezone)
		scheduler := cron.NewScheduler(appCtx)
		cron.NewLeaveJobs(employeeRepo, leaveSvc, location).RegisterJobs(scheduler)
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		<-appCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown failed", "error", err)
		}
	}()

	fmt.Printf("Server running at http://localhost%s\n", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Println("Server error:", err)
	}
}
