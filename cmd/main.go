package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/cleanshift/core/internal/cache"
	"github.com/cleanshift/core/internal/config"
	"github.com/cleanshift/core/internal/db"
	"github.com/cleanshift/core/internal/identity"
	"github.com/cleanshift/core/internal/logger"
	"github.com/cleanshift/core/internal/model"
	"github.com/cleanshift/core/internal/report"
	"github.com/cleanshift/core/internal/repository"
	"github.com/cleanshift/core/internal/service"
)

func main() {
	// 1. Переменные окружения: .env опционален.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level, cfg.Log.Format, "cleanshift-core")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	// 2. Подключаемся к БД через GORM.
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		zl.Fatal("init db", zap.Error(err))
	}

	// 3. Миграции моделей.
	if err := model.AutoMigrate(gormDB); err != nil {
		zl.Fatal("auto migrate", zap.Error(err))
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		zl.Fatal("sql DB", zap.Error(err))
	}
	defer sqlDB.Close()

	// 4. Redis для кэша отчётов. Недоступный Redis не валит сервис:
	// кэш просто молчит в промах.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		zl.Warn("redis unavailable, report cache disabled", zap.Error(err))
	}
	reportCache := cache.NewReportCache(rdb, time.Duration(cfg.Redis.ReportTTLSec)*time.Second, zl)

	// 5. Клиент каталога пользователей.
	dir := identity.NewHTTPDirectory(
		cfg.Identity.BaseURL,
		time.Duration(cfg.Identity.TimeoutSec)*time.Second,
		zl,
	)

	// 6. Репозитории (реализации на GORM).
	siteRepo := repository.NewGormSiteRepository(gormDB)
	workerRepo := repository.NewGormWorkerRepository(gormDB)
	assignmentRepo := repository.NewGormAssignmentRepository(gormDB)
	jobRepo := repository.NewGormJobRepository(gormDB)
	logRepo := repository.NewGormTimeLogRepository(gormDB)
	eventRepo := repository.NewGormEventRepository(gormDB)

	// 7. Сервисы ядра.
	engine := &service.Engine{
		Shifts:   service.NewShiftService(dir, jobRepo, siteRepo, workerRepo, assignmentRepo, logRepo, eventRepo, zl),
		Clock:    service.NewClockService(dir, jobRepo, siteRepo, logRepo, eventRepo, zl),
		Schedule: service.NewScheduleService(dir, jobRepo, siteRepo, workerRepo, assignmentRepo, logRepo, eventRepo, zl),
		Reports:  service.NewReportService(dir, jobRepo, siteRepo, workerRepo, logRepo, reportCache, zl),
	}

	// 8. HTTP-выгрузка отчётов в xlsx.
	exportMux := http.NewServeMux()
	exportMux.Handle("/export/report", report.NewHandler(engine.Reports, zl))
	exportSrv := &http.Server{Addr: cfg.Server.ExportAddr, Handler: exportMux}
	go func() {
		zl.Info("report export listening", zap.String("addr", cfg.Server.ExportAddr))
		if err := exportSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zl.Fatal("export serve", zap.Error(err))
		}
	}()

	// 9. gRPC-сервер: health + reflection; API-обвязка регистрируется
	// транспортным слоем поверх engine.
	grpcServer := grpc.NewServer()
	healthSrv := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthSrv)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		zl.Fatal("listen", zap.String("addr", cfg.Server.GRPCAddr), zap.Error(err))
	}

	zl.Info("core gRPC server listening", zap.String("addr", cfg.Server.GRPCAddr))

	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			zl.Fatal("grpc serve", zap.Error(err))
		}
	}()

	// 10. Грейсфул-шатдаун по сигналу.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	zl.Info("shutting down...")
	healthSrv.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := exportSrv.Shutdown(shutdownCtx); err != nil {
		zl.Warn("export shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
}
