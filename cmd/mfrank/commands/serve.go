package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfrank/internal/api"
	"github.com/wonny/mfrank/internal/api/handlers"
	"github.com/wonny/mfrank/internal/refresh"
	"github.com/wonny/mfrank/internal/scheduler"
	"github.com/wonny/mfrank/internal/scheduler/jobs"
	"github.com/wonny/mfrank/pkg/config"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "API 서버 + 스케줄러 시작",
	Long: `HTTP API 서버와 정기 갱신 스케줄러를 함께 시작합니다.

이 명령어는:
- 시작 시 소규모 갱신 실행 (REFRESH_STARTUP_LIMIT)
- REFRESH_INTERVAL 주기로 정기 갱신
- 조회/갱신 엔드포인트 제공

Endpoints:
  GET  /health                   - Health check
  GET  /refresh?limit=N          - 백그라운드 갱신 시작 (202)
  GET  /refresh/runs             - 최근 갱신 리포트
  GET  /categories               - 카테고리 목록
  GET  /recommendations          - 지표 기준 상위 펀드 (metric, limit, category)
  GET  /metrics                  - Prometheus metrics

Example:
  go run ./cmd/mfrank serve
  go run ./cmd/mfrank serve --port 8080 --no-startup-refresh`,
	RunE: runServe,
}

var (
	servePort        string
	noStartupRefresh bool
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API 서버 포트 (기본값: PORT)")
	serveCmd.Flags().BoolVar(&noStartupRefresh, "no-startup-refresh", false, "시작 시 갱신 생략")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx, func(cfg *config.Config) {
		if servePort != "" {
			cfg.Port = servePort
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. Scheduler
	sched := scheduler.New(a.log)
	job := jobs.NewRefreshJob(a.refresher, a.cfg.Refresh.Interval, a.cfg.Refresh.ScheduledLimit, a.log.Module("jobs"))
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 2. Startup refresh runs in the background so the server is reachable immediately
	if !noStartupRefresh {
		if id, err := a.refresher.TriggerFrom(refresh.SourceStartup, a.cfg.Refresh.StartupLimit); err != nil {
			a.log.WithError(err).Warn("Startup refresh not started")
		} else {
			a.log.WithFields(map[string]interface{}{
				"run_id": id,
				"limit":  a.cfg.Refresh.StartupLimit,
			}).Info("Startup refresh started")
		}
	}

	// 3. HTTP
	var health handlers.HealthChecker
	if a.db != nil {
		health = a.db
	}
	router := api.NewRouter(api.Handlers{
		Health:    handlers.NewHealthHandler(health, a.cfg.StoreDriver, a.log),
		Refresh:   handlers.NewRefreshHandler(a.refresher, a.cfg.Refresh.OnDemandLimit, a.log),
		Recommend: handlers.NewRecommendHandler(a.recommend, a.log),
	}, a.cfg.MetricsEnabled, a.log)
	server := api.New(a.cfg, a.log, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	fmt.Printf("\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Printf("   Refresh schedule: %s (limit %d)\n", job.Schedule(), a.cfg.Refresh.ScheduledLimit)
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal or server failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	a.log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
