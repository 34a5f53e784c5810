package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/wonny/mfrank/internal/scheduler"
	"github.com/wonny/mfrank/internal/scheduler/jobs"
	"github.com/wonny/mfrank/pkg/httputil"
	"github.com/wonny/mfrank/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 갱신 스케줄러를 API 서버 없이 실행하거나 상태를 조회합니다.

Subcommands:
  start   - 스케줄러 시작 (Ctrl+C로 종료)
  status  - 실행 중인 서버의 최근 갱신 리포트 조회

Example:
  go run ./cmd/mfrank scheduler start
  go run ./cmd/mfrank scheduler status --addr http://localhost:8000`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `REFRESH_INTERVAL 주기로 fund_refresh 작업을 실행합니다.

--run-now를 주면 시작 직후 1회 실행합니다.`,
		RunE: runScheduler,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "최근 갱신 리포트 조회",
		RunE:  showStatus,
	}
)

var (
	schedulerRunNow bool
	statusAddr      string
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)

	schedulerStartCmd.Flags().BoolVar(&schedulerRunNow, "run-now", false, "시작 직후 1회 실행")
	schedulerStatusCmd.Flags().StringVar(&statusAddr, "addr", "http://localhost:8000", "API 서버 주소")
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== mfrank Scheduler ===")

	a, err := newApp(context.Background())
	if err != nil {
		return err
	}
	defer a.Close()

	sched := scheduler.New(a.log)
	job := jobs.NewRefreshJob(a.refresher, a.cfg.Refresh.Interval, a.cfg.Refresh.ScheduledLimit, a.log.Module("jobs"))
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()
	defer sched.Stop()

	if schedulerRunNow {
		if err := sched.RunJob(job.Name()); err != nil {
			return fmt.Errorf("run job: %w", err)
		}
	}

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		next, _ := sched.NextRun(jobName)
		fmt.Printf("  - %s (next: %s)\n", jobName, next.Format("2006-01-02 15:04:05"))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	for name, stat := range sched.GetJobStats() {
		fmt.Printf("📊 %s: %d runs, %d failed\n", name, stat.TotalRuns, stat.FailureCount)
	}
	return nil
}

func showStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logger.New(cfg)

	client := httputil.NewWithTimeout(log, 5*time.Second).DisableRetry()
	url := strings.TrimRight(statusAddr, "/") + "/refresh/runs"

	status, body, err := client.GetBody(context.Background(), url)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("fetch %s: status %d", url, status)
	}

	doc := gjson.ParseBytes(body)
	if doc.Get("running").Bool() {
		fmt.Printf("🔄 Running: %s\n\n", doc.Get("current").String())
	}

	runs := doc.Get("runs").Array()
	if len(runs) == 0 {
		fmt.Println("No refresh runs recorded yet")
		return nil
	}

	fmt.Println("Recent refresh runs:")
	fmt.Println()
	for _, run := range runs {
		started := run.Get("started_at").Time()
		fmt.Printf("📊 %s [%s]\n", run.Get("id").String(), run.Get("source").String())
		fmt.Printf("   Started:  %s\n", started.Local().Format("2006-01-02 15:04:05"))
		fmt.Printf("   Outcome:  %s\n", run.Get("outcome").String())
		fmt.Printf("   Universe: %d  Created: %d  Updated: %d\n",
			run.Get("universe").Int(), run.Get("created").Int(), run.Get("updated").Int())

		run.Get("failed").ForEach(func(stage, n gjson.Result) bool {
			fmt.Printf("   Failed (%s): %d\n", stage.String(), n.Int())
			return true
		})
		if msg := run.Get("error").String(); msg != "" {
			fmt.Printf("   Error: %s\n", msg)
		}
		fmt.Println()
	}
	return nil
}
