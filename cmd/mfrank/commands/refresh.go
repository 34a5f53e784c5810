package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/mfrank/internal/refresh"
	"github.com/wonny/mfrank/pkg/config"
)

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "지표 갱신 1회 실행",
	Long: `펀드 목록을 가져와 NAV 이력을 수집하고 지표를 다시 계산합니다.
완료될 때까지 기다린 뒤 결과 리포트를 출력합니다.

Ctrl+C로 취소하면 커밋 전 변경사항은 모두 버려집니다.

Example:
  go run ./cmd/mfrank refresh
  go run ./cmd/mfrank refresh --limit 20 --workers 4`,
	RunE: runRefresh,
}

var (
	refreshLimit   int
	refreshWorkers int
)

func init() {
	rootCmd.AddCommand(refreshCmd)

	refreshCmd.Flags().IntVar(&refreshLimit, "limit", 200, "최대 펀드 수 (0 = 전체)")
	refreshCmd.Flags().IntVar(&refreshWorkers, "workers", 0, "동시 수집 워커 수 (기본값: REFRESH_WORKERS)")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, func(cfg *config.Config) {
		if refreshWorkers > 0 {
			cfg.Refresh.Workers = refreshWorkers
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Printf("=== mfrank refresh (limit %d, store %s) ===\n", refreshLimit, a.cfg.StoreDriver)

	report, err := a.refresher.Run(ctx, refreshLimit)
	printReport(report)
	if err != nil {
		return fmt.Errorf("refresh: %w", err)
	}
	return nil
}

func printReport(r *refresh.RunReport) {
	if r == nil {
		return
	}

	fmt.Println()
	fmt.Printf("Run:       %s\n", r.ID)
	fmt.Printf("Outcome:   %s\n", r.Outcome)
	fmt.Printf("Universe:  %d\n", r.Universe)
	fmt.Printf("Created:   %d\n", r.Created)
	fmt.Printf("Updated:   %d\n", r.Updated)
	fmt.Printf("Succeeded: %d\n", r.Succeeded())
	fmt.Printf("Failed:    %d\n", r.FailedTotal())
	for stage, n := range r.Failed {
		fmt.Printf("  - %-12s %d\n", stage, n)
	}
	fmt.Printf("Duration:  %s\n", r.Duration.Round(time.Millisecond))

	if len(r.Errors) > 0 {
		fmt.Println("\nSkipped instruments:")
		for _, e := range r.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
	}
}
