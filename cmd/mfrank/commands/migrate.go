package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/mfrank/pkg/config"
	"github.com/wonny/mfrank/pkg/database"
	"github.com/wonny/mfrank/pkg/logger"
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "fund_analysis 스키마 생성/업그레이드",
	Long: `PostgreSQL에 fund_analysis 테이블을 생성하고 누락된 컬럼/인덱스를 추가합니다.
여러 번 실행해도 안전합니다 (IF NOT EXISTS).

Example:
  go run ./cmd/mfrank migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.StoreDriverPostgres {
		fmt.Printf("STORE_DRIVER=%s has no schema to migrate\n", cfg.StoreDriver)
		return nil
	}

	log := logger.New(cfg)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	log.WithField("table", database.FundAnalysisTable).Info("Migration complete")
	fmt.Println("✅ Migration complete")
	return nil
}
