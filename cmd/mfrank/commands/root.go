package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "mfrank",
	Short: "mfrank - mutual fund metrics & recommendations",
	Long: `mfrank Unified CLI

펀드 목록과 NAV 이력을 수집해 수익률/변동성/샤프 지표를 계산하고
지표 기준 상위 펀드를 추천합니다.

Usage:
  go run ./cmd/mfrank [command]

Examples:
  go run ./cmd/mfrank serve
  go run ./cmd/mfrank refresh --limit 50
  go run ./cmd/mfrank recommend --metric 1Y --category Equity
  go run ./cmd/mfrank migrate`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "env file to load before the environment (default is .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
