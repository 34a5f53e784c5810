package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/wonny/mfrank/internal/classify"
	"github.com/wonny/mfrank/internal/recommend"
)

// recommendCmd represents the recommend command
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "지표 기준 상위 펀드 조회",
	Long: `저장된 지표로 상위 펀드를 조회합니다 (읽기 전용).

Metrics: 1M, 3M, 6M, 1Y, VOLATILITY, SHARPE

Example:
  go run ./cmd/mfrank recommend
  go run ./cmd/mfrank recommend --metric 1Y --limit 5 --category Equity`,
	RunE: runRecommend,
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "카테고리 목록",
	Run: func(cmd *cobra.Command, args []string) {
		for _, c := range classify.Categories() {
			fmt.Println(c)
		}
	},
}

var (
	recommendMetric   string
	recommendLimit    int
	recommendCategory string
)

func init() {
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(categoriesCmd)

	recommendCmd.Flags().StringVar(&recommendMetric, "metric", recommend.DefaultMetric, "정렬 지표 ("+strings.Join(recommend.MetricNames(), ", ")+")")
	recommendCmd.Flags().IntVar(&recommendLimit, "limit", recommend.DefaultLimit, "최대 결과 수")
	recommendCmd.Flags().StringVar(&recommendCategory, "category", "", "카테고리 필터 (예: Equity, Index Fund)")
}

func runRecommend(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	funds, err := a.recommend.Recommend(ctx, recommendMetric, recommendLimit, recommendCategory)
	if err != nil {
		return fmt.Errorf("recommend: %w", err)
	}

	if len(funds) == 0 {
		fmt.Println("No funds found (run `mfrank refresh` first?)")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "Code\tScheme\tCategory\t1M %\t3M %\t6M %\t1Y %\tVol %\tSharpe\t")
	for _, f := range funds {
		category := "-"
		if f.Category != nil {
			category = *f.Category
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t\n",
			f.Code, truncate(f.Name, 48), category,
			f.Return1M, f.Return3M, f.Return6M, f.Return1Y, f.Volatility, f.Sharpe)
	}
	return w.Flush()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
