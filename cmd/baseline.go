package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/querylens/querylens/internal/baseline"
	"github.com/querylens/querylens/internal/engine"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage stored query baselines",
}

var baselineHistoryCmd = &cobra.Command{
	Use:          "history [SQL statement]",
	Short:        "Show stored snapshots for a query",
	SilenceUsage: true,
	Args:         cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText, err := getSQLInput(cmd, args)
		if err != nil {
			return err
		}

		store, err := openBaselineStore()
		if err != nil {
			return err
		}

		hash := baseline.QueryHash(sqlText)
		limit, _ := cmd.Flags().GetInt("limit")
		entries, err := store.History(hash, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Printf("No baseline history for query %s\n", hash)
			return nil
		}

		fmt.Printf("Query %s — %d snapshot(s)\n\n", hash, len(entries))
		for _, e := range entries {
			fmt.Printf("%s  grade %s  score %.1f  time %.2f ms  examined %.0f\n",
				e.Timestamp.Format("2006-01-02 15:04:05"),
				e.Grade, e.CompositeScore,
				e.Metrics["execution_time_ms"], e.Metrics["rows_examined"])
		}
		return nil
	},
}

var baselinePruneCmd = &cobra.Command{
	Use:          "prune",
	Short:        "Delete snapshots older than the retention window",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openBaselineStore()
		if err != nil {
			return err
		}

		days, _ := cmd.Flags().GetInt("days")
		if err := store.Prune(days); err != nil {
			return err
		}
		fmt.Printf("Pruned snapshots older than %d days\n", days)
		return nil
	},
}

func openBaselineStore() (*baseline.Store, error) {
	cfg, err := engine.FromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}
	dir := cfg.Regression.StoragePath
	if dir == "" {
		return nil, fmt.Errorf("regression.storage_path is not configured")
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("no baseline directory at %s", dir)
	}
	return baseline.NewStore(dir, cfg.Regression.MaxHistory, newLogger()), nil
}

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineHistoryCmd)
	baselineCmd.AddCommand(baselinePruneCmd)
	baselineHistoryCmd.Flags().String("file", "", "Read SQL from file instead of argument")
	baselineHistoryCmd.Flags().Int("limit", 10, "Maximum snapshots to show")
	baselinePruneCmd.Flags().Int("days", baseline.DefaultMaxAgeDays, "Retention window in days")
}
