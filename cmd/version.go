package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

const versionTemplate = `querylens {{.Version}}

Supported engines:
  • MySQL 8.0.18+ (EXPLAIN ANALYZE with actual timings)
  • PostgreSQL 12+ (EXPLAIN ANALYZE, translated plan)
  • SQLite 3.8+ (EXPLAIN QUERY PLAN, estimates only)

MySQL below 8.0.18 falls back to estimate-only analysis.
`

// Version is set at build time via ldflags
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print querylens version and supported database engines",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("querylens %s (commit: %s, built: %s)\n\n", Version, CommitSHA, BuildDate)
		fmt.Println("Supported engines:")
		fmt.Println("  • MySQL 8.0.18+ (EXPLAIN ANALYZE with actual timings)")
		fmt.Println("  • PostgreSQL 12+ (EXPLAIN ANALYZE, translated plan)")
		fmt.Println("  • SQLite 3.8+ (EXPLAIN QUERY PLAN, estimates only)")
		fmt.Println()
		fmt.Println("MySQL below 8.0.18 falls back to estimate-only analysis.")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Enable the standard --version flag, matching the `version` subcommand output.
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, CommitSHA, BuildDate)
	rootCmd.SetVersionTemplate(versionTemplate)
}
