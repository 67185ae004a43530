package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/querylens/querylens/internal/driver"
)

var connectCmd = &cobra.Command{
	Use:          "connect",
	Short:        "Test connection and show server capabilities",
	SilenceUsage: true, // Don't show usage on errors
	Long:         `Connect to a database, detect the server version, and report which diagnostic features the server supports (EXPLAIN ANALYZE, histograms, JSON plans).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connCfg := connectionConfig()

		db, err := driver.Connect(connCfg)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer db.Close()

		drv, err := driver.New(connCfg.Driver, db, connCfg.Database)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		version, err := drv.Version(ctx)
		if err != nil {
			return fmt.Errorf("version detection failed: %w", err)
		}
		caps := drv.Capabilities(ctx)

		fmt.Printf("Connected: %s %s\n", drv.Name(), version)
		if viper.GetString("database") != "" {
			fmt.Printf("Database:  %s\n", viper.GetString("database"))
		}
		fmt.Println()
		fmt.Printf("EXPLAIN ANALYZE:   %s\n", yesNo(caps.ExplainAnalyze))
		fmt.Printf("JSON plans:        %s\n", yesNo(caps.JSONExplain))
		fmt.Printf("Histograms:        %s\n", yesNo(caps.Histograms))
		fmt.Printf("Covering info:     %s\n", yesNo(caps.CoveringIndexInfo))
		fmt.Printf("Parallel query:    %s\n", yesNo(caps.ParallelQuery))

		if !caps.ExplainAnalyze {
			fmt.Println()
			fmt.Println("This server cannot produce actual timings; diagnosis will use optimizer estimates only.")
		}

		return nil
	},
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func init() {
	rootCmd.AddCommand(connectCmd)
}
