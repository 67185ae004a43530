package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/querylens/querylens/internal/driver"
	"github.com/querylens/querylens/internal/engine"
	"github.com/querylens/querylens/internal/logger"
	"github.com/querylens/querylens/internal/output"
	"github.com/querylens/querylens/internal/report"
	"github.com/querylens/querylens/internal/schema"
	"github.com/querylens/querylens/internal/validate"
)

// Exit codes: 0 passed, 1 gate failure, 2 validation failure.
const (
	exitOK         = 0
	exitGateFailed = 1
	exitValidation = 2
)

var diagnoseCmd = &cobra.Command{
	Use:          "diagnose [SQL statement]",
	Short:        "Run a SELECT under EXPLAIN ANALYZE and grade it",
	SilenceUsage: true,
	Long: `Diagnose a SELECT statement against a live database:
  - Validates tables, columns and join references before anything runs
  - Executes EXPLAIN ANALYZE and parses the plan tree
  - Extracts metrics (rows examined, loops, access types, complexity)
  - Scores five weighted components into a letter grade
  - Evaluates anti-pattern rules and deep analyzers
  - Caps the grade by how confident the measurement is

Exit codes: 0 passed, 1 failed a CI gate, 2 validation failure.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sqlText, err := getSQLInput(cmd, args)
		if err != nil {
			return err
		}

		log := newLogger()
		cfg, err := engine.FromViper(viper.GetViper())
		if err != nil {
			return err
		}

		connCfg := connectionConfig()
		format := viper.GetString("format")
		renderer := output.NewRenderer(format, os.Stdout)

		db, err := driver.Connect(connCfg)
		if err != nil {
			return fmt.Errorf("connection failed: %w", err)
		}
		defer db.Close()

		drv, err := driver.New(connCfg.Driver, db, connCfg.Database)
		if err != nil {
			return err
		}

		var intr *schema.Introspector
		if connCfg.Database != "" {
			intr = schema.NewIntrospector(db, drv.Name(), connCfg.Database)
		}

		eng := engine.New(cfg, drv, intr, log)

		timeout, _ := cmd.Flags().GetInt("timeout")
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeout)*time.Second)
		defer cancel()

		rep, err := eng.Diagnose(ctx, sqlText)
		if err != nil {
			var failure *validate.Failure
			if errors.As(err, &failure) {
				renderer.RenderFailure(failure.Report)
				os.Exit(exitValidation)
			}
			return err
		}

		renderer.RenderReport(rep)
		os.Exit(gateExitCode(cfg, rep))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().String("file", "", "Read SQL from file instead of argument")
	diagnoseCmd.Flags().Int("timeout", 30, "Overall diagnosis timeout in seconds")
	diagnoseCmd.Flags().Bool("fail-on-warning", false, "Exit non-zero when any warning finding is present")
	diagnoseCmd.Flags().String("fail-on-grade-below", "", "Exit non-zero when the adjusted grade is below this letter")
	viper.BindPFlag("ci.fail_on_warning", diagnoseCmd.Flags().Lookup("fail-on-warning"))
	viper.BindPFlag("ci.fail_on_grade_below", diagnoseCmd.Flags().Lookup("fail-on-grade-below"))
}

// gateExitCode applies the CI gates to a finished report.
func gateExitCode(cfg engine.Config, rep *report.DiagnosticReport) int {
	if !rep.Passed {
		return exitGateFailed
	}
	if cfg.CI.FailOnWarning {
		for _, f := range rep.AllFindings() {
			if f.Severity == report.SeverityWarning || f.Severity == report.SeverityCritical {
				return exitGateFailed
			}
		}
	}
	if min := cfg.CI.FailOnGradeBelow; min != "" {
		if gradeRank(rep.AdjustedGrade) < gradeRank(min) {
			return exitGateFailed
		}
	}
	return exitOK
}

func gradeRank(grade string) int {
	switch strings.ToUpper(grade) {
	case "A":
		return 5
	case "B":
		return 4
	case "C":
		return 3
	case "D":
		return 2
	default:
		return 1
	}
}

// connectionConfig assembles connection parameters from flags, config and
// environment.
func connectionConfig() driver.ConnectionConfig {
	cfg := driver.ConnectionConfig{
		Driver:   viper.GetString("driver"),
		Host:     viper.GetString("host"),
		Port:     viper.GetInt("port"),
		User:     viper.GetString("user"),
		Password: viper.GetString("password"),
		Database: viper.GetString("database"),
		Socket:   viper.GetString("socket"),
		TLSMode:  viper.GetString("tls"),
		TLSCA:    viper.GetString("tls_ca"),
	}

	if cfg.Driver != "sqlite" {
		if cfg.Host == "" && cfg.Socket == "" {
			cfg.Host = "127.0.0.1"
		}
		if cfg.User == "" {
			cfg.User = "querylens"
		}
		// Prompt for password if not provided
		if cfg.Password == "" {
			cfg.Password = driver.PromptPassword()
		}
	}

	return cfg
}

func newLogger() logger.Interface {
	if viper.GetBool("verbose") {
		return logger.NewWithLevel(slog.LevelDebug)
	}
	return logger.New()
}

func getSQLInput(cmd *cobra.Command, args []string) (string, error) {
	filePath, _ := cmd.Flags().GetString("file")

	if filePath != "" {
		if err := validateSQLFilePath(filePath); err != nil {
			return "", err
		}
		data, err := os.ReadFile(filePath)
		if err != nil {
			return "", fmt.Errorf("could not read file %s: %w", filePath, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}

	return "", fmt.Errorf("provide a SQL statement as argument or use --file flag")
}

// maxSQLFileSize caps --file input. A SQL statement over this size is almost
// certainly the wrong file.
const maxSQLFileSize = 10 * 1024 * 1024

func validateSQLFilePath(path string) error {
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return fmt.Errorf("cannot access file %s: %w", clean, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", clean)
	}
	if info.Size() > maxSQLFileSize {
		return fmt.Errorf("file too large: %d bytes (limit %d)", info.Size(), maxSQLFileSize)
	}
	return nil
}
