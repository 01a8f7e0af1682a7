package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	coreuser "github.com/frahmantamala/expense-tracker/internal/core/user"
	"github.com/frahmantamala/expense-tracker/internal/stats"
	statsPostgres "github.com/frahmantamala/expense-tracker/internal/stats/postgres"
	"github.com/frahmantamala/expense-tracker/pkg/logger"
)

var reportUserID int64

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print spending statistics as JSON",
	Long:  `Print system-wide statistics, or one user's statistics with --user, using the same aggregation as the API.`,
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().Int64VarP(&reportUserID, "user", "u", 0, "report on a single user id")
}

// operator is the trusted identity the CLI reports as.
var operator = coreuser.Caller{Role: coreuser.RoleAdmin, Active: true}

func runReport(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := stats.NewService(statsPostgres.NewStatsRepository(db.SQL, cfg.Database.QueryTimeout), cfg.Reporting.TopUsers, lg)

	var report interface{}
	if reportUserID > 0 {
		report, err = svc.UserStats(ctx, operator, reportUserID)
	} else {
		report, err = svc.SystemStats(ctx, operator)
	}
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
