package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zeronorth-oss/znctl/internal/data/db"
	"github.com/zeronorth-oss/znctl/internal/log"
	"github.com/zeronorth-oss/znctl/internal/metrics"
	"github.com/zeronorth-oss/znctl/internal/sql"
	"github.com/zeronorth-oss/znctl/pkg/zn"
)

// snapshotKinds are the collections a sync records.
var snapshotKinds = []zn.ResourceKind{zn.Targets, zn.Policies, zn.Applications}

// newSyncCmd creates the sync command.
func newSyncCmd() *cobra.Command {
	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Snapshot the remote inventory into a local database",
		Long: `Sync pulls the full target, policy, application and job inventory and stores
it as one snapshot row with its children. SQLite is the default backend for
local use; postgres and Cloud SQL are for shared deployments that track
inventory drift over time.`,
		RunE: runSync,
	}

	syncCmd.Flags().String("db-type", "sqlite", "Database type: sqlite, postgres or cloudsql")
	syncCmd.Flags().String("db-path", "znctl.db", "SQLite database file path")
	syncCmd.Flags().String("db-conn", "", "Postgres connection string")
	syncCmd.Flags().String("instance-connection-name", "", "Cloud SQL instance connection name")
	syncCmd.Flags().String("db-user", "", "Database user for Cloud SQL")
	syncCmd.Flags().String("db-password", "", "Database password for Cloud SQL")
	syncCmd.Flags().String("db-name", "", "Database name for Cloud SQL")
	syncCmd.Flags().Bool("jobs", true, "Include the job inventory in the snapshot")

	return syncCmd
}

// runSync executes the sync workflow.
func runSync(cmd *cobra.Command, _ []string) error {
	ctx := metrics.WithMetrics(context.Background(), metricsNamespace)
	logger := log.NewLogger(ctx)
	cancel := startDebugServer(ctx, cmd)
	defer cancel()

	config, err := getConfigFromFlags(cmd)
	if err != nil {
		return fmt.Errorf("error getting config from flags: %w", err)
	}
	client, err := newAPIClient(ctx, config, logger)
	if err != nil {
		return err
	}

	dbType, _ := cmd.Flags().GetString("db-type")      //nolint:errcheck
	dbPath, _ := cmd.Flags().GetString("db-path")      //nolint:errcheck
	dbConn, _ := cmd.Flags().GetString("db-conn")      //nolint:errcheck
	instance, _ := cmd.Flags().GetString("instance-connection-name") //nolint:errcheck
	dbUser, _ := cmd.Flags().GetString("db-user")      //nolint:errcheck
	dbPassword, _ := cmd.Flags().GetString("db-password") //nolint:errcheck
	dbName, _ := cmd.Flags().GetString("db-name")      //nolint:errcheck
	includeJobs, _ := cmd.Flags().GetBool("jobs")      //nolint:errcheck

	connector := sql.CreateDBConnector(dbType, dbPath, dbConn, instance, dbUser, dbPassword, dbName)
	database, err := connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}
	manager, err := db.NewGormSnapshotManager(database)
	if err != nil {
		return fmt.Errorf("error initializing snapshot store: %w", err)
	}

	account, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("error verifying credential: %w", err)
	}

	dto := &db.SnapshotDTO{
		Account: account.ID,
		APIRoot: config.APIURL,
	}
	for _, kind := range snapshotKinds {
		items, err := client.Collect(ctx, kind.Path, config.PageSize)
		if err != nil {
			return fmt.Errorf("error listing %s: %w", kind.Path, err)
		}
		dto.Resources = append(dto.Resources, db.MapResources(kind.Path, items)...)
		logger.Info("collected inventory",
			zap.String("kind", kind.Path), zap.Int("items", len(items)))
	}
	if includeJobs {
		items, err := client.Collect(ctx, zn.JobsKind.Path, config.PageSize)
		if err != nil {
			return fmt.Errorf("error listing jobs: %w", err)
		}
		dto.Jobs = db.MapJobs(items)
		logger.Info("collected inventory",
			zap.String("kind", "jobs"), zap.Int("items", len(items)))
	}

	snapshotID, err := manager.InsertSnapshot(ctx, dto)
	if err != nil {
		return fmt.Errorf("error storing snapshot: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), snapshotID)
	return nil
}
