package cli

import (
	"context"

	"github.com/m-mizutani/fireconf"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdMigrate() *cli.Command {
	var repoCfg config.Repository
	var dryRun bool

	flags := repoCfg.Flags()
	flags = append(flags, &cli.BoolFlag{
		Name:        "dry-run",
		Usage:       "Preview changes without applying (firestore only)",
		Destination: &dryRun,
	})

	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrate Firestore indexes or PostgreSQL tables",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logging.Default().Info("Migrate configuration",
				"repository", repoCfg,
				"dryRun", dryRun)

			switch repoCfg.Backend() {
			case config.BackendFirestore:
				return migrateFirestore(ctx, repoCfg.ProjectID(), repoCfg.DatabaseID(), dryRun)
			case config.BackendPostgres:
				return migratePostgres(ctx, &repoCfg, dryRun)
			default:
				return goerr.New("migration is only supported for firestore and postgres backends",
					goerr.V("backend", repoCfg.Backend()))
			}
		},
	}
}

const defaultFirestoreDatabase = "(default)"

func migrateFirestore(ctx context.Context, projectID, databaseID string, dryRun bool) error {
	logger := logging.Default()

	if projectID == "" {
		return goerr.Wrap(config.ErrMissingConfiguration, "firestore-project-id is required")
	}

	if databaseID == "" {
		databaseID = defaultFirestoreDatabase
	}

	client, err := fireconf.New(ctx, projectID, databaseID, getIndexConfig(),
		fireconf.WithLogger(logger),
		fireconf.WithDryRun(dryRun),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to create fireconf client",
			goerr.V("project_id", projectID),
			goerr.V("database_id", databaseID))
	}
	defer safe.Close(ctx, client)

	if dryRun {
		logger.Info("Dry run mode - previewing index changes")
	} else {
		logger.Info("Applying index migrations")
	}
	if err := client.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to apply migrations")
	}
	logger.Info("Index migration finished", "dry_run", dryRun)
	return nil
}

func migratePostgres(ctx context.Context, repoCfg *config.Repository, dryRun bool) error {
	if dryRun {
		logging.Default().Info("Dry run is not supported for postgres; tables are created or altered in place")
		return nil
	}

	repo, err := repoCfg.ConfigurePostgres(ctx)
	if err != nil {
		return err
	}
	defer safe.Close(ctx, repo)

	if err := repo.Migrate(ctx); err != nil {
		return goerr.Wrap(err, "failed to migrate postgres schema")
	}
	logging.Default().Info("PostgreSQL tables migrated")
	return nil
}

// getIndexConfig returns the composite indexes needed by case and email
// listing queries
func getIndexConfig() *fireconf.Config {
	timestampDesc := fireconf.IndexField{Path: "timestamp", Order: fireconf.OrderDescending}

	return &fireconf.Config{
		Collections: []fireconf.Collection{
			{
				Name: "cases",
				Indexes: []fireconf.Index{
					// List(status): status ASC, timestamp DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							timestampDesc,
						},
					},
					// List(type): type ASC, timestamp DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "type", Order: fireconf.OrderAscending},
							timestampDesc,
						},
					},
					// List(status, type)
					{
						Fields: []fireconf.IndexField{
							{Path: "status", Order: fireconf.OrderAscending},
							{Path: "type", Order: fireconf.OrderAscending},
							timestampDesc,
						},
					},
				},
			},
			{
				Name: "emails",
				Indexes: []fireconf.Index{
					// ListByUser: UserID ASC, CreatedAt DESC
					{
						Fields: []fireconf.IndexField{
							{Path: "UserID", Order: fireconf.OrderAscending},
							{Path: "CreatedAt", Order: fireconf.OrderDescending},
						},
					},
				},
			},
		},
	}
}
