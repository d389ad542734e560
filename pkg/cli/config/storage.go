package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/service/archive"
	"github.com/urfave/cli/v3"
)

// Storage configures case export to Cloud Storage
type Storage struct {
	bucket string
	prefix string
}

func (x *Storage) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "export-bucket",
			Usage:       "Cloud Storage bucket receiving case exports",
			Category:    "Storage",
			Sources:     cli.EnvVars("PAWNOTES_EXPORT_BUCKET"),
			Destination: &x.bucket,
		},
		&cli.StringFlag{
			Name:        "export-prefix",
			Usage:       "Object prefix for case exports",
			Category:    "Storage",
			Sources:     cli.EnvVars("PAWNOTES_EXPORT_PREFIX"),
			Destination: &x.prefix,
		},
	}
}

func (x Storage) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("bucket", x.bucket),
		slog.String("prefix", x.prefix),
	)
}

// Configure creates the archive. Returns nil without a bucket, which
// disables case export. The caller closes the returned archive.
func (x *Storage) Configure(ctx context.Context) (*archive.GCS, error) {
	if x.bucket == "" {
		return nil, nil
	}

	gcs, err := archive.New(ctx, x.bucket, archive.WithPrefix(x.prefix))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create case archive", goerr.V("bucket", x.bucket))
	}
	return gcs, nil
}
