package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

type putFunc func(ctx context.Context, object, contentType string, data []byte) error

// GCS exports cases to a Cloud Storage bucket as case.json and notes.md
// under <prefix>/cases/<case id>/
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
	put    putFunc
}

var _ interfaces.Archiver = &GCS{}

type Option func(*config)

type config struct {
	prefix     string
	clientOpts []option.ClientOption
}

// WithPrefix places exports under prefix inside the bucket
func WithPrefix(prefix string) Option {
	return func(c *config) {
		c.prefix = strings.Trim(prefix, "/")
	}
}

// WithClientOptions passes options to the storage client, e.g. an
// emulator endpoint
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(c *config) {
		c.clientOpts = append(c.clientOpts, opts...)
	}
}

func New(ctx context.Context, bucket string, opts ...Option) (*GCS, error) {
	if bucket == "" {
		return nil, goerr.New("storage bucket is required")
	}

	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := storage.NewClient(ctx, cfg.clientOpts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client", goerr.V("bucket", bucket))
	}

	g := &GCS{
		client: client,
		bucket: bucket,
		prefix: cfg.prefix,
	}
	g.put = g.upload
	return g, nil
}

func (g *GCS) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Export uploads both files concurrently and returns the gs:// URL of the
// case directory
func (g *GCS) Export(ctx context.Context, c *model.Case) (string, error) {
	dir := path.Join(g.prefix, "cases", c.ID.String())

	caseJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return "", goerr.Wrap(err, "failed to encode case", goerr.V("case_id", c.ID))
	}
	notes := RenderMarkdown(c)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return g.put(ctx, path.Join(dir, "case.json"), "application/json", caseJSON)
	})
	eg.Go(func() error {
		return g.put(ctx, path.Join(dir, "notes.md"), "text/markdown; charset=utf-8", []byte(notes))
	})
	if err := eg.Wait(); err != nil {
		return "", goerr.Wrap(err, "failed to export case", goerr.V("case_id", c.ID))
	}

	location := fmt.Sprintf("gs://%s/%s", g.bucket, dir)
	logging.From(ctx).Info("case exported", slog.String("location", location))
	return location, nil
}

func (g *GCS) upload(ctx context.Context, object, contentType string, data []byte) error {
	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write object", goerr.V("object", object))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize object", goerr.V("object", object))
	}
	return nil
}

// RenderMarkdown renders the case header and its actions, newest first
func RenderMarkdown(c *model.Case) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", c.Name)
	fmt.Fprintf(&sb, "- Type: %s\n", c.Type)
	fmt.Fprintf(&sb, "- Status: %s\n", c.Status)
	if !c.Timestamp.IsZero() {
		fmt.Fprintf(&sb, "- Date: %s\n", c.Timestamp.Format("2006-01-02 15:04"))
	}
	if len(c.AssignedStaff) > 0 {
		fmt.Fprintf(&sb, "- Staff: %s\n", strings.Join(c.AssignedStaff, ", "))
	}

	for _, a := range c.Actions {
		sb.WriteString("\n")
		switch a.Kind {
		case types.ActionKindRecording:
			fmt.Fprintf(&sb, "## Recording (%s)\n\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
			sb.WriteString(a.Transcript)
			sb.WriteString("\n")
		case types.ActionKindSOAPNote:
			fmt.Fprintf(&sb, "## SOAP note (%s)\n\n", a.CreatedAt.Format("2006-01-02 15:04:05"))
			if a.SOAP == nil {
				continue
			}
			fmt.Fprintf(&sb, "### Subjective\n\n%s\n\n", a.SOAP.Subjective)
			fmt.Fprintf(&sb, "### Objective\n\n%s\n\n", a.SOAP.Objective)
			fmt.Fprintf(&sb, "### Assessment\n\n%s\n\n", a.SOAP.Assessment)
			fmt.Fprintf(&sb, "### Plan\n\n%s\n", a.SOAP.Plan)
		}
	}

	return sb.String()
}
