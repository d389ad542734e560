package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/m-mizutani/goerr/v2"
	"github.com/pawnotes/pawnotes/pkg/cli/config"
	"github.com/pawnotes/pawnotes/pkg/domain/interfaces"
	"github.com/pawnotes/pawnotes/pkg/domain/model"
	"github.com/pawnotes/pawnotes/pkg/domain/model/auth"
	"github.com/pawnotes/pawnotes/pkg/domain/types"
	"github.com/pawnotes/pawnotes/pkg/usecase"
	"github.com/pawnotes/pawnotes/pkg/utils/safe"
	"github.com/urfave/cli/v3"
)

func cmdCase() *cli.Command {
	return &cli.Command{
		Name:  "case",
		Usage: "Inspect cases",
		Commands: []*cli.Command{
			cmdCaseList(),
		},
	}
}

func cmdCaseList() *cli.Command {
	var userID string
	var status string
	var caseType string
	var limit int
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "user",
			Usage:       "User ID whose cases are listed",
			Required:    true,
			Sources:     cli.EnvVars("PAWNOTES_USER"),
			Destination: &userID,
		},
		&cli.StringFlag{
			Name:        "status",
			Usage:       "Filter by status (ongoing, completed, reviewed, exported)",
			Destination: &status,
		},
		&cli.StringFlag{
			Name:        "type",
			Usage:       "Filter by case type",
			Destination: &caseType,
		},
		&cli.IntFlag{
			Name:        "limit",
			Usage:       "Maximum number of cases",
			Value:       50,
			Destination: &limit,
		},
	}
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "list",
		Aliases: []string{"ls"},
		Usage:   "List cases visible to a user",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var opts []interfaces.ListCaseOption
			if status != "" {
				s, err := types.ParseCaseStatus(status)
				if err != nil {
					return goerr.Wrap(err, "invalid --status")
				}
				opts = append(opts, interfaces.WithStatus(s))
			}
			if caseType != "" {
				t, err := types.ParseCaseType(caseType)
				if err != nil {
					return goerr.Wrap(err, "invalid --type")
				}
				opts = append(opts, interfaces.WithType(t))
			}
			if limit > 0 {
				opts = append(opts, interfaces.WithLimit(limit))
			}

			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer safe.Close(ctx, repo)

			uc := usecase.New(repo)
			ctx = auth.ContextWithToken(ctx, auth.NewToken(userID, "", userID))
			cases, err := uc.Case.ListCases(ctx, opts...)
			if err != nil {
				return err
			}

			printCases(os.Stdout, cases)
			return nil
		},
	}
}

func printCases(w io.Writer, cases []*model.Case) {
	if len(cases) == 0 {
		fmt.Fprintln(w, "No cases found")
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Name", "Type", "Status", "Visibility", "Staff", "Actions", "Timestamp"})
	for _, c := range cases {
		tw.AppendRow(table.Row{
			c.ID,
			c.Name,
			c.Type,
			c.Status,
			c.Visibility,
			strings.Join(c.AssignedStaff, ", "),
			strconv.Itoa(len(c.Actions)),
			c.Timestamp.Local().Format(time.DateTime),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 7, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.Render()
}
