package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okian/examboard/internal/adapters/workbook"
	"github.com/okian/examboard/internal/domain/export"
	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/types"
	"github.com/okian/examboard/internal/pipeline"
	"github.com/okian/examboard/pkg/logger"
)

const (
	dirPermission  = 0o750
	filePermission = 0o600
	defaultPrinted = 20
)

type rankOptions struct {
	out          string
	format       string
	views        []string
	minExams     int
	minNameParts int
	limit        int
	noExport     bool
}

func newRankCmd(c *cli) *cobra.Command {
	o := rankOptions{}
	cmd := &cobra.Command{
		Use:   "rank FILE...",
		Short: "Rank students across local exam spreadsheets and write exports",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.out == "" {
				o.out = c.cfg.ExportDir
			}
			return c.rank(cmd.Context(), cmd.OutOrStdout(), args, o)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&o.out, "out", "o", "", "export directory (default: export_dir from config)")
	f.StringVar(&o.format, "format", "xlsx", "export format: xlsx or json")
	f.StringSliceVar(&o.views, "views", viewNames(), "export views to write")
	f.IntVar(&o.minExams, "min-exams", 0, "distinct exams required to qualify (overrides config)")
	f.IntVar(&o.minNameParts, "min-name-parts", 0, "name parts required per row (overrides config)")
	f.IntVar(&o.limit, "limit", defaultPrinted, "leaderboard rows to print; 0 prints all")
	f.BoolVar(&o.noExport, "no-export", false, "print the leaderboard without writing exports")
	return cmd
}

func viewNames() []string {
	views := export.Views()
	out := make([]string, len(views))
	for i, v := range views {
		out[i] = string(v)
	}
	return out
}

func (c *cli) rank(ctx context.Context, w io.Writer, paths []string, o rankOptions) error {
	if o.format != "xlsx" && o.format != "json" {
		return fmt.Errorf("invalid format: %s (must be xlsx or json)", o.format)
	}
	views := make([]export.View, 0, len(o.views))
	for _, name := range o.views {
		v, err := export.ParseView(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		views = append(views, v)
	}

	sources := make([]pipeline.Source, len(paths))
	for i, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("file not found: %s", p)
		}
		sources[i] = pipeline.FileSource(p)
	}

	settings := c.cfg.Settings().WithThresholds(o.minNameParts, o.minExams)
	runner := pipeline.NewRunner(workbook.NewDecoder(), pipeline.WithConcurrency(c.cfg.DecodeConcurrency))
	progress := pipeline.ProgressFunc(func(ctx context.Context, pct float64, status string) {
		c.log.Debug(ctx, "progress", logger.Float64("percent", pct), logger.String("status", status))
	})

	res, err := runner.Run(ctx, settings, sources, progress)
	if err != nil {
		return fmt.Errorf("ranking failed: %w", err)
	}

	printDiagnostics(w, res.Diagnostics)
	printSummary(w, res.Summary)
	printLeaderboard(w, types.Entries(res.Leaderboard, o.limit))

	if o.noExport {
		return nil
	}
	projector := export.NewProjector(export.WithTopN(c.cfg.TopN), export.WithFastestN(c.cfg.FastestN))
	written, err := writeExports(o.out, o.format, projector, views, res)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Fprintf(w, "wrote %s\n", p)
	}
	return nil
}

func writeExports(dir, format string, p *export.Projector, views []export.View, res *model.Result) ([]string, error) {
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}
	paths := make([]string, 0, len(views))
	for _, v := range views {
		table, err := p.Project(v, res.Leaderboard, res.Records)
		if err != nil {
			return nil, err
		}
		path := filepath.Join(dir, table.FileName)
		switch format {
		case "json":
			path = strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
			data, err := json.MarshalIndent(table, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("serialization failed: %w", err)
			}
			if err := os.WriteFile(path, data, filePermission); err != nil {
				return nil, fmt.Errorf("failed to write output: %w", err)
			}
		default:
			if err := workbook.SaveTable(path, table); err != nil {
				return nil, err
			}
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func printDiagnostics(w io.Writer, diags model.Diagnostics) {
	for _, d := range diags {
		fmt.Fprintf(w, "%s: %s: %s\n", d.Severity, d.Source, d.Message)
	}
}

func printSummary(w io.Writer, s model.Summary) {
	fmt.Fprintf(w, "exams: %d  records: %d  duplicates removed: %d  qualified students: %d\n",
		s.TotalExams, s.TotalRecords, s.DuplicatesRemoved, s.TotalStudents)
	if s.Winner != nil {
		fmt.Fprintf(w, "winner: %s (%.2f)\n", s.Winner.Name, s.Winner.CompositeScore)
	}
}

func printLeaderboard(w io.Writer, entries []types.Entry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tNAME\tEXAMS\tAVG SCORE\tAVG SPEED\tSCORE")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%.2f\t%.2f\n", e.Rank, e.Name, e.ExamCount, e.AvgScore, e.AvgSpeed, e.Score)
	}
	_ = tw.Flush()
}
