package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/examboard/internal/testexams"
	"github.com/okian/examboard/pkg/logger"
)

const submitTimeout = 5 * time.Minute

type generateOptions struct {
	dir      string
	gen      testexams.Config
	submit   string
	minExams int
	top      int
}

func newGenerateCmd(c *cli) *cobra.Command {
	o := generateOptions{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write synthetic exam workbooks and optionally submit them to a running service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.generate(cmd.Context(), cmd.OutOrStdout(), o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.dir, "dir", "exams", "output directory")
	f.IntVar(&o.gen.Exams, "exams", testexams.DefaultExams, "number of exams")
	f.IntVar(&o.gen.Students, "students", testexams.DefaultStudents, "number of students")
	f.Float64Var(&o.gen.Attendance, "attendance", testexams.DefaultAttendance, "probability a student sits an exam")
	f.Float64Var(&o.gen.RetryRate, "retry-rate", testexams.DefaultRetryRate, "probability of a second attempt")
	f.IntVar(&o.gen.SingleNames, "single-names", 0, "one-word names added per exam")
	f.Uint64Var(&o.gen.Seed, "seed", 1, "random seed")
	f.StringVar(&o.submit, "submit", "", "base URL of a running service to submit the exams to")
	f.IntVar(&o.minExams, "min-exams", 0, "min_exams override sent with the submission")
	f.IntVar(&o.top, "top", 10, "leaderboard rows to print after submission")
	return cmd
}

func (c *cli) generate(ctx context.Context, w io.Writer, o generateOptions) error {
	exams := testexams.Generate(o.gen)
	paths, err := testexams.WriteDir(o.dir, exams)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(w, "wrote %s\n", p)
	}
	if o.submit == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, submitTimeout)
	defer cancel()

	client := testexams.NewClient(o.submit)
	acc, err := client.SubmitExams(ctx, exams, o.minExams, 0)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	c.log.Info(ctx, "run submitted", logger.String("run_id", acc.ID), logger.Int("files", len(acc.Files)))

	st, err := client.Wait(ctx, acc.ID)
	if err != nil {
		return err
	}
	if st.Error != "" {
		return fmt.Errorf("run %s failed: %s", acc.ID, st.Error)
	}
	printDiagnostics(w, st.Diagnostics)
	if st.Summary != nil {
		printSummary(w, *st.Summary)
	}

	board, err := client.Leaderboard(ctx, acc.ID, o.top)
	if err != nil {
		return err
	}
	if err := testexams.VerifyOrder(board); err != nil {
		return err
	}
	printLeaderboard(w, board)
	return nil
}
