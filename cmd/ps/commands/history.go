package commands

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/fiql"
	"github.com/fivetwenty-io/powerschool/pkg/history"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// historyFlags select where a sweep starts.
type historyFlags struct {
	yearID int
	start  string
}

func (f *historyFlags) add(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.yearID, "yearid", 0, "current school year id (default: derived from today's date)")
	cmd.Flags().StringVar(&f.start, "start", "", "explicit start value, an integer or YYYY-MM-DD; required for generic selectors")
}

func (f *historyFlags) currentYearID(now time.Time) (int, error) {
	yearID := f.yearID
	if yearID == 0 {
		yearID = history.YearIDFor(now)
	}

	if yearID <= 0 {
		return 0, fmt.Errorf("%w: %d", constants.ErrYearIDRequired, yearID)
	}

	return yearID, nil
}

// expressions returns the probing expressions for the selector of query.
// query is either a bare selector name or a FIQL filter whose first
// constraint names the selector.
func (f *historyFlags) expressions(query string, now time.Time) ([]string, error) {
	selector, err := fiql.ParseSelector(query)
	if err != nil {
		return nil, fmt.Errorf("invalid selector: %w", err)
	}

	yearID, err := f.currentYearID(now)
	if err != nil {
		return nil, err
	}

	if f.start == "" {
		return history.HistoricalQueries(yearID, selector)
	}

	start, err := fiql.ParseValue(f.start)
	if err != nil {
		return nil, fmt.Errorf("invalid --start: %w", err)
	}

	return history.HistoricalQueriesFrom(selector, start, yearID)
}

// NewHistoryCommand creates the history command group.
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Sweep tables back through past school years",
		Long: `Generate and run FIQL probing queries that walk a selector back one
school year at a time.

Selectors named yearid step by one year down to year id 10, termid steps by
100 through the negative term ids, and any selector containing "date" steps by
a calendar year down to 2000-07-01. Other selectors need --start and step by
10000 down to zero.`,
	}

	cmd.AddCommand(newHistoryGenerateCommand())
	cmd.AddCommand(newHistoryRunCommand())

	return cmd
}

func newHistoryGenerateCommand() *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "generate SELECTOR",
		Short: "Print the probing queries for a selector",
		Long:  "Print the FIQL probing queries for a selector without contacting the server",
		Example: `  ps history generate yearid --yearid 34
  ps history generate 'termid=ge=3400' --yearid 34
  ps history generate dcid --start 250000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expressions, err := flags.expressions(args[0], time.Now())
			if err != nil {
				return err
			}

			return render(expressions, func() error {
				return displayExpressions(expressions)
			})
		},
	}

	flags.add(cmd)

	return cmd
}

func displayExpressions(expressions []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("#", "Expression")

	for i, expression := range expressions {
		_ = table.Append(strconv.Itoa(i+1), expression)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func newHistoryRunCommand() *cobra.Command {
	flags := &historyFlags{}
	query := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "run NAME SELECTOR",
		Short: "Query a table across every past school year",
		Long: `Run one full query per probing expression, each AND-ed with --q, and
print the concatenated records.`,
		Example: `  ps history run cc termid --yearid 34 -p id,studentid,termid
  ps history run com.example.enrollments entrydate --named`,
		Args: cobra.ExactArgs(2), //nolint:mnd // name and selector
		RunE: func(cmd *cobra.Command, args []string) error {
			expressions, err := flags.expressions(args[1], time.Now())
			if err != nil {
				return err
			}

			params, err := query.params(cmd)
			if err != nil {
				return err
			}

			body, err := query.body()
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			records, err := query.schema(client, args[0]).QueryExpressions(ctx, params, body, expressions)
			if err != nil {
				return err
			}

			return renderRecords(records)
		},
	}

	flags.add(cmd)
	query.addFilterFlags(cmd)
	query.addPagingFlags(cmd)

	return cmd
}
