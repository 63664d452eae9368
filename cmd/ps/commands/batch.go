package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// batchResultView is a BatchResult with its error as text.
type batchResultView struct {
	ID       string       `json:"id"               yaml:"id"`
	Success  bool         `json:"success"          yaml:"success"`
	Record   psapi.Record `json:"record,omitempty" yaml:"record,omitempty"`
	Error    string       `json:"error,omitempty"  yaml:"error,omitempty"`
	Duration string       `json:"duration"         yaml:"duration"`
}

// NewBatchCommand creates the batch command.
func NewBatchCommand() *cobra.Command {
	var (
		concurrency int
		transaction bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "batch FILE",
		Short: "Run row operations from a file",
		Long: `Run get, insert, update and delete operations on table rows
concurrently. FILE is a YAML or JSON list of operations:

  - id: add-note
    type: insert
    table: u_student_notes
    pk: "1001"
    data: {tables: {u_student_notes: {note: "Transferred"}}}

With --transaction, rows inserted by the batch are deleted again when any
operation fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operations, err := readOperationsFile(args[0])
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			executor := psapi.NewBatchExecutor(client, concurrency)
			executor.SetTimeout(timeout)

			var (
				results []psapi.BatchResult
				runErr  error
			)

			if transaction {
				tx := psapi.NewBatchTransaction(executor)
				for _, operation := range operations {
					tx.Add(operation)
				}

				results, runErr = tx.Execute(ctx)
			} else {
				results = executor.Execute(ctx, operations)
			}

			views := batchResultViews(results)

			err = render(views, func() error {
				return displayBatchResults(views)
			})
			if err != nil {
				return err
			}

			return runErr
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", psapi.DefaultBatchConcurrency, "operations run at once")
	cmd.Flags().BoolVar(&transaction, "transaction", false, "delete inserted rows when any operation fails")
	cmd.Flags().DurationVar(&timeout, "timeout", constants.DefaultHTTPTimeout, "timeout of each operation")

	return cmd
}

func readOperationsFile(path string) ([]psapi.BatchOperation, error) {
	data, err := readFileChecked(path)
	if err != nil {
		return nil, err
	}

	var operations []psapi.BatchOperation

	err = yaml.Unmarshal(data, &operations)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if len(operations) == 0 {
		return nil, constants.ErrNoOperations
	}

	for i := range operations {
		if operations[i].ID == "" {
			operations[i].ID = fmt.Sprintf("%d", i+1)
		}
	}

	return operations, nil
}

func batchResultViews(results []psapi.BatchResult) []batchResultView {
	views := make([]batchResultView, 0, len(results))

	for _, result := range results {
		view := batchResultView{
			ID:       result.ID,
			Success:  result.Success,
			Record:   result.Record,
			Duration: result.Duration.Round(time.Millisecond).String(),
		}

		if result.Error != nil {
			view.Error = result.Error.Error()
		}

		views = append(views, view)
	}

	return views
}

func displayBatchResults(views []batchResultView) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Success", "Duration", "Error")

	failed := 0

	for _, view := range views {
		if !view.Success {
			failed++
		}

		_ = table.Append(view.ID, fmt.Sprintf("%t", view.Success), view.Duration, view.Error)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\n%d operation(s), %d failed\n", len(views), failed)

	return nil
}
