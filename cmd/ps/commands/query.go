package commands

import (
	"context"
	"fmt"

	"github.com/fivetwenty-io/powerschool/pkg/fiql"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/spf13/cobra"
)

// queryFlags are the schema query options shared by count, query and history run.
type queryFlags struct {
	q                 string
	projection        string
	pageSize          string
	page              int
	sort              string
	sortDescending    bool
	studentsToInclude string
	teachersToInclude string
	extensions        string
	named             bool
	bodyFile          string
}

func (f *queryFlags) addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.q, "q", "q", "", "FIQL filter, e.g. 'yearid=ge=30;grade_level=lt=5'")
	cmd.Flags().StringVar(&f.studentsToInclude, "students-to-include", "", "students_to_include value")
	cmd.Flags().StringVar(&f.teachersToInclude, "teachers-to-include", "", "teachers_to_include value")
	cmd.Flags().BoolVar(&f.named, "named", false, "treat the name as a named query instead of a table")
	cmd.Flags().StringVar(&f.bodyFile, "body-file", "", "JSON object sent as the named query body")
}

func (f *queryFlags) addPagingFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.projection, "projection", "p", "", "comma separated columns (default: every readable column)")
	cmd.Flags().StringVar(&f.pageSize, "pagesize", "", "records per page, 0 for a single unpaged request (default: server maximum)")
	cmd.Flags().IntVar(&f.page, "page", 0, "fetch only this page")
	cmd.Flags().StringVar(&f.sort, "sort", "", "sort column")
	cmd.Flags().BoolVar(&f.sortDescending, "sortdescending", false, "sort in descending order")
	cmd.Flags().StringVar(&f.extensions, "extensions", "", "table extensions to include")
}

// params validates the flags and builds the query parameters.
func (f *queryFlags) params(cmd *cobra.Command) (*psapi.QueryParams, error) {
	if f.q != "" {
		_, err := fiql.Parse(f.q)
		if err != nil {
			return nil, fmt.Errorf("invalid --q: %w", err)
		}
	}

	pageSize, err := psapi.ParsePageSize(f.pageSize)
	if err != nil {
		return nil, err
	}

	params := psapi.NewQueryParams().
		WithQ(f.q).
		WithProjection(f.projection).
		WithPage(f.page).
		WithStudentsToInclude(f.studentsToInclude).
		WithTeachersToInclude(f.teachersToInclude).
		WithExtensions(f.extensions)
	params.PageSize = pageSize

	if f.sort != "" || cmd.Flags().Changed("sortdescending") {
		params.WithSort(f.sort, f.sortDescending)
	}

	return params, nil
}

// body reads --body-file. Tables take no request body.
func (f *queryFlags) body() (interface{}, error) {
	if f.bodyFile == "" {
		return nil, nil //nolint:nilnil // no body
	}

	return readBodyFile(f.bodyFile)
}

func (f *queryFlags) schema(client psapi.Client, name string) psapi.SchemaClient {
	if f.named {
		return client.NamedQuery(name)
	}

	return client.Table(name)
}

// NewCountCommand creates the count command.
func NewCountCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "count NAME",
		Short: "Count the rows of a table or named query",
		Long:  "Count the rows of a schema table, or of a named query with --named, that match the filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			body, err := flags.body()
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			count, err := flags.schema(client, args[0]).Count(ctx, params, body)
			if err != nil {
				return err
			}

			result := map[string]interface{}{"name": args[0], "count": count}

			return render(result, func() error {
				fmt.Println(count)

				return nil
			})
		},
	}

	flags.addFilterFlags(cmd)

	return cmd
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "query NAME",
		Short: "Query a table or named query",
		Long: `Query a schema table, or a named query with --named.

Every page is fetched unless --page is given. Without --projection, table
queries select every column the plugin may read.`,
		Example: `  ps query students -q 'grade_level=ge=9' -p id,last_name
  ps query com.example.students --named --body-file params.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := flags.params(cmd)
			if err != nil {
				return err
			}

			body, err := flags.body()
			if err != nil {
				return err
			}

			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			records, err := flags.schema(client, args[0]).QueryWithBody(ctx, params, body)
			if err != nil {
				return err
			}

			return renderRecords(records)
		},
	}

	flags.addFilterFlags(cmd)
	flags.addPagingFlags(cmd)

	return cmd
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	flags := &queryFlags{}

	cmd := &cobra.Command{
		Use:   "get TABLE ID",
		Short: "Get a single table row",
		Long:  "Get a single row of a schema table by primary key",
		Args:  cobra.ExactArgs(2), //nolint:mnd // table and id
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			params := psapi.NewQueryParams().
				WithProjection(flags.projection).
				WithExtensions(flags.extensions)

			record, err := client.Table(args[0]).Get(ctx, args[1], params)
			if err != nil {
				return err
			}

			return renderKeyValues(record, map[string]interface{}(record))
		},
	}

	cmd.Flags().StringVarP(&flags.projection, "projection", "p", "", "comma separated columns")
	cmd.Flags().StringVar(&flags.extensions, "extensions", "", "table extensions to include")

	return cmd
}
