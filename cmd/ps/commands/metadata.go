package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewMetadataCommand creates the metadata command.
func NewMetadataCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "metadata [TABLE]",
		Short: "Show server or table metadata",
		Long: `Without arguments, show the plugin and server metadata reported at
authorization. With a table name, show the table's columns and their access
levels.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				md := client.Metadata()

				return renderKeyValues(md.Raw, md.Raw)
			}

			metadata, err := client.Table(args[0]).Metadata(ctx, psapi.NewQueryParams().WithExpansions("access"))
			if err != nil {
				return fmt.Errorf("failed to get metadata for %s: %w", args[0], err)
			}

			return render(metadata, func() error {
				return displayColumns(metadata)
			})
		},
	}
}

func displayColumns(metadata *psapi.TableMetadata) error {
	if len(metadata.Columns) == 0 {
		fmt.Printf("No columns found for %s\n", metadata.Name)

		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Column", "Type", "Access", "Description")

	for _, column := range metadata.Columns {
		_ = table.Append(column.Name, column.Type, valueOrNA(column.Access), column.Description)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	fmt.Printf("\nProjection: %s\n", metadata.StarProjection())

	return nil
}

// NewQueriesCommand creates the command listing named queries.
func NewQueriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "queries",
		Short: "List named queries",
		Long:  "List the named queries the plugin has access to",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			client, err := createClient(ctx)
			if err != nil {
				return err
			}

			queries, err := client.ListNamedQueries(ctx)
			if err != nil {
				return fmt.Errorf("failed to list named queries: %w", err)
			}

			return render(queries, func() error {
				if len(queries) == 0 {
					fmt.Println("No named queries found")

					return nil
				}

				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Name", "Description")

				for _, query := range queries {
					_ = table.Append(query.Name, query.Description)
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				return nil
			})
		},
	}
}
