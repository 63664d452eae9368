package commands

import (
	"fmt"
	"os"

	"github.com/fivetwenty-io/powerschool/pkg/fiql"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// ParsedFilter is the normalized form of a FIQL filter.
type ParsedFilter struct {
	Query       string             `json:"query"       yaml:"query"`
	Selector    string             `json:"selector"    yaml:"selector"`
	Constraints []*fiql.Constraint `json:"constraints" yaml:"constraints"`
}

// NewFIQLCommand creates the fiql command group.
func NewFIQLCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fiql",
		Short: "Inspect FIQL filters",
		Long:  "Parse FIQL filters offline to check their syntax and find their selector",
	}

	cmd.AddCommand(newFIQLParseCommand())
	cmd.AddCommand(newFIQLSelectorCommand())

	return cmd
}

func parseFilter(query string) (*ParsedFilter, error) {
	expr, err := fiql.Parse(query)
	if err != nil {
		return nil, err
	}

	parsed := &ParsedFilter{
		Query:       expr.String(),
		Constraints: expr.Constraints(),
	}

	if first := expr.FirstConstraint(); first != nil {
		parsed.Selector = first.Selector
	}

	return parsed, nil
}

func newFIQLParseCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "parse QUERY",
		Short:   "Parse a FIQL filter",
		Long:    "Parse a FIQL filter and list its constraints",
		Example: `  ps fiql parse 'yearid=ge=30;(grade_level==9,grade_level==10)'`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseFilter(args[0])
			if err != nil {
				return err
			}

			return render(parsed, func() error {
				table := tablewriter.NewWriter(os.Stdout)
				table.Header("Selector", "Comparison", "Argument")

				for _, c := range parsed.Constraints {
					_ = table.Append(c.Selector, c.Comparison, c.Argument)
				}

				err := table.Render()
				if err != nil {
					return fmt.Errorf("failed to render table: %w", err)
				}

				fmt.Printf("\nNormalized: %s\n", parsed.Query)

				return nil
			})
		},
	}
}

func newFIQLSelectorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "selector QUERY",
		Short: "Print the selector of a FIQL filter",
		Long:  "Print the selector of the first constraint of a FIQL filter",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selector, err := fiql.ParseSelector(args[0])
			if err != nil {
				return err
			}

			return render(map[string]string{"selector": selector}, func() error {
				fmt.Println(selector)

				return nil
			})
		},
	}
}
