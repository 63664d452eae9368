package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/fivetwenty-io/powerschool/internal/constants"
	"github.com/fivetwenty-io/powerschool/pkg/psapi"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func outputFormat() string {
	output := viper.GetString("output")
	if output == "" {
		return constants.FormatTable
	}

	return output
}

func isOutputFormat(format string) bool {
	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return true
	default:
		return false
	}
}

func renderJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to JSON: %w", err)
	}

	return nil
}

func renderYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	encoder.SetIndent(constants.JSONIndentSize)

	err := encoder.Encode(data)
	if err != nil {
		return fmt.Errorf("encoding data to YAML: %w", err)
	}

	return nil
}

// render writes data as JSON or YAML, or calls table for the table format.
func render(data interface{}, table func() error) error {
	switch outputFormat() {
	case constants.FormatJSON:
		return renderJSON(data)
	case constants.FormatYAML:
		return renderYAML(data)
	case constants.FormatTable:
		return table()
	default:
		return constants.ErrInvalidOutputFormat
	}
}

// recordColumns returns the sorted union of the record keys.
func recordColumns(records []psapi.Record) []string {
	seen := map[string]bool{}

	var columns []string

	for _, record := range records {
		for key := range record {
			if !seen[key] {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}

	sort.Strings(columns)

	return columns
}

func cellValue(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case map[string]interface{}, []interface{}:
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Sprint(value)
		}

		return string(data)
	default:
		return fmt.Sprint(value)
	}
}

func renderRecords(records []psapi.Record) error {
	return render(records, func() error {
		if len(records) == 0 {
			fmt.Println("No records found")

			return nil
		}

		columns := recordColumns(records)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header(toAny(columns)...)

		for _, record := range records {
			row := make([]interface{}, 0, len(columns))
			for _, column := range columns {
				row = append(row, cellValue(record[column]))
			}

			_ = table.Append(row...)
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		fmt.Printf("\n%d record(s)\n", len(records))

		return nil
	})
}

func renderKeyValues(data interface{}, values map[string]interface{}) error {
	return render(data, func() error {
		keys := make([]string, 0, len(values))
		for key := range values {
			keys = append(keys, key)
		}

		sort.Strings(keys)

		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Property", "Value")

		for _, key := range keys {
			_ = table.Append(key, cellValue(values[key]))
		}

		err := table.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	})
}

func toAny(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}

	return out
}
