package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DEFRA/forms-designer-sub008/internal/conditions"
)

func newRenderCmd() *cobra.Command {
	var asJSON bool
	renderCmd := &cobra.Command{
		Use:   "render <file>",
		Short: "Render a conditions model file (JSON or YAML, - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			m, err := decodeModelDocument(args[0], data)
			if err != nil {
				return err
			}
			expression, err := conditions.NewChecker().CheckModel(m)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"name":         m.Name(),
					"presentation": m.PresentationString(),
					"expression":   expression,
					"references":   m.References(),
				})
			}
			fmt.Fprintf(out, "name:         %s\n", m.Name())
			fmt.Fprintf(out, "presentation: %s\n", m.PresentationString())
			fmt.Fprintf(out, "expression:   %s\n", expression)
			return nil
		},
	}
	renderCmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return renderCmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// decodeModelDocument accepts the persisted JSON form, or the same document
// written as YAML.
func decodeModelDocument(path string, data []byte) (conditions.ConditionsModel, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		if json.Valid(data) {
			return conditions.FromJSON(data)
		}
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return conditions.ConditionsModel{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	converted, err := json.Marshal(doc)
	if err != nil {
		return conditions.ConditionsModel{}, fmt.Errorf("failed to convert %s: %w", path, err)
	}
	return conditions.FromJSON(converted)
}
