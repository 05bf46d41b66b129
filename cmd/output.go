package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

// outputFormat is the machine readable format chosen by --json, --toon or --yaml
type outputFormat struct {
	JSON bool
	Toon bool
	YAML bool
}

func (o outputFormat) enabled() bool {
	return o.JSON || o.Toon || o.YAML
}

// print writes v in the selected format. It does nothing when no format is set.
func (o outputFormat) print(v any) error {
	switch {
	case o.JSON:
		output, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	case o.Toon:
		output, err := gotoon.Encode(v)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Println(output)
	case o.YAML:
		output, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		fmt.Print(string(output))
	}
	return nil
}

func addFormatFlags(cmd *cobra.Command, o *outputFormat) {
	cmd.Flags().BoolVar(&o.JSON, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&o.Toon, "toon", false, "Output in LLM-friendly toon format")
	cmd.Flags().BoolVar(&o.YAML, "yaml", false, "Output as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "toon", "yaml")
}
