package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type outputFormat int

const (
	formatText outputFormat = iota
	formatJSON
	formatYAML
)

func formatFlags(asJSON, asYAML bool) outputFormat {
	switch {
	case asJSON && asYAML:
		fail("--json and --yaml are mutually exclusive")
	case asJSON:
		return formatJSON
	case asYAML:
		return formatYAML
	}
	return formatText
}

// encode writes v as JSON or YAML.
func encode(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unsupported output format")
}

func printStructured(format outputFormat, v any) {
	if err := encode(os.Stdout, format, v); err != nil {
		fail("failed to write output: %v", err)
	}
}
