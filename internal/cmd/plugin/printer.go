/*
Copyright © contributors to CloudNativePG, established as
CloudNativePG a Series of LF Projects, LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.

SPDX-License-Identifier: Apache-2.0
*/

package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// OutputFormat represent the output format supported by this command
type OutputFormat string

const (
	// OutputFormatText means just use a human-readable output
	OutputFormatText = "text"

	// OutputFormatJSON means use machine-readable JSON output
	OutputFormatJSON = "json"

	// OutputFormatYAML means use machine-readable YAML output
	OutputFormatYAML = "yaml"
)

// AddOutputFlag adds the "output" flag to the passed command
func AddOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP(
		"output", "o", OutputFormatText, "Output format. One of text|json|yaml")
}

// GetOutputFormat reads the "output" flag, checking its value
func GetOutputFormat(cmd *cobra.Command) (OutputFormat, error) {
	output, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}

	switch output {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return OutputFormat(output), nil
	default:
		return "", fmt.Errorf("unknown output format %q", output)
	}
}

// Print output an object via an io.Writer in a machine-readable way.
// Nothing is written for the text format.
func Print(o any, format OutputFormat, writer io.Writer) error {
	switch format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(o, "", "  ")
		if err != nil {
			return err
		}

		if _, err = writer.Write(data); err != nil {
			return err
		}

		// json.MarshalIndent doesn't add the final newline
		if _, err = io.WriteString(writer, "\n"); err != nil {
			return err
		}

	case OutputFormatYAML:
		data, err := yaml.Marshal(o)
		if err != nil {
			return err
		}

		if _, err = writer.Write(data); err != nil {
			return err
		}
	}

	return nil
}

// NewTabby creates a table printer writing aligned columns to the passed writer
func NewTabby(writer io.Writer) *tabby.Tabby {
	return tabby.NewCustom(tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0))
}
