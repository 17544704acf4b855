// File: cmd/terrable/output.go
package main

import (
	"fmt"
	"io"

	"terrable/internal/service"
	"terrable/pkg/formatter"
)

// writeResult prints a rendered result followed by its message, or encodes the whole result
func writeResult(w io.Writer, app *appContainer, result service.CommandResult) error {
	if app.Output != formatter.FormatTable {
		return formatter.Encode(w, app.Output, result)
	}

	if rendered := app.Formatter.Render(result); rendered != "" {
		fmt.Fprintln(w, rendered)
	}
	if result.Message != "" {
		fmt.Fprintln(w, result.Message)
	}
	return nil
}
