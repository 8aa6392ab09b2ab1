package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// Response is the JSON envelope of every command's output.
type Response struct {
	Status string `json:"status"`
	Data   any    `json:"data,omitempty"`
}

// emit writes data as a JSON envelope, or calls text in text mode.
func emit(w io.Writer, opts *RootOptions, data any, text func(io.Writer)) error {
	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Response{Status: "ok", Data: data})
	}
	text(w)
	return nil
}

// verbosef writes a diagnostic line when verbose output is on.
func verbosef(w io.Writer, opts *RootOptions, format string, args ...any) {
	if opts.Verbose {
		fmt.Fprintf(w, format+"\n", args...)
	}
}
