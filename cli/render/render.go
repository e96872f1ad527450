// Package render formats CLI output.
//
// Without --format, a TTY gets a table and anything else gets JSON. CSV is
// available only for payloads that implement CSVWriter. --no-color affects
// table output only; the TUI keeps its own styling.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pithecene-io/sigbench/cli/tui"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// Format is an output format name.
type Format string

// Output formats.
const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatCSV   Format = "csv"
)

// formats lists the accepted --format values in help order.
var formats = []Format{FormatJSON, FormatTable, FormatYAML, FormatCSV}

// CSVWriter is implemented by payloads with a CSV form.
type CSVWriter interface {
	WriteCSV(w io.Writer) error
}

// ParseFormat parses a --format value case-insensitively. The empty string
// means "choose by terminal".
func ParseFormat(s string) (Format, error) {
	if s == "" {
		return "", nil
	}
	want := Format(strings.ToLower(s))
	for _, f := range formats {
		if f == want {
			return f, nil
		}
	}
	return "", fmt.Errorf("invalid format: %q (must be json, table, yaml, or csv)", s)
}

// Renderer writes one payload per call in a fixed format.
type Renderer struct {
	format  Format
	noColor bool
	out     io.Writer
}

// NewRenderer builds a renderer from --format and --no-color, writing to
// the app's writer.
func NewRenderer(c *cli.Context) (*Renderer, error) {
	format, err := ParseFormat(c.String("format"))
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = FormatJSON
		if isTTY(os.Stdout) {
			format = FormatTable
		}
	}

	var out io.Writer = os.Stdout
	if c.App != nil && c.App.Writer != nil {
		out = c.App.Writer
	}
	return NewRendererWithWriter(format, c.Bool("no-color"), out), nil
}

// NewRendererWithWriter returns a renderer writing to out.
func NewRendererWithWriter(format Format, noColor bool, out io.Writer) *Renderer {
	return &Renderer{format: format, noColor: noColor, out: out}
}

// Format returns the selected format.
func (r *Renderer) Format() Format { return r.format }

// Render writes data in the renderer's format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		return r.renderTable(data)
	case FormatCSV:
		if cw, ok := data.(CSVWriter); ok {
			return cw.WriteCSV(r.out)
		}
		return errors.New("csv output is not supported for this view")
	}
	return fmt.Errorf("unknown format: %s", r.format)
}

// RenderTUI runs the read-only TUI for viewType.
func (r *Renderer) RenderTUI(viewType string, data any) error {
	if !tui.IsTUISupported(viewType) {
		return fmt.Errorf("--tui is not supported for %s", viewType)
	}
	return tui.Run(viewType, data)
}

func isTTY(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
