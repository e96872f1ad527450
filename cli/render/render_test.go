package render

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{"json lowercase", "json", FormatJSON, false},
		{"json uppercase", "JSON", FormatJSON, false},
		{"table", "table", FormatTable, false},
		{"yaml", "yaml", FormatYAML, false},
		{"empty", "", "", false},
		{"csv", "csv", FormatCSV, false},
		{"invalid", "xml", "", true},
		{"invalid markdown", "md", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormat_InvalidErrorMessage(t *testing.T) {
	_, err := ParseFormat("xml")
	if err == nil || !strings.Contains(err.Error(), "json, table, yaml, or csv") {
		t.Errorf("ParseFormat(xml) error = %v, want list of valid formats", err)
	}
}

func TestRenderer_Encoders(t *testing.T) {
	data := map[string]any{"transfer_id": "t-1", "total_bytes": 5242880}

	tests := []struct {
		format Format
		want   []string
	}{
		{FormatJSON, []string{`"transfer_id": "t-1"`, `"total_bytes": 5242880`}},
		{FormatYAML, []string{"transfer_id: t-1", "total_bytes: 5242880"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewRendererWithWriter(tt.format, false, &buf).Render(data); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRenderer_Table(t *testing.T) {
	type row struct {
		ID   string `json:"transfer_id"`
		Role string `json:"role"`
		N    int    `json:"total_bytes"`
	}

	tests := []struct {
		name string
		data any
		want []string
	}{
		{"struct", row{ID: "t-1", Role: "sender", N: 42}, []string{"transfer_id:", "t-1", "total_bytes:", "42"}},
		{"slice", []row{{ID: "t-1", Role: "sender"}, {ID: "t-2", Role: "receiver"}}, []string{"transfer_id", "role", "sender", "receiver"}},
		{"empty slice", []row{}, []string{"(no results)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := NewRendererWithWriter(FormatTable, true, &buf).Render(tt.data); err != nil {
				t.Fatalf("Render failed: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(buf.String(), w) {
					t.Errorf("output missing %q:\n%s", w, buf.String())
				}
			}
		})
	}
}

func TestRenderer_NoColorLeavesJSONAlone(t *testing.T) {
	var plain, colored bytes.Buffer
	data := map[string]string{"outcome": "success"}
	if err := NewRendererWithWriter(FormatJSON, true, &plain).Render(data); err != nil {
		t.Fatal(err)
	}
	if err := NewRendererWithWriter(FormatJSON, false, &colored).Render(data); err != nil {
		t.Fatal(err)
	}
	if plain.String() != colored.String() {
		t.Errorf("--no-color changed JSON output: %q vs %q", plain.String(), colored.String())
	}
}

type csvPayload struct{ rows []string }

func (p csvPayload) WriteCSV(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(p.rows, "\n")+"\n")
	return err
}

func TestRenderer_CSV(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatCSV, false, &buf)

	if err := r.Render(csvPayload{rows: []string{"a,b", "1,2"}}); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if buf.String() != "a,b\n1,2\n" {
		t.Errorf("CSV output = %q", buf.String())
	}

	err := r.Render(map[string]string{"key": "value"})
	if err == nil || !strings.Contains(err.Error(), "csv output is not supported") {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestRenderer_Table_FormatsValues(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, false, &buf)

	latency := 1.5
	data := struct {
		Throughput float64   `json:"throughput_mb_per_s"`
		Latency    *float64  `json:"latency_ms"`
		Missing    *float64  `json:"missing_ms"`
		StartedAt  time.Time `json:"started_at"`
		Samples    []int     `json:"samples"`
	}{
		Throughput: 12.34567,
		Latency:    &latency,
		StartedAt:  time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
		Samples:    []int{1, 2, 3},
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	for _, want := range []string{"12.346", "1.500", "2026-05-01T12:00:00Z", "[3 items]"} {
		if !strings.Contains(got, want) {
			t.Errorf("table output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_Table_SkipsEmptyOmitempty(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	data := struct {
		ID      string `json:"transfer_id"`
		Peer    string `json:"peer,omitempty"`
		Message string `json:"message,omitempty"`
		Hidden  string `json:"-"`
	}{ID: "t-1", Message: "drained"}
	if err := r.Render(&data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	got := buf.String()
	if !strings.Contains(got, "transfer_id:") || !strings.Contains(got, "message:") {
		t.Errorf("missing fields:\n%s", got)
	}
	if strings.Contains(got, "peer:") || strings.Contains(got, "Hidden") || strings.Contains(got, "hidden") {
		t.Errorf("unexpected fields:\n%s", got)
	}
}

func TestRenderer_Table_SliceOfMaps(t *testing.T) {
	var buf bytes.Buffer
	r := NewRendererWithWriter(FormatTable, true, &buf)

	data := []map[string]any{
		{"role": "sender", "bytes": 10},
		{"role": "receiver"},
	}
	if err := r.Render(data); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got:\n%s", buf.String())
	}
	if fields := strings.Fields(lines[0]); len(fields) != 2 || fields[0] != "bytes" || fields[1] != "role" {
		t.Errorf("header = %q, want sorted keys", lines[0])
	}
	if !strings.Contains(lines[2], "receiver") {
		t.Errorf("row = %q", lines[2])
	}
}
