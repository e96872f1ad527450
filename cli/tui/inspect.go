package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/sigbench/cli/reader"
)

type field struct {
	label string
	value string
	style func(string) string
}

func plain(s string) string { return valueStyle.Render(s) }

func status(s string) string { return statusStyle(s).Render(s) }

func ms(v float64) string { return fmt.Sprintf("%.3f ms", v) }

// transferFields lists the rows of the transfer card. Optional values are
// omitted when unset.
func transferFields(d *reader.TransferDetail) []field {
	fs := []field{
		{"Role", d.Role, plain},
		{"Protocol", d.Protocol, plain},
		{"Scheme", d.Scheme, plain},
		{"Started At", d.StartedAt.Format("2006-01-02 15:04:05"), plain},
		{"Outcome", d.Outcome, status},
		{"Message", d.Message, plain},
		{"Verification", d.Verification, status},
		{"Peer", d.Peer, plain},
		{"Total Bytes", fmt.Sprint(d.TotalBytes), plain},
		{"Signature Size", fmt.Sprint(d.SignatureSize), plain},
		{"Connection", ms(d.ConnectionMs), plain},
		{"Handshake", ms(d.HandshakeMs), plain},
	}
	if d.FirstDataLatencyMs != nil {
		fs = append(fs, field{"First Data", ms(*d.FirstDataLatencyMs), plain})
	}
	if d.SignMs > 0 {
		fs = append(fs, field{"Sign", ms(d.SignMs), plain})
	}
	if d.VerifyMs > 0 {
		fs = append(fs, field{"Verify", ms(d.VerifyMs), plain})
	}
	fs = append(fs, field{"Throughput", fmt.Sprintf("%.2f MiB/s", d.ThroughputMBps), plain})
	if d.TrailingData {
		fs = append(fs, field{"Trailing Data", "yes", warningText})
	}
	return fs
}

func renderTransfer(data any) string {
	d, ok := data.(*reader.TransferDetail)
	if !ok {
		return "Invalid data type for " + ViewInspectTransfer
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Transfer " + d.TransferID))
	b.WriteString("\n\n")
	for _, f := range transferFields(d) {
		if f.value == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", labelStyle.Render(f.label+":"), f.style(f.value))
	}

	resources := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Peak CPU %", fmt.Sprintf("%.1f", d.PeakCPUPercent), highlightColor),
		statBox("Peak RSS MiB", fmt.Sprintf("%.1f", d.PeakMemoryMB), highlightColor),
		statBox("Samples", fmt.Sprint(d.SampleCount), mutedColor),
	)
	return lipgloss.JoinVertical(lipgloss.Left, boxStyle.Render(b.String()), resources)
}
