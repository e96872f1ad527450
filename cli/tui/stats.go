package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/sigbench/cli/reader"
)

func renderStats(data any) string {
	s, ok := data.(*reader.TransferStats)
	if !ok {
		return "Invalid data type for " + ViewStatsTransfers
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Transfer Statistics"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Total", fmt.Sprint(s.Total), highlightColor),
		statBox("Succeeded", fmt.Sprint(s.Succeeded), successColor),
		statBox("Verify Failed", fmt.Sprint(s.VerificationFailed), errorColor),
		statBox("Incomplete", fmt.Sprint(s.Incomplete), warningColor),
		statBox("Transport Err", fmt.Sprint(s.TransportError), errorColor),
	))
	fmt.Fprintf(&b, "\n%s%s%s\n",
		labelStyle.Render("Success rate:"),
		meter(float64(s.Succeeded), float64(s.Total), 40, successColor),
		valueStyle.Render(fmt.Sprintf(" %d/%d", s.Succeeded, s.Total)),
	)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Mean MiB/s", fmt.Sprintf("%.2f", s.MeanThroughputMBps), primaryColor),
		statBox("Max MiB/s", fmt.Sprintf("%.2f", s.MaxThroughputMBps), primaryColor),
		statBox("Mean Conn ms", fmt.Sprintf("%.1f", s.MeanConnectionMs), mutedColor),
		statBox("Mean Verify ms", fmt.Sprintf("%.3f", s.MeanVerifyMs), mutedColor),
	))
	if s.TrailingData > 0 {
		b.WriteString("\n")
		b.WriteString(warningText(fmt.Sprintf("%d transfer(s) had trailing data", s.TrailingData)))
	}
	return b.String()
}
