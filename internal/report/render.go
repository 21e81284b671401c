package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Generate reads the reports under runDir and writes a summary in the
// requested format: "table" (default), "markdown", or "json".
func Generate(runDir, format string, w io.Writer) error {
	reports, err := Collect(runDir)
	if err != nil {
		return err
	}
	switch format {
	case "markdown":
		return writeMarkdown(reports, w)
	case "json":
		return writeJSON(reports, w)
	default:
		return writeTable(reports, w)
	}
}

func statusOf(r *Report) string {
	if r.Failed || r.Comparison.SampleSize == 0 {
		return "FAILED (0 samples)"
	}
	return "ok"
}

func writeTable(reports []*Report, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tSTATUS\tSCORE\tGRADE\tLATENCY\tCPU\tMEMORY\tCOVERAGE\tP\tN")
	fmt.Fprintln(tw, strings.Repeat("-", 96))
	for _, r := range reports {
		if r.Failed || r.Comparison.SampleSize == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t-\t-\t-\t%.2f\t0\n",
				r.Target, statusOf(r), r.Comparison.PValue)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t+%.1f%%\t+%.1f%%\t+%.1f%%\t%.1f%%\t%.3f\t%d\n",
			r.Target, statusOf(r),
			r.Scores.OverallScore, r.Scores.OverallGrade,
			r.NorthStar.OverheadPct, r.Comparison.CPUOverheadPct,
			r.NorthStar.MemoryOverheadPct, r.NorthStar.TraceCoveragePct,
			r.Comparison.PValue, r.Comparison.SampleSize)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, r := range reports {
		if r.Failed {
			fmt.Fprintf(w, "\n%s: %s\n", r.Target, r.FailureReason)
			continue
		}
		if len(r.Scores.Recommendations) > 0 {
			fmt.Fprintf(w, "\n%s:\n", r.Target)
			for _, rec := range r.Scores.Recommendations {
				fmt.Fprintf(w, "  - %s\n", rec)
			}
		}
	}
	return nil
}

func writeMarkdown(reports []*Report, w io.Writer) error {
	fmt.Fprintln(w, "| Target | Status | Score | Grade | Latency | CPU | Memory | Coverage | p | n |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|---|---|---|---|")
	for _, r := range reports {
		if r.Failed || r.Comparison.SampleSize == 0 {
			fmt.Fprintf(w, "| %s | %s | - | - | - | - | - | - | %.2f | 0 |\n",
				r.Target, statusOf(r), r.Comparison.PValue)
			continue
		}
		fmt.Fprintf(w, "| %s | %s | %.1f | %s | +%.1f%% | +%.1f%% | +%.1f%% | %.1f%% | %.3f | %d |\n",
			r.Target, statusOf(r),
			r.Scores.OverallScore, r.Scores.OverallGrade,
			r.NorthStar.OverheadPct, r.Comparison.CPUOverheadPct,
			r.NorthStar.MemoryOverheadPct, r.NorthStar.TraceCoveragePct,
			r.Comparison.PValue, r.Comparison.SampleSize)
	}
	return nil
}

func writeJSON(reports []*Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}
