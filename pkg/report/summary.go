package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"

	"github.com/logsift/logsift/pkg/types"
)

// WriteSummary renders per-source diagnostics and totals as a table.
func WriteSummary(w io.Writer, stats types.ScanStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Source", "Lines", "Skipped", "Matches", "Size", "Fingerprint", "Time", "Status")

	for _, src := range stats.Sources {
		status := "ok"
		if src.Failed {
			status = "failed"
		}
		err := table.Append([]string{
			src.Source,
			humanize.Comma(src.Lines),
			humanize.Comma(src.SkippedLines),
			humanize.Comma(src.Matches),
			humanize.Bytes(uint64(src.Bytes)),
			src.Fingerprint,
			roundDuration(src.Duration),
			status,
		})
		if err != nil {
			return err
		}
	}

	if err := table.Render(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "%s lines, %s matches, %s retained, %s discarded in %s\n",
		humanize.Comma(stats.Lines),
		humanize.Comma(stats.Matches),
		humanize.Comma(int64(stats.Retained)),
		humanize.Comma(stats.Discarded),
		roundDuration(stats.Duration))
	return err
}

// WriteScans lists stored scans as a table.
func WriteScans(w io.Writer, scans []*types.ScanRecord) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Started", "Pattern", "Group", "Sources", "Matches", "Retained")

	for _, rec := range scans {
		group := "-"
		if rec.UniqueGroup != nil {
			group = strconv.Itoa(*rec.UniqueGroup)
		}
		err := table.Append([]string{
			strconv.FormatInt(rec.ID, 10),
			rec.StartedAt.Local().Format(time.DateTime),
			rec.Pattern,
			group,
			strconv.Itoa(len(rec.Stats.Sources)),
			humanize.Comma(rec.Stats.Matches),
			humanize.Comma(int64(rec.Stats.Retained)),
		})
		if err != nil {
			return err
		}
	}
	return table.Render()
}

// WritePresets lists presets as a table.
func WritePresets(w io.Writer, presets []*types.Preset) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Group", "Description")

	for _, p := range presets {
		group := "-"
		if p.UniqueGroup != nil {
			group = strconv.Itoa(*p.UniqueGroup)
		}
		if err := table.Append([]string{p.ID, p.Name, group, p.Description}); err != nil {
			return err
		}
	}
	return table.Render()
}

func roundDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond).String()
	case d >= time.Millisecond:
		return d.Round(time.Microsecond).String()
	default:
		return d.String()
	}
}
