package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sdejongh/backupverify/pkg/models"
)

// labelOrder is the section order of the human report
var labelOrder = []models.Label{
	models.LabelError,
	models.LabelDangling,
	models.LabelMissingDir,
	models.LabelMissingFile,
	models.LabelMissingSymlink,
	models.LabelExtraDir,
	models.LabelExtraFile,
	models.LabelExtraSymlink,
	models.LabelDifferentFile,
	models.LabelSymlinkTarget,
	models.LabelSymlinkStatus,
	models.LabelSpecial,
	models.LabelDifferentFS,
	models.LabelSymlink,
	models.LabelSkip,
}

var labelTitles = map[models.Label]string{
	models.LabelError:          "Errors",
	models.LabelDangling:       "Dangling Symlinks",
	models.LabelMissingDir:     "Missing Directories",
	models.LabelMissingFile:    "Missing Files",
	models.LabelMissingSymlink: "Missing Symlinks",
	models.LabelExtraDir:       "Extra Directories",
	models.LabelExtraFile:      "Extra Files",
	models.LabelExtraSymlink:   "Extra Symlinks",
	models.LabelDifferentFile:  "Different Files",
	models.LabelSymlinkTarget:  "Different Symlink Targets",
	models.LabelSymlinkStatus:  "Symlink Status Mismatches",
	models.LabelSpecial:        "Special Files",
	models.LabelDifferentFS:    "Other Filesystems",
	models.LabelSymlink:        "Unfollowed Symlinks",
	models.LabelSkip:           "Skipped",
}

// WriteFindingsReport writes every finding of a run to a file.
// Format can be "human" or "json". Nothing is written when there are no findings.
func WriteFindingsReport(report *models.RunReport, path string, format string) error {
	if len(report.Findings) == 0 {
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create findings file: %w", err)
	}
	return writeAndClose(report, file, format)
}

// writeAndClose renders the report into wc and closes it exactly once
func writeAndClose(report *models.RunReport, wc io.WriteCloser, format string) error {
	var err error
	switch format {
	case "json":
		err = writeFindingsJSON(report, wc)
	default:
		err = writeFindingsHuman(report, wc)
	}
	closeErr := wc.Close()

	if err != nil {
		return fmt.Errorf("failed to write findings file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close findings file: %w", closeErr)
	}
	return nil
}

// writeFindingsHuman writes findings grouped by label
func writeFindingsHuman(report *models.RunReport, w io.Writer) error {
	fmt.Fprintf(w, "Verification Findings\n")
	fmt.Fprintf(w, "=====================\n\n")
	fmt.Fprintf(w, "Generated: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(w, "Run ID: %s\n", report.RunID)
	fmt.Fprintf(w, "Original: %s\n", report.OriginalRoot)
	fmt.Fprintf(w, "Backup: %s\n", report.BackupRoot)
	fmt.Fprintf(w, "Duration: %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(w, "Samples: %d, Hash all: %v, Follow: %v, One filesystem: %v\n",
		report.Options.Samples, report.Options.HashAll, report.Options.Follow, report.Options.OneFilesystem)
	if report.Options.BandwidthLimit > 0 {
		fmt.Fprintf(w, "Bandwidth limit: %s/s\n", humanize.Bytes(uint64(report.Options.BandwidthLimit)))
	}
	if report.Interrupted {
		fmt.Fprintf(w, "Status: interrupted (partial results)\n")
	}
	fmt.Fprintf(w, "\nTotal Findings: %s\n\n", humanize.Comma(int64(len(report.Findings))))

	byLabel := make(map[models.Label][]models.Finding)
	for _, f := range report.Findings {
		byLabel[f.Label] = append(byLabel[f.Label], f)
	}

	for _, label := range labelOrder {
		findings := byLabel[label]
		if len(findings) == 0 {
			continue
		}

		title := fmt.Sprintf("%s (%s)", labelTitles[label], humanize.Comma(int64(len(findings))))
		fmt.Fprintf(w, "%s\n", title)
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", len(title)))

		for _, f := range findings {
			fmt.Fprintf(w, "  %s\n", f.String())
		}
		fmt.Fprintf(w, "\n")
	}

	WriteSummary(w, report.Stats)
	return nil
}

// writeFindingsJSON writes findings in JSON format
func writeFindingsJSON(report *models.RunReport, w io.Writer) error {
	type jsonFinding struct {
		models.Finding
		Line string `json:"line"`
	}

	findings := make([]jsonFinding, 0, len(report.Findings))
	for _, f := range report.Findings {
		findings = append(findings, jsonFinding{Finding: f, Line: f.String()})
	}

	output := struct {
		Generated    string               `json:"generated"`
		RunID        string               `json:"run_id"`
		OriginalRoot string               `json:"original"`
		BackupRoot   string               `json:"backup"`
		StartTime    string               `json:"start_time"`
		DurationMS   int64                `json:"duration_ms"`
		Interrupted  bool                 `json:"interrupted"`
		Options      models.RunOptions    `json:"options"`
		Stats        models.StatsSnapshot `json:"stats"`
		TotalCount   int                  `json:"total_count"`
		Findings     []jsonFinding        `json:"findings"`
	}{
		Generated:    time.Now().Format(time.RFC3339),
		RunID:        report.RunID,
		OriginalRoot: report.OriginalRoot,
		BackupRoot:   report.BackupRoot,
		StartTime:    report.StartTime.Format(time.RFC3339),
		DurationMS:   report.Duration.Milliseconds(),
		Interrupted:  report.Interrupted,
		Options:      report.Options,
		Stats:        report.Stats,
		TotalCount:   len(report.Findings),
		Findings:     findings,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
