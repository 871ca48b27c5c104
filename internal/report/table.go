package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/mikey/project-digest/internal/core"
)

// maxTitleWidth caps the project column so long titles don't wrap the terminal
const maxTitleWidth = 60

// Write prints a run summary followed by a table of processed projects
func Write(w io.Writer, r *core.RunReport) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run:       %s\n", r.RunID)
	fmt.Fprintf(&b, "Started:   %s\n", r.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&b, "Duration:  %s\n", r.Duration.Round(time.Millisecond))
	fmt.Fprintf(&b, "Listed:    %d\n", r.Listed)
	fmt.Fprintf(&b, "Processed: %d\n", len(r.Processed))
	fmt.Fprintf(&b, "Skipped:   %d\n", r.Skipped)
	fmt.Fprintf(&b, "Tracked:   %d\n", r.Tracked)
	if len(r.Artifacts) > 0 {
		fmt.Fprintf(&b, "Uploaded:  %s\n", strings.Join(r.Artifacts, ", "))
	}

	if len(r.Processed) > 0 {
		b.WriteString("\n")
		writeTable(&b, r.Processed)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeTable(b *strings.Builder, titles []string) {
	numWidth := len(strconv.Itoa(len(titles)))

	titleWidth := runewidth.StringWidth("Project")
	cells := make([]string, len(titles))
	for i, t := range titles {
		cells[i] = runewidth.Truncate(t, maxTitleWidth, "…")
		if w := runewidth.StringWidth(cells[i]); w > titleWidth {
			titleWidth = w
		}
	}

	border := "+" + strings.Repeat("-", numWidth+2) + "+" + strings.Repeat("-", titleWidth+2) + "+\n"
	row := func(num, title string) {
		b.WriteString("| ")
		b.WriteString(runewidth.FillLeft(num, numWidth))
		b.WriteString(" | ")
		b.WriteString(runewidth.FillRight(title, titleWidth))
		b.WriteString(" |\n")
	}

	b.WriteString(border)
	row("#", "Project")
	b.WriteString(border)
	for i, c := range cells {
		row(strconv.Itoa(i+1), c)
	}
	b.WriteString(border)
}
