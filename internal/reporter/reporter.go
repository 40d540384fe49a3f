// Package reporter renders scan reports and apply results for humans and
// for other programs.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/fenilsonani/homesweep/internal/cleaner"
	"github.com/fenilsonani/homesweep/internal/report"
	"github.com/fenilsonani/homesweep/internal/scanner"
	"github.com/fenilsonani/homesweep/internal/ui/styles"
	uiutils "github.com/fenilsonani/homesweep/internal/ui/utils"
	"github.com/fenilsonani/homesweep/pkg/utils"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatTable   OutputFormat = "table"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatSummary OutputFormat = "summary"
	FormatTree    OutputFormat = "tree"
)

// ParseFormat validates a format name
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatJSON, FormatYAML, FormatSummary, FormatTree:
		return f, nil
	case "":
		return FormatSummary, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// Reporter handles report generation
type Reporter struct {
	writer io.Writer
	format OutputFormat
	theme  *styles.Theme
	width  int
}

// New creates a new Reporter. Color is used only when writer is a terminal.
func New(writer io.Writer, format OutputFormat) *Reporter {
	return &Reporter{
		writer: writer,
		format: format,
		theme:  styles.NewTheme(lipgloss.NewRenderer(writer)),
		width:  uiutils.Width(writer),
	}
}

// Report writes a scan report. stats may be nil.
func (r *Reporter) Report(rep *report.Report, stats *scanner.Stats) error {
	switch r.format {
	case FormatTable:
		return r.reportTable(rep)
	case FormatJSON:
		return r.encodeJSON(rep)
	case FormatYAML:
		return r.encodeYAML(rep)
	case FormatSummary:
		return r.reportSummary(rep, stats)
	case FormatTree:
		return r.reportTree(rep)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

// reportSummary generates a summary report
func (r *Reporter) reportSummary(rep *report.Report, stats *scanner.Stats) error {
	t := r.theme
	fmt.Fprintln(r.writer, t.Title.Render("=== Scan Summary ==="))
	fmt.Fprintf(r.writer, "Home: %s\n", rep.Home)
	fmt.Fprintf(r.writer, "Generated: %s\n", rep.GeneratedAt.Format(time.RFC3339))
	fmt.Fprintf(r.writer, "Total Files: %d\n", rep.Totals.Count)
	fmt.Fprintf(r.writer, "Total Size: %s\n", t.FileSize.Render(utils.FormatBytes(rep.Totals.Bytes)))
	fmt.Fprintf(r.writer, "\nBreakdown by Category:\n")

	for _, ct := range rep.CategoryTotals() {
		fmt.Fprintf(r.writer, "  %s: %d files, %s\n",
			t.Category.Render(ct.Category), ct.Count, utils.FormatBytes(ct.Bytes))
	}

	if stats != nil {
		fmt.Fprintf(r.writer, "\nExamined %d files in %d directories (%s)\n",
			stats.Files, stats.Dirs, stats.Duration.Round(time.Millisecond))
		if stats.Errors > 0 {
			fmt.Fprintln(r.writer, t.Warning.Render(fmt.Sprintf("Errors: %d unreadable entries skipped", stats.Errors)))
		}
	}

	return nil
}

// reportTable generates a table report sized to the terminal
func (r *Reporter) reportTable(rep *report.Report) error {
	const sizeW, catW, dateW = 10, 12, 10
	pathW := r.width - sizeW - catW - dateW - 9
	if pathW < 20 {
		pathW = 20
	}
	rule := strings.Repeat("-", pathW+sizeW+catW+dateW+9)

	header := fmt.Sprintf("%-*s | %*s | %-*s | %s", pathW, "Path", sizeW, "Size", catW, "Category", "Modified")
	fmt.Fprintln(r.writer, r.theme.Header.Render(header))
	fmt.Fprintln(r.writer, rule)

	for _, item := range rep.Items {
		path := uiutils.TruncatePath(uiutils.ShortenHome(item.Path, rep.Home), pathW)
		fmt.Fprintf(r.writer, "%-*s | %*s | %-*s | %s\n",
			pathW, path,
			sizeW, utils.FormatBytes(item.Bytes),
			catW, item.Category,
			item.ModTime().Format("2006-01-02"))
	}

	fmt.Fprintln(r.writer, rule)
	fmt.Fprintf(r.writer, "Total: %d files, %s\n", rep.Totals.Count, utils.FormatBytes(rep.Totals.Bytes))

	return nil
}

// reportTree groups items by category and parent directory
func (r *Reporter) reportTree(rep *report.Report) error {
	const maxFiles = 5
	t := r.theme

	byCategory := make(map[string][]report.Item)
	for _, item := range rep.Items {
		byCategory[item.Category] = append(byCategory[item.Category], item)
	}

	for _, ct := range rep.CategoryTotals() {
		items := byCategory[ct.Category]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(r.writer, "\n╭─ %s (%s)\n", t.Category.Render(ct.Category), utils.FormatBytes(ct.Bytes))

		dirs := make(map[string][]report.Item)
		var order []string
		for _, item := range items {
			dir := filepath.Dir(item.Path)
			if _, ok := dirs[dir]; !ok {
				order = append(order, dir)
			}
			dirs[dir] = append(dirs[dir], item)
		}
		sort.Strings(order)

		for i, dir := range order {
			files := dirs[dir]
			last := i == len(order)-1

			var dirSize int64
			for _, f := range files {
				dirSize += f.Bytes
			}

			connector, indent := "├", "│   "
			if last {
				connector, indent = "╰", "    "
			}
			fmt.Fprintf(r.writer, "%s── %s (%s)\n", connector,
				t.FilePath.Render(uiutils.ShortenHome(dir, rep.Home)), utils.FormatBytes(dirSize))

			shown := files
			if len(shown) > maxFiles {
				shown = shown[:maxFiles]
			}
			for j, f := range shown {
				fc := "├"
				if j == len(shown)-1 && len(files) <= maxFiles {
					fc = "╰"
				}
				fmt.Fprintf(r.writer, "%s%s── %s (%s)\n", indent, fc, filepath.Base(f.Path), utils.FormatBytes(f.Bytes))
			}
			if len(files) > maxFiles {
				fmt.Fprintf(r.writer, "%s╰── ... and %d more files\n", indent, len(files)-maxFiles)
			}
		}
	}

	fmt.Fprintf(r.writer, "\n%s\n", strings.Repeat("═", 56))
	fmt.Fprintf(r.writer, "Total: %d items | %s\n", rep.Totals.Count, utils.FormatBytes(rep.Totals.Bytes))
	return nil
}

// Apply writes an apply result
func (r *Reporter) Apply(res *cleaner.ApplyResult) error {
	switch r.format {
	case FormatJSON:
		return r.encodeJSON(res)
	case FormatYAML:
		return r.encodeYAML(res)
	case FormatTable, FormatTree:
		return r.applyTable(res)
	case FormatSummary:
		return r.applySummary(res)
	default:
		return fmt.Errorf("unsupported format: %s", r.format)
	}
}

func (r *Reporter) applySummary(res *cleaner.ApplyResult) error {
	t := r.theme

	title := "=== Apply Summary ==="
	if res.Summary.DryRun {
		title = "=== Dry Run Preview ==="
	}
	fmt.Fprintln(r.writer, t.Title.Render(title))
	fmt.Fprintf(r.writer, "Mode: %s\n", res.Summary.Mode)
	fmt.Fprintf(r.writer, "Items: %d (%s)\n", res.Summary.Count, t.FileSize.Render(res.Summary.HumanReadableSize))

	counts := res.StatusCounts()
	statuses := make([]string, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(r.writer, "  %-14s %d\n", s, counts[cleaner.Status(s)])
	}

	if len(res.Errors) > 0 {
		fmt.Fprintln(r.writer)
		fmt.Fprintln(r.writer, t.Error.Render(cleaner.FormatErrorSummary(res.Errors)))
	}
	if res.OK {
		fmt.Fprintln(r.writer, t.Success.Render("OK"))
	}
	return nil
}

func (r *Reporter) applyTable(res *cleaner.ApplyResult) error {
	const statusW, sizeW = 14, 10
	pathW := r.width - statusW - sizeW - 6
	if pathW < 20 {
		pathW = 20
	}

	header := fmt.Sprintf("%-*s | %*s | %s", statusW, "Status", sizeW, "Size", "Path")
	fmt.Fprintln(r.writer, r.theme.Header.Render(header))
	fmt.Fprintln(r.writer, strings.Repeat("-", statusW+sizeW+pathW+6))

	for _, d := range res.Details {
		line := fmt.Sprintf("%-*s | %*s | %s", statusW, d.Status, sizeW,
			utils.FormatBytes(d.Bytes), uiutils.TruncatePath(d.Path, pathW))
		if d.Error != "" {
			line += " (" + d.Error + ")"
		}
		fmt.Fprintln(r.writer, line)
	}

	fmt.Fprintf(r.writer, "\nTotal: %d items, %s\n", res.Summary.Count, res.Summary.HumanReadableSize)
	return nil
}

func (r *Reporter) encodeJSON(v interface{}) error {
	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (r *Reporter) encodeYAML(v interface{}) error {
	encoder := yaml.NewEncoder(r.writer)
	defer encoder.Close()
	return encoder.Encode(v)
}

// SaveToFile saves the report to a file
func SaveToFile(rep *report.Report, path string, format OutputFormat) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return New(file, format).Report(rep, nil)
}
