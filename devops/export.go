package devops

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BishopFox/devopsfox/globals"
	"github.com/BishopFox/devopsfox/internal"
)

type ExportFormat int

const (
	ExportNone ExportFormat = iota
	ExportCSV
	ExportExcel
	ExportMarkdown
)

var exportFormatNames = map[ExportFormat]string{
	ExportNone:     "None",
	ExportCSV:      "CSV",
	ExportExcel:    "Excel",
	ExportMarkdown: "Markdown",
}

func (f ExportFormat) String() string {
	if name, ok := exportFormatNames[f]; ok {
		return name
	}
	return "ExportFormat(" + strconv.Itoa(int(f)) + ")"
}

// ParseExportFormat accepts the format names case-insensitively, plus the
// usual file extensions.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ExportNone, nil
	case "csv":
		return ExportCSV, nil
	case "excel", "xlsx":
		return ExportExcel, nil
	case "markdown", "md":
		return ExportMarkdown, nil
	}
	return ExportNone, fmt.Errorf("unknown export format %q (want None, CSV, Excel or Markdown)", s)
}

// ArtifactBasePath is {dir}/{prefix}-{yyyyMMdd-HHmmss}-{organization}.
func ArtifactBasePath(dir, prefix string, ts time.Time, organization string) string {
	name := fmt.Sprintf("%s-%s-%s", prefix, ts.Format(globals.DEVOPS_ARTIFACT_TIMESTAMP_FORMAT), organization)
	if dir == "" {
		return name
	}
	return filepath.Join(dir, name)
}

type Exporter struct {
	Workbook internal.WorkbookEngine
	Log      internal.Logger
}

func NewExporter() *Exporter {
	return &Exporter{
		Workbook: internal.ExcelizeEngine{},
		Log:      internal.NewLogger(globals.DEVOPS_EXPORT_MODULE_NAME),
	}
}

// Export writes the inventory in the given format and returns the paths of
// the artifacts that were written. Write failures are logged as warnings and
// do not stop the remaining artifacts.
func (e *Exporter) Export(inv *OrganizationInventory, basePath string, format ExportFormat) ([]string, error) {
	switch format {
	case ExportNone:
		return nil, nil
	case ExportCSV:
		return e.exportCSV(inv, basePath), nil
	case ExportExcel:
		return e.exportExcel(inv, basePath), nil
	case ExportMarkdown:
		return e.exportMarkdown(inv, basePath), nil
	}
	return nil, fmt.Errorf("unsupported export format %s", format)
}

func nonEmptyTables(inv *OrganizationInventory) []internal.TableFile {
	var tables []internal.TableFile
	for _, t := range inv.Tables() {
		if len(t.Body) > 0 {
			tables = append(tables, t)
		}
	}
	return tables
}

func (e *Exporter) exportCSV(inv *OrganizationInventory, basePath string) []string {
	var written []string
	for _, t := range nonEmptyTables(inv) {
		fullPath := fmt.Sprintf("%s-%s.csv", basePath, t.Name)
		if err := internal.WriteCSVFile(fullPath, t); err != nil {
			e.Log.Warnf("Could not export %s for %s: %v", ResourceType(t.Name).Title(), inv.Organization, err)
			continue
		}
		written = append(written, fullPath)
	}
	return written
}

func (e *Exporter) exportExcel(inv *OrganizationInventory, basePath string) []string {
	if e.Workbook == nil {
		e.Log.Warn("No spreadsheet engine configured, falling back to CSV export.")
		return e.exportCSV(inv, basePath)
	}
	if err := e.Workbook.Available(); err != nil {
		e.Log.Warnf("Spreadsheet engine unavailable (%v), falling back to CSV export.", err)
		return e.exportCSV(inv, basePath)
	}

	sheets := nonEmptyTables(inv)
	if len(sheets) == 0 {
		e.Log.Infof("Nothing to export for %s.", inv.Organization)
		return nil
	}
	fullPath := basePath + ".xlsx"
	if err := internal.WriteWorkbookFile(fullPath, e.Workbook, sheets); err != nil {
		e.Log.Warnf("Could not export workbook for %s: %v", inv.Organization, err)
		return nil
	}
	return []string{fullPath}
}

func (e *Exporter) exportMarkdown(inv *OrganizationInventory, basePath string) []string {
	fullPath := basePath + ".md"
	if err := internal.WriteMarkdownFile(fullPath, markdownDocument(inv)); err != nil {
		e.Log.Warnf("Could not export markdown for %s: %v", inv.Organization, err)
		return nil
	}
	return []string{fullPath}
}

func markdownDocument(inv *OrganizationInventory) internal.MarkdownDocument {
	summary := internal.TableFile{
		Name:   "Summary",
		Header: []string{"Resource Type", "Count"},
	}
	for _, c := range inv.Counts() {
		summary.Body = append(summary.Body, []string{c.Type.Title(), strconv.Itoa(c.Count)})
	}

	sections := nonEmptyTables(inv)
	for i := range sections {
		sections[i].Name = ResourceType(sections[i].Name).Title()
	}

	warnings := make([]string, 0, len(inv.Warnings))
	for _, w := range inv.Warnings {
		warnings = append(warnings, w.String())
	}

	return internal.MarkdownDocument{
		Title: fmt.Sprintf("Azure DevOps Inventory: %s", inv.Organization),
		Preamble: []string{
			fmt.Sprintf("Collected at %s by devopsfox %s.", inv.CollectedAt.UTC().Format(time.RFC3339), globals.DEVOPSFOX_VERSION),
		},
		Summary:  summary,
		Sections: sections,
		Warnings: warnings,
	}
}
