package internal

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"golang.org/x/exp/slices"
)

// Used for file system mocking with Afero library. Set:
// fileSystem = afero.NewOsFs() if not unit testing (code will use real file system) OR
// fileSystem = afero.NewMemMapFs() for a mocked file system (when unit testing)
var fileSystem = afero.NewOsFs()

// Color functions
var cyan = color.New(color.FgCyan).SprintFunc()

var ansiRegExp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type TableFile struct {
	Name      string
	TableCols []string
	Header    []string
	Body      [][]string
	// SortCol and MaxRows only apply to markdown sections. When MaxRows is
	// exceeded the body is sorted descending by SortCol and truncated.
	SortCol string
	MaxRows int
}

type MarkdownDocument struct {
	Title    string
	Preamble []string
	Summary  TableFile
	Sections []TableFile
	Warnings []string
}

func removeColorCodes(input string) string {
	return ansiRegExp.ReplaceAllString(input, "")
}

func removeColorCodesFromSlice(input []string) []string {
	noColorSlice := make([]string, len(input))
	for i, str := range input {
		noColorSlice[i] = removeColorCodes(str)
	}
	return noColorSlice
}

// WriteArtifact creates the parent directory if needed and writes contents in
// a single call so a failed artifact never leaves a half written file behind
// another one.
func WriteArtifact(fullPath string, contents []byte) error {
	dir := filepath.Dir(fullPath)
	if _, err := fileSystem.Stat(dir); os.IsNotExist(err) {
		if err := fileSystem.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("error creating output directory %s: %w", dir, err)
		}
	}
	if err := afero.WriteFile(fileSystem, fullPath, contents, 0644); err != nil {
		return fmt.Errorf("error writing %s: %w", fullPath, err)
	}
	return nil
}

func ReadArtifact(fullPath string) ([]byte, error) {
	return afero.ReadFile(fileSystem, fullPath)
}

func RenderCSV(file TableFile) ([]byte, error) {
	var buf bytes.Buffer
	csvWriter := csv.NewWriter(&buf)
	if err := csvWriter.Write(file.Header); err != nil {
		return nil, err
	}
	for _, row := range file.Body {
		if err := csvWriter.Write(removeColorCodesFromSlice(row)); err != nil {
			return nil, err
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func WriteCSVFile(fullPath string, file TableFile) error {
	contents, err := RenderCSV(file)
	if err != nil {
		return fmt.Errorf("error rendering csv for %s: %w", file.Name, err)
	}
	return WriteArtifact(fullPath, contents)
}

func ReadCSVFile(fullPath string) ([][]string, error) {
	contents, err := ReadArtifact(fullPath)
	if err != nil {
		return nil, err
	}
	return csv.NewReader(bytes.NewReader(contents)).ReadAll()
}

func RenderMarkdown(doc MarkdownDocument) []byte {
	var b strings.Builder

	b.WriteString("# " + escapeMarkdownCell(doc.Title) + "\n\n")
	for _, line := range doc.Preamble {
		b.WriteString(line + "\n")
	}
	if len(doc.Preamble) > 0 {
		b.WriteString("\n")
	}

	if doc.Summary.Name != "" {
		b.WriteString("## " + doc.Summary.Name + "\n\n")
		writeMarkdownTable(&b, doc.Summary.Header, doc.Summary.Body)
	}

	for _, section := range doc.Sections {
		body, header := adjustBodyForTable(section.TableCols, section.Header, section.Body)
		total := len(body)
		if section.MaxRows > 0 && total > section.MaxRows {
			body = sortBodyDescending(header, body, section.SortCol)[:section.MaxRows]
		}

		b.WriteString(fmt.Sprintf("## %s (%d)\n\n", section.Name, total))
		writeMarkdownTable(&b, header, body)
		if len(body) < total {
			b.WriteString(fmt.Sprintf("_Showing %d of %d, most recent by %s._\n\n", len(body), total, section.SortCol))
		}
	}

	if len(doc.Warnings) > 0 {
		b.WriteString(fmt.Sprintf("## Warnings (%d)\n\n", len(doc.Warnings)))
		for _, w := range doc.Warnings {
			b.WriteString("- " + escapeMarkdownCell(w) + "\n")
		}
		b.WriteString("\n")
	}

	return []byte(b.String())
}

func WriteMarkdownFile(fullPath string, doc MarkdownDocument) error {
	return WriteArtifact(fullPath, RenderMarkdown(doc))
}

func writeMarkdownTable(b *strings.Builder, header []string, body [][]string) {
	rows := make([][]string, len(body))
	for i, row := range body {
		rows[i] = make([]string, len(row))
		for j, cell := range row {
			rows[i][j] = escapeMarkdownCell(cell)
		}
	}

	colWidths := make([]int, len(header))
	for i, h := range header {
		colWidths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(colWidths) && len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	headerRow := "|"
	dividerRow := "|"
	for i, h := range header {
		formatter := fmt.Sprintf(" %%-%ds |", colWidths[i])
		headerRow += fmt.Sprintf(formatter, h)
		dividerRow += fmt.Sprintf(" %s |", strings.Repeat("-", colWidths[i]))
	}
	b.WriteString(headerRow + "\n")
	b.WriteString(dividerRow + "\n")

	for _, row := range rows {
		rowText := "|"
		for i, cell := range row {
			if i >= len(colWidths) {
				break
			}
			formatter := fmt.Sprintf(" %%-%ds |", colWidths[i])
			rowText += fmt.Sprintf(formatter, cell)
		}
		b.WriteString(rowText + "\n")
	}
	b.WriteString("\n")
}

// escapeMarkdownCell keeps a value on one table row.
func escapeMarkdownCell(input string) string {
	s := removeColorCodes(input)
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.TrimSpace(s)
}

func sortBodyDescending(header []string, body [][]string, sortCol string) [][]string {
	idx := -1
	for i, h := range header {
		if strings.EqualFold(h, sortCol) {
			idx = i
			break
		}
	}
	sorted := slices.Clone(body)
	if idx < 0 {
		return sorted
	}
	slices.SortStableFunc(sorted, func(a, b []string) int {
		return strings.Compare(b[idx], a[idx])
	})
	return sorted
}

func adjustBodyForTable(tableHeaders []string, fullHeaders []string, fullBody [][]string) ([][]string, []string) {
	if len(tableHeaders) == 0 {
		return fullBody, fullHeaders
	}

	columnIndices := make([]int, 0)
	selectedHeaders := make([]string, 0)

	for _, tableHeader := range tableHeaders {
		for j, fullHeader := range fullHeaders {
			if strings.EqualFold(tableHeader, fullHeader) {
				columnIndices = append(columnIndices, j)
				selectedHeaders = append(selectedHeaders, fullHeader)
				break
			}
		}
	}

	adjustedBody := make([][]string, len(fullBody))
	for i, row := range fullBody {
		newRow := make([]string, len(columnIndices))
		for k, index := range columnIndices {
			newRow[k] = row[index]
		}
		adjustedBody[i] = newRow
	}

	return adjustedBody, selectedHeaders
}
