package internal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aquasecurity/table"
	"github.com/spf13/afero"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/ssh/terminal"
)

const maxSheetNameLength = 31

// WorkbookEngine renders tables into a single multi-sheet workbook.
type WorkbookEngine interface {
	// Available reports why the engine cannot be used, or nil.
	Available() error
	Render(w io.Writer, sheets []TableFile) error
}

type ExcelizeEngine struct{}

func (ExcelizeEngine) Available() error {
	return nil
}

func (ExcelizeEngine) Render(w io.Writer, sheets []TableFile) error {
	f := excelize.NewFile()
	defer f.Close()

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	defaultSheet := f.GetSheetName(0)
	for i, sheet := range sheets {
		name := sheetName(sheet.Name)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return err
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return err
		}

		header := make([]interface{}, len(sheet.Header))
		for j, h := range sheet.Header {
			header[j] = h
		}
		if err := f.SetSheetRow(name, "A1", &header); err != nil {
			return err
		}
		if err := f.SetRowStyle(name, 1, 1, boldStyle); err != nil {
			return err
		}

		for r, row := range sheet.Body {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := make([]interface{}, len(row))
			for j, v := range removeColorCodesFromSlice(row) {
				values[j] = v
			}
			if err := f.SetSheetRow(name, cell, &values); err != nil {
				return err
			}
		}
	}
	f.SetActiveSheet(0)

	_, err = f.WriteTo(w)
	return err
}

func sheetName(name string) string {
	name = strings.NewReplacer(":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "").Replace(name)
	if len(name) > maxSheetNameLength {
		name = name[:maxSheetNameLength]
	}
	return name
}

func WriteWorkbookFile(fullPath string, engine WorkbookEngine, sheets []TableFile) error {
	var buf bytes.Buffer
	if err := engine.Render(&buf, sheets); err != nil {
		return fmt.Errorf("error rendering workbook: %w", err)
	}
	return WriteArtifact(fullPath, buf.Bytes())
}

// PrintTableToScreen renders a bordered table to w. With wrapLines the
// column width is derived from the terminal width when w is a terminal.
func PrintTableToScreen(w io.Writer, header []string, body [][]string, wrapLines bool) {
	standardColumnWidth := 1000
	t := table.New(w)
	if wrapLines {
		if f, ok := w.(*os.File); ok {
			terminalWidth, _, err := terminal.GetSize(int(f.Fd()))
			if err == nil {
				columnCount := len(header)
				// The offset value was defined by trial and error to get the best wrapping
				trialAndErrorOffset := 1
				standardColumnWidth = terminalWidth / (columnCount + trialAndErrorOffset)
			}
		}
	}
	t.SetColumnMaxWidth(standardColumnWidth)
	t.SetHeaders(header...)
	t.AddRows(body...)
	t.SetHeaderStyle(table.StyleBold)
	t.SetRowLines(false)
	t.SetLineStyle(table.StyleCyan)
	t.SetDividers(table.UnicodeRoundedDividers)
	t.SetAlignment(table.AlignLeft)
	t.Render()
}

// PrintWrittenPaths announces each artifact the way the module output does.
func PrintWrittenPaths(w io.Writer, callingModule, prefixIdentifier string, paths []string) {
	for _, path := range paths {
		fmt.Fprintf(w, "[%s][%s] Output written to %s\n", cyan(callingModule), cyan(prefixIdentifier), path)
	}
}

func MockFileSystem(switcher bool) afero.Fs {
	if switcher {
		fileSystem = afero.NewMemMapFs()
		return fileSystem
	} else {
		fileSystem = afero.NewOsFs()
		return fileSystem
	}
}
