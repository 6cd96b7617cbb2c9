// Package export writes work records to an Excel workbook.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/mmynk/worklog/internal/models"
)

const (
	DefaultSheet = "WorkRecords"
	DefaultLabel = "work_records"
)

// Columns is the fixed header row.
var Columns = []string{
	"Date",
	"Name",
	"Company",
	"Location",
	"StartTime",
	"EndTime",
	"DayHours",
	"NightHours",
	"LateNightHours",
	"ExtraAmount",
	"Memo",
}

var ErrBadWorkbook = errors.New("workbook does not match the export layout")

// Options controls the workbook and its file name.
type Options struct {
	// Sheet is the worksheet name. Default DefaultSheet.
	Sheet string
	// Label prefixes the file name. Default DefaultLabel.
	Label string
	// Now supplies the date embedded in the file name. Default time.Now.
	Now func() time.Time
}

func (o Options) sheet() string {
	if o.Sheet == "" {
		return DefaultSheet
	}
	return o.Sheet
}

func (o Options) label() string {
	if o.Label == "" {
		return DefaultLabel
	}
	return o.Label
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now()
	}
	return o.Now()
}

// FileName returns "<label>_<yyyy-MM-dd>.xlsx" for the current date.
func (o Options) FileName() string {
	return fmt.Sprintf("%s_%s.xlsx", o.label(), o.now().Format(models.DateLayout))
}

// Encode writes records as a single-sheet workbook, one row per record in
// input order below a header row.
func Encode(w io.Writer, records []models.WorkRecord, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := opts.sheet()
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := styleHeader(f, sheet); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}
		row := []any{
			r.Date.String(),
			r.Name,
			r.Company,
			r.Location,
			r.StartTime,
			r.EndTime,
			r.DayHours,
			r.NightHours,
			r.LateNightHours,
			r.ExtraAmount,
			r.Memo,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func styleHeader(f *excelize.File, sheet string) error {
	last, err := excelize.CoordinatesToCellName(len(Columns), 1)
	if err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	lastCol := last[:len(last)-1]
	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// WriteFile encodes records into dir under opts.FileName and returns the
// path. The workbook is written to a temporary file first, so a failed
// export leaves nothing behind.
func WriteFile(dir string, records []models.WorkRecord, opts Options) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*.xlsx")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Encode(tmp, records, opts); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to flush export: %w", err)
	}

	path := filepath.Join(dir, opts.FileName())
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return path, nil
}

// Decode reads a workbook produced by Encode back into records. ID,
// UserID and CreatedAt are not exported and stay empty.
func Decode(r io.Reader, opts Options) ([]models.WorkRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(opts.sheet(), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrBadWorkbook)
	}
	for i, c := range Columns {
		if i >= len(rows[0]) || rows[0][i] != c {
			return nil, fmt.Errorf("%w: column %d is not %s", ErrBadWorkbook, i+1, c)
		}
	}

	records := make([]models.WorkRecord, 0, len(rows)-1)
	for n, row := range rows[1:] {
		// GetRows drops trailing empty cells.
		for len(row) < len(Columns) {
			row = append(row, "")
		}
		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrBadWorkbook, n+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRow(row []string) (models.WorkRecord, error) {
	date, err := models.ParseDate(row[0])
	if err != nil {
		return models.WorkRecord{}, err
	}
	var hours [3]float64
	for i := range hours {
		if hours[i], err = parseFloat(row[6+i]); err != nil {
			return models.WorkRecord{}, err
		}
	}
	amount, err := parseInt(row[9])
	if err != nil {
		return models.WorkRecord{}, err
	}
	return models.WorkRecord{
		Date:           date,
		Name:           row[1],
		Company:        row[2],
		Location:       row[3],
		StartTime:      row[4],
		EndTime:        row[5],
		DayHours:       hours[0],
		NightHours:     hours[1],
		LateNightHours: hours[2],
		ExtraAmount:    amount,
		Memo:           row[10],
	}, nil
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseInt rejects fractional amounts. Values beyond 2^53 survive only in
// workbooks written here; spreadsheet apps store every number as a double.
func parseInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q is not a whole number", s)
	}
	return n, nil
}
