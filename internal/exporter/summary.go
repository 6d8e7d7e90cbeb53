package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"marksheet/pkg/contracts/domain"
)

// SummaryExporter renders one student's result summary against the class
// averages as a printable artifact. It only reads published snapshot data;
// it never touches the dataset store directly.
type SummaryExporter struct {
	slots []string
}

// NewSummaryExporter creates an exporter over the canonical exam slot order.
func NewSummaryExporter(slots []string) *SummaryExporter {
	return &SummaryExporter{slots: append([]string(nil), slots...)}
}

const summarySheet = "Summary"

// WriteXLSX writes the summary workbook to w.
// Layout: a header block (name, rank, class size, total), then one row per
// exam slot with the student's mark next to the class average.
func (e *SummaryExporter) WriteXLSX(w io.Writer, rec domain.StudentRecord, avgs domain.Averages, classSize int) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), summarySheet)

	header := [][]interface{}{
		{"Student", rec.Name},
		{"Rank", fmt.Sprintf("%s of %d", formatRank(rec.Rank), classSize)},
		{"Total", formatMark(rec.Total)},
	}
	for i, row := range header {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("building header cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing header row: %w", err)
		}
	}

	tableStart := len(header) + 2
	columns := []interface{}{"Exam", "Mark", "Class Average"}
	cell, err := excelize.CoordinatesToCellName(1, tableStart)
	if err != nil {
		return fmt.Errorf("building table header cell: %w", err)
	}
	if err := f.SetSheetRow(summarySheet, cell, &columns); err != nil {
		return fmt.Errorf("writing table header: %w", err)
	}

	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		end, _ := excelize.CoordinatesToCellName(3, tableStart)
		f.SetCellStyle(summarySheet, cell, end, boldStyle)
	}

	for i, slot := range e.slots {
		row := []interface{}{slot, formatMark(rec.Marks[slot]), avgs[slot]}
		cell, err := excelize.CoordinatesToCellName(1, tableStart+1+i)
		if err != nil {
			return fmt.Errorf("building mark cell: %w", err)
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing mark row for %s: %w", slot, err)
		}
	}

	if err := f.SetColWidth(summarySheet, "A", "C", 18); err != nil {
		return fmt.Errorf("setting column widths: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// WriteCSV writes the summary as CSV to w, same content as the workbook.
func (e *SummaryExporter) WriteCSV(w io.Writer, rec domain.StudentRecord, avgs domain.Averages, classSize int) error {
	// UTF-8 BOM so Excel opens the file correctly.
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return fmt.Errorf("writing BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	rows := [][]string{
		{"Student", rec.Name},
		{"Rank", fmt.Sprintf("%s of %d", formatRank(rec.Rank), classSize)},
		{"Total", formatMark(rec.Total)},
		{},
		{"Exam", "Mark", "Class Average"},
	}
	for _, slot := range e.slots {
		rows = append(rows, []string{slot, formatMark(rec.Marks[slot]), avgs[slot]})
	}

	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
