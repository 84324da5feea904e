package menus

import (
	"fmt"
	"io"
	"strings"

	"MenuAPI/internal/v0/dishes"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Menu"

// WriteXLSX writes a one-sheet workbook with a row per weekday and a column
// per template category, followed by the evening snacks.
func WriteXLSX(w io.Writer, title string, days []ResolvedDay) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return err
	}

	header := []interface{}{"Day"}
	for _, c := range TemplateColumns {
		header = append(header, columnTitle(c))
	}
	header = append(header, "Evening snacks")
	lastCol, err := excelize.ColumnNumberToName(len(header))
	if err != nil {
		return err
	}

	if err := f.SetCellValue(exportSheet, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(exportSheet, "A1", lastCol+"1"); err != nil {
		return err
	}
	if err := f.SetSheetRow(exportSheet, "A2", &header); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"2", bold); err != nil {
		return err
	}

	for i, d := range days {
		row := []interface{}{d.Label}
		byCategory := make(map[dishes.Category]string, len(d.Dishes))
		for _, dish := range d.Dishes {
			byCategory[dish.Category] = dish.Name
		}
		for j, c := range TemplateColumns {
			switch {
			case d.IsHoliday && j == 0:
				row = append(row, "Holiday")
			default:
				row = append(row, byCategory[c])
			}
		}
		snacks := make([]string, 0, len(d.EveningSnacks))
		for _, s := range d.EveningSnacks {
			snacks = append(snacks, s.Name)
		}
		row = append(row, strings.Join(snacks, ", "))

		cell, err := excelize.CoordinatesToCellName(1, i+3)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(exportSheet, "A", lastCol, 20); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func columnTitle(c dishes.Category) string {
	s := string(c)
	return strings.ToUpper(s[:1]) + s[1:]
}
