package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var excelHeaders = []string{
	"Bike Model", "Source", "Title", "Price", "Old Price",
	"Kilometers", "Location", "Condition", "URL", "Found", "Listing ID",
}

var excelColumnWidths = []float64{20, 12, 35, 14, 14, 14, 18, 12, 45, 18, 24}

// WriteExcel renders the Excel workbook: a summary sheet plus one sheet per
// source, price drops highlighted.
func (g *Generator) WriteExcel(data *Data) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"1A1A1A"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
	})
	if err != nil {
		return err
	}
	dropStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C8E6C9"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	if err := g.writeSummarySheet(f, data, headerStyle); err != nil {
		return err
	}

	for _, group := range data.BySource() {
		if err := g.writeSourceSheet(f, group, headerStyle, dropStyle); err != nil {
			return err
		}
	}

	if err := os.MkdirAll(filepath.Dir(g.ExcelPath), 0o755); err != nil {
		return err
	}
	if err := f.SaveAs(g.ExcelPath); err != nil {
		return fmt.Errorf("write excel report: %w", err)
	}

	g.logger.Info("excel report written",
		zap.String("path", g.ExcelPath),
		zap.Int("listings", len(data.Listings)))
	return nil
}

func (g *Generator) writeSummarySheet(f *excelize.File, data *Data, headerStyle int) error {
	const sheet = "Summary"
	// Rename the default sheet instead of leaving an empty Sheet1 behind
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	rows := [][]interface{}{
		{"Motorcycle Listings Tracker", ""},
		{"Total Listings", len(data.Listings)},
		{"Bikes Tracked", len(data.BikesTracked)},
		{"Sources", len(data.Sources())},
		{"Price Drops Detected", data.PriceDrops()},
		{"Last Updated", data.Timestamp()},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "B1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", "A", 26)
}

func (g *Generator) writeSourceSheet(f *excelize.File, group Group, headerStyle, dropStyle int) error {
	sheet := group.Name
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	header := make([]interface{}, len(excelHeaders))
	for i, h := range excelHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(excelHeaders))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetRowHeight(sheet, 1, 25); err != nil {
		return err
	}
	for i, width := range excelColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	for i, l := range group.Listings {
		rowNum := i + 2
		row := []interface{}{
			l.SearchTerm,
			l.Source,
			l.Title,
			l.Price,
			displayOldPrice(l),
			displayKilometers(l),
			displayLocation(l),
			func() string {
				if l.Condition != nil {
					return *l.Condition
				}
				return "N/A"
			}(),
			l.URL,
			l.FoundAt.Format("02/01/2006 15:04"),
			l.ID,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
		if l.PriceDrop {
			end, err := excelize.CoordinatesToCellName(len(excelHeaders), rowNum)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(sheet, cell, end, dropStyle); err != nil {
				return err
			}
		}
	}

	// Freeze the header row
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
