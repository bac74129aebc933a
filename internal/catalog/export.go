package catalog

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExportLabels holds the localized sheet names and headers of the workbook.
type ExportLabels struct {
	CategoriesSheet string
	ProductsSheet   string
	ID              string
	Name            string
	Price           string
	Category        string
	Image           string
	UnknownCategory string
}

// ExportXLSX writes a workbook with one sheet per collection to w.
func ExportXLSX(w io.Writer, labels ExportLabels, categories []Category, products []Product) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", labels.CategoriesSheet); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	if _, err := f.NewSheet(labels.ProductsSheet); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	priceStyle, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}

	sw, err := f.NewStreamWriter(labels.CategoriesSheet)
	if err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	if err := sw.SetRow("A1", []interface{}{labels.ID, labels.Name}); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	for i, c := range categories {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, []interface{}{c.ID, c.Name}); err != nil {
			return fmt.Errorf("catalog: export: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}

	names := CategoryNames(categories)
	sw, err = f.NewStreamWriter(labels.ProductsSheet)
	if err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	header := []interface{}{labels.ID, labels.Name, labels.Price, labels.Category, labels.Image}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}
	for i, p := range products {
		category, ok := names[p.CategoryID]
		if !ok {
			category = labels.UnknownCategory
		}
		row := []interface{}{
			p.ID,
			p.Name,
			excelize.Cell{StyleID: priceStyle, Value: p.Price.InexactFloat64()},
			category,
			exportImage(p.Image),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("catalog: export: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("catalog: export: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("catalog: export: write workbook: %w", err)
	}
	return nil
}

const maxCellChars = 32767

// Inline data URLs are omitted; they can exceed the cell size limit.
func exportImage(image string) string {
	if strings.HasPrefix(image, "data:") || len(image) > maxCellChars {
		return ""
	}
	return image
}
