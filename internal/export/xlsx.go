// Package export writes an enhanced document as an .xlsx study sheet, one
// row per section.
package export

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dicttr/dicttr-go/internal/document"
)

const sheet = "Documento"

// WriteStudySheet saves the document to path as a spreadsheet. Column A is
// the section type, B the main content, C type-specific detail (list items,
// concept examples, key concepts).
func WriteStudySheet(doc *document.Document, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}

	set := func(cell string, value any) {
		_ = f.SetCellValue(sheet, cell, value)
	}

	set("A1", "Título")
	set("B1", doc.Title)
	set("A2", "Resumen")
	set("B2", doc.Summary)
	set("A3", "Conceptos clave")
	set("B3", strings.Join(doc.KeyConcepts, ", "))

	set("A5", "Tipo")
	set("B5", "Contenido")
	set("C5", "Detalle")

	row := 6
	for _, s := range doc.Sections {
		set(fmt.Sprintf("A%d", row), string(s.Type))
		switch s.Type {
		case document.SectionHeading:
			set(fmt.Sprintf("B%d", row), s.Content)
			set(fmt.Sprintf("C%d", row), fmt.Sprintf("nivel %d", s.Level))
		case document.SectionList:
			set(fmt.Sprintf("B%d", row), strings.Join(s.Items, "\n"))
			set(fmt.Sprintf("C%d", row), s.Style)
		case document.SectionConcept:
			set(fmt.Sprintf("B%d", row), s.Term+": "+s.Definition)
			set(fmt.Sprintf("C%d", row), strings.Join(s.Examples, "; "))
		case document.SectionKeyConcepts:
			set(fmt.Sprintf("B%d", row), strings.Join(s.Concepts, ", "))
		default:
			set(fmt.Sprintf("B%d", row), s.Content)
			if s.Speaker != "" {
				set(fmt.Sprintf("C%d", row), s.Speaker)
			}
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
