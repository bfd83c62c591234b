package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const rosterSheet = "Mahasiswa"

var rosterHeader = []string{"Program Studi", "Angkatan", "NIM", "Nama", "Email"}

// ImportRoster reads an Excel workbook and registers one student per row.
// The first sheet is used and its first row is a header. Columns:
// A Nama, B Program Studi, C Angkatan, D Password. Rows that cannot be
// registered are logged and skipped. Programs from the code table that the
// store does not hold yet are opened, so an empty store can be seeded.
func (s *StudentService) ImportRoster(ctx context.Context, file io.Reader) (int, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		log.Printf("Error opening Excel reader: %v", err)
		return 0, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return 0, errors.New("excel file does not contain any sheets")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		log.Printf("Error getting rows from sheet '%s': %v", sheetName, err)
		return 0, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	importedCount := 0
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		cell := func(col int) string {
			if col < len(row) {
				return strings.TrimSpace(row[col])
			}
			return ""
		}

		name, program, yearText, password := cell(0), cell(1), cell(2), cell(3)
		if name == "" || program == "" || yearText == "" {
			log.Printf("Skipping row %d due to missing name, program or year", i+1)
			continue
		}
		year, err := strconv.Atoi(yearText)
		if err != nil {
			log.Printf("Skipping row %d: year %q is not a number", i+1, yearText)
			continue
		}

		st, err := s.register(ctx, Registration{Name: name, Program: program, Year: year, Password: password}, true)
		if err != nil {
			log.Printf("Error registering %s (row %d) during import: %v", name, i+1, err)
			continue
		}
		log.Printf("Imported %s as %s", name, st.ID)
		importedCount++
	}

	log.Printf("Successfully imported %d students from sheet %s", importedCount, sheetName)
	return importedCount, nil
}

// ExportRoster writes the full listing as a single-sheet workbook
func (s *StudentService) ExportRoster(w io.Writer) error {
	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Error closing excel file: %v", err)
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), rosterSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	for i, header := range rosterHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(rosterSheet, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	row := 2
	for _, p := range s.Listing() {
		for _, c := range p.Cohorts {
			for _, st := range c.Students {
				values := []interface{}{p.Name, c.Year, st.ID, st.Name, st.Email}
				cell, _ := excelize.CoordinatesToCellName(1, row)
				if err := f.SetSheetRow(rosterSheet, cell, &values); err != nil {
					return fmt.Errorf("failed to write row %d: %w", row, err)
				}
				row++
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write excel file: %w", err)
	}
	return nil
}
