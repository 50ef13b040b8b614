// Package transferexport renders transfer history as an xlsx workbook.
package transferexport

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/go-petr/pet-ledger/internal/domain"
)

// SheetName is the name of the only sheet in the workbook.
const SheetName = "Transfers"

// ContentType is the media type of the written workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var header = []any{"Date", "Amount", "Source Account", "Destination Account"}

// Build returns a workbook with a header row and one row per transfer, in the given order.
//
// The caller owns the returned file and must Close it.
func Build(transfers []domain.Transfer) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, t := range transfers {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, err
		}

		// Amounts are written as text so the sheet carries the ledger value digit for digit.
		row := []any{
			t.CreatedAt,
			t.Amount.String(),
			t.SourceAccountID,
			t.DestAccountID,
		}

		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("write transfer %d: %w", t.ID, err)
		}
	}

	return f, nil
}

// Write encodes the workbook for transfers into w.
func Write(w io.Writer, transfers []domain.Transfer) error {
	f, err := Build(transfers)
	if err != nil {
		return err
	}
	defer f.Close()

	return f.Write(w)
}
