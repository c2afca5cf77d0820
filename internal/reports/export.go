package reports

import (
	"context"
	"io"

	pkgerrors "github.com/labledger/labledger-backend/pkg/errors"
	"github.com/xuri/excelize/v2"
)

const auditSheet = "Audit"

var auditHeaders = []any{"ID", "Student ID", "Student Name", "Item", "Action", "Quantity", "Recorded At (UTC)"}

// ExportAuditXLSX writes the filtered audit log as a single-sheet workbook.
func ExportAuditXLSX(ctx context.Context, svc Service, q AuditQuery, w io.Writer) (int, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", auditSheet); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}
	sw, err := f.NewStreamWriter(auditSheet)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "prepare workbook")
	}
	if err := sw.SetRow("A1", auditHeaders); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write header row")
	}

	count := 0
	for row, err := range svc.AuditRows(ctx, q) {
		if err != nil {
			return 0, err
		}
		name := ""
		if row.StudentName != nil {
			name = *row.StudentName
		}
		cell, err := excelize.CoordinatesToCellName(1, count+2)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "address row")
		}
		values := []any{
			row.ID,
			row.StudentID,
			name,
			row.ItemName,
			string(row.Action),
			row.Quantity,
			row.RecordedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := sw.SetRow(cell, values); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write audit row")
		}
		count++
	}

	if err := sw.Flush(); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "flush workbook")
	}
	if err := f.Write(w); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write workbook")
	}
	return count, nil
}
