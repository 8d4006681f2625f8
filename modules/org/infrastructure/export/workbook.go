// Package export writes planning reports as spreadsheets.
package export

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/orgplan/modules/org/presentation/viewmodels"
	territory "github.com/iota-uz/orgplan/modules/territory/services"
)

const (
	HierarchySheet  = "Hierarchy"
	AllocationSheet = "Allocation"
)

// SkippedNote is written to the allocation sheet when nothing had weight.
const SkippedNote = "Allocation skipped: no validated capacity to weight by"

// WriteWorkbook writes the hierarchy rows and, when alloc is not nil, the
// allocation result as an xlsx workbook.
func WriteWorkbook(w io.Writer, tree *viewmodels.OrgTree, alloc *territory.Result) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), HierarchySheet); err != nil {
		return errors.Wrap(err, "rename sheet")
	}
	if err := writeHierarchy(f, tree); err != nil {
		return err
	}
	if alloc != nil {
		if _, err := f.NewSheet(AllocationSheet); err != nil {
			return errors.Wrap(err, "add allocation sheet")
		}
		if err := writeAllocation(f, alloc); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return errors.Wrap(err, "write workbook")
	}
	return nil
}

func writeHierarchy(f *excelize.File, tree *viewmodels.OrgTree) error {
	header := []interface{}{"ID", "Role", "Name", "Person", "Subtitle", "Headcount", "Validated", "Target", "Expected"}
	if tree != nil && tree.ShowAlternate {
		header = append(header, "Expected (alternate)")
	}
	if err := f.SetSheetRow(HierarchySheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write hierarchy header")
	}
	if err := f.SetColWidth(HierarchySheet, "C", "E", 28); err != nil {
		return errors.Wrap(err, "size hierarchy columns")
	}
	if tree == nil {
		return nil
	}

	indents := map[int]int{}
	for i, r := range tree.Rows {
		row := []interface{}{r.ID, r.Role, r.Name, r.Person, r.Subtitle, r.Headcount, r.Validated, r.Target, r.Expected}
		if tree.ShowAlternate {
			row = append(row, r.AlternateExpected)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "hierarchy cell")
		}
		if err := f.SetSheetRow(HierarchySheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write hierarchy row %s", r.ID)
		}

		if r.Depth == 0 {
			continue
		}
		style, ok := indents[r.Depth]
		if !ok {
			style, err = f.NewStyle(&excelize.Style{Alignment: &excelize.Alignment{Indent: r.Depth}})
			if err != nil {
				return errors.Wrap(err, "indent style")
			}
			indents[r.Depth] = style
		}
		nameCell, _ := excelize.CoordinatesToCellName(3, i+2)
		if err := f.SetCellStyle(HierarchySheet, nameCell, nameCell, style); err != nil {
			return errors.Wrap(err, "indent name")
		}
	}
	return nil
}

func writeAllocation(f *excelize.File, alloc *territory.Result) error {
	if !alloc.Allocated() {
		if err := f.SetCellValue(AllocationSheet, "A1", SkippedNote); err != nil {
			return errors.Wrap(err, "write skipped note")
		}
		return nil
	}
	header := []interface{}{"Key", "Name", "Units", "Budget"}
	if err := f.SetSheetRow(AllocationSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "write allocation header")
	}
	for i, a := range alloc.Allocations {
		row := []interface{}{a.Key, a.Name, a.Units, a.Budget}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.Wrap(err, "allocation cell")
		}
		if err := f.SetSheetRow(AllocationSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "write allocation row %s", a.Key)
		}
	}
	total := []interface{}{"Total", "", alloc.Units, alloc.Budget}
	cell, _ := excelize.CoordinatesToCellName(1, len(alloc.Allocations)+2)
	if err := f.SetSheetRow(AllocationSheet, cell, &total); err != nil {
		return errors.Wrap(err, "write allocation total")
	}
	return nil
}
