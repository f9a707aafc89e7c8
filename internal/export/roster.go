package export

import (
	"fmt"
	"io"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/xuri/excelize/v2"
)

const (
	GroupsSheet  = "Groups"
	MembersSheet = "Members"
)

var (
	groupsHeader  = []any{"Group ID", "Group", "Members", "Access today", "Entered"}
	membersHeader = []any{"Member ID", "Name", "Group", "Access today", "Entered"}
)

// Roster writes an XLSX workbook with a group summary sheet and a member
// sheet. Members are listed per group in display order.
func Roster(w io.Writer, groups []member.Group) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", GroupsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(MembersSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	groupRows := [][]any{groupsHeader}
	memberRows := [][]any{membersHeader}
	for _, g := range groups {
		groupRows = append(groupRows, []any{g.ID.String(), g.Name, g.MembersCount, g.AccessToday, g.Entered})
		for _, m := range member.SortForDisplay(g.Members) {
			memberRows = append(memberRows, []any{m.ID.String(), m.Name, g.Name, yesNo(m.HasAccessToday), yesNo(m.EnteredToday)})
		}
	}

	if err := writeSheet(f, GroupsSheet, groupRows, bold); err != nil {
		return err
	}
	if err := writeSheet(f, MembersSheet, memberRows, bold); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing roster: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if err := f.SetCellStyle(sheet, "A1", "E1", headerStyle); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", "C", 24)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
