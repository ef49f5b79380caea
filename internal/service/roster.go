package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"classroom/internal/repository"

	"github.com/xuri/excelize/v2"
)

const (
	rosterSheet      = "Roster"
	rosterDateLayout = "2006-01-02 15:04"
)

var rosterHeaders = []string{"Name", "Email", "Joined at"}

type RosterService struct {
	classrooms repository.Classrooms
}

func NewRosterService(classrooms repository.Classrooms) *RosterService {
	return &RosterService{classrooms: classrooms}
}

// ExportRoster writes the classroom's members as an XLSX workbook. Only the
// owner may export; anyone else gets ErrClassroomNotFound.
func (s *RosterService) ExportRoster(ctx context.Context, userID int, slug string, w io.Writer) error {
	c, err := s.classrooms.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
	if err != nil {
		return err
	}
	if c == nil || c.OwnerID != userID {
		return ErrClassroomNotFound
	}
	members, err := s.classrooms.ListMembers(ctx, c.ID)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", rosterSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for i, h := range rosterHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(rosterSheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
	}
	for i, m := range members {
		row := i + 2
		values := []any{m.Name, m.Email, m.JoinedAt.Format(rosterDateLayout)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(rosterSheet, cell, v); err != nil {
				return fmt.Errorf("write roster row %d: %w", row, err)
			}
		}
	}
	if err := f.SetColWidth(rosterSheet, "A", "C", 28); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook for %q: %w", c.Slug, err)
	}
	return nil
}
