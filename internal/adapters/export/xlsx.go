// Package export writes leaderboards as spreadsheet workbooks, the format the
// competition desk keeps its score sheets in.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/yogascore/internal/domain/model"
	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on worksheet name length.
const maxSheetName = 31

// ErrNoSheets is returned when there is nothing to export.
var ErrNoSheets = errors.New("export: no leaderboards to write")

// Board is one event's leaderboard.
type Board struct {
	Event   model.Event
	Entries []model.LeaderboardEntry
}

var header = []any{"Rank", "Registration No", "Athlete", "Final Score"}

// WriteXLSX writes one worksheet per board to w.
func WriteXLSX(w io.Writer, boards []Board) error {
	if len(boards) == 0 {
		return ErrNoSheets
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	scoreStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: ptr("0.0")})
	if err != nil {
		return fmt.Errorf("export: score style: %w", err)
	}
	headStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("export: header style: %w", err)
	}

	used := make(map[string]bool)
	for i, b := range boards {
		name := SheetName(b.Event, used)
		used[strings.ToLower(name)] = true
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("export: rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("export: new sheet %q: %w", name, err)
		}
		if err := writeBoard(f, name, b.Entries, headStyle, scoreStyle); err != nil {
			return fmt.Errorf("export: sheet %q: %w", name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func writeBoard(f *excelize.File, sheet string, entries []model.LeaderboardEntry, headStyle, scoreStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", "D1", headStyle); err != nil {
		return err
	}
	for i, e := range entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{e.Rank, e.RegistrationNo, e.AthleteName, e.FinalScore}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(entries) > 0 {
		last := fmt.Sprintf("D%d", len(entries)+1)
		if err := f.SetCellStyle(sheet, "D2", last, scoreStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "B", "C", 24)
}

// SheetName derives a unique worksheet name for an event. Characters Excel
// forbids are replaced and the name is cut to 31 characters. Excel compares
// sheet names case-insensitively, so used is keyed by lower-cased name.
func SheetName(e model.Event, used map[string]bool) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(e.Name))
	if name == "" {
		name = fmt.Sprintf("Event %d", e.ID)
	}
	name = truncate(name, maxSheetName)
	if used[strings.ToLower(name)] {
		suffix := fmt.Sprintf(" (%d)", e.ID)
		name = truncate(name, maxSheetName-len(suffix)) + suffix
	}
	return name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func ptr[T any](v T) *T { return &v }
