package export

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/gradebook"
	"github.com/campus-apps/coursebook/internal/models"
)

const sheetName = "Gradebook"

// BuildCourseWorkbook renders the full course gradebook: one row per
// student (roster order), one column per assignment, then the two summary
// figures. Ungraded cells render empty.
func BuildCourseWorkbook(ctx context.Context, database *sql.DB, courseID int64) (*excelize.File, error) {
	roster, err := db.ListRoster(ctx, database, courseID)
	if err != nil {
		return nil, err
	}
	asmts, err := db.ListAssignments(ctx, database, courseID, "")
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := []string{"Student"}
	for _, a := range asmts {
		header = append(header, fmt.Sprintf("%s (/%s, w %s)", a.Name, trimFloat(a.OutOf), trimFloat(a.Weight)))
	}
	header = append(header, "Average %", "Weighted mark")
	for col, h := range header {
		if err := f.SetCellStr(sheetName, cellRef(col+1, 1), h); err != nil {
			return nil, err
		}
	}

	for i, st := range roster {
		row := i + 2
		name := st.LastName + ", " + st.FirstName
		if err := f.SetCellStr(sheetName, cellRef(1, row), name); err != nil {
			return nil, err
		}

		cells, err := db.StudentCells(ctx, database, st.StudentID)
		if err != nil {
			return nil, err
		}
		// StudentCells and ListAssignments share the by-name order, so
		// columns line up.
		scores := make([]gradebook.CellScore, 0, len(cells))
		for j, c := range cells {
			scores = append(scores, gradebook.CellScore{Value: c.Value, OutOf: c.OutOf, Weight: c.Weight})
			if c.Value == nil {
				continue
			}
			if err := f.SetCellFloat(sheetName, cellRef(j+2, row), *c.Value, 2, 64); err != nil {
				return nil, err
			}
		}
		summary, err := gradebook.ComputeSummary(scores)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellFloat(sheetName, cellRef(len(asmts)+2, row), summary.AveragePercent, 2, 64); err != nil {
			return nil, err
		}
		if err := f.SetCellFloat(sheetName, cellRef(len(asmts)+3, row), summary.WeightedMark, 2, 64); err != nil {
			return nil, err
		}
	}

	if err := applyFormatting(f, len(header), len(roster)+1); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// BuildCourseFilename — human-readable, filesystem-safe.
func BuildCourseFilename(c models.Course) string {
	base := fmt.Sprintf("Gradebook — %s %s %s.xlsx", c.Code, c.Semester, c.Year)
	return sanitizeFileName(base)
}

// bold header, auto-filter, heuristic column widths
func applyFormatting(f *excelize.File, cols, rows int) error {
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		if err := f.SetCellStyle(sheetName, "A1", cellRef(cols, 1), style); err != nil {
			return err
		}
	}
	_ = f.AutoFilter(sheetName, "A1:"+cellRef(cols, 1), nil)

	all, err := f.GetRows(sheetName)
	if err != nil {
		return err
	}
	for c := 1; c <= cols; c++ {
		w := 10.0
		for r := 0; r < minim(50, len(all)); r++ {
			if c-1 < len(all[r]) {
				if l := float64(len(all[r][c-1])) * 1.1; l > w {
					w = l
				}
			}
		}
		if w > 40 {
			w = 40
		}
		col := colName(c)
		if err := f.SetColWidth(sheetName, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// helpers
func colName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

func cellRef(col, row int) string {
	return colName(col) + strconv.Itoa(row)
}

func minim(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}
