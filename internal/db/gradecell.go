package db

import (
	"context"
	"database/sql"

	"github.com/campus-apps/coursebook/internal/models"
)

// CellOutOf returns the denominator of the assignment a cell belongs to.
// out_of never changes after creation, so reading it outside the update
// transaction is fine.
func CellOutOf(ctx context.Context, database *sql.DB, cellID int64) (float64, error) {
	var outOf float64
	err := database.QueryRowContext(ctx, `
		SELECT a.out_of
		FROM grade_cells g
		JOIN assignments a ON a.id = g.assignment_id
		WHERE g.id = $1`, cellID).Scan(&outOf)
	if err != nil {
		return 0, notFound(err)
	}
	return outOf, nil
}

func SetGradeValue(ctx context.Context, database *sql.DB, cellID int64, value float64) error {
	res, err := database.ExecContext(ctx, `
		UPDATE grade_cells SET value = $1 WHERE id = $2`, value, cellID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// StudentCells — every cell of a student joined with its assignment,
// ordered by assignment name. Ungraded cells come back with a nil value.
func StudentCells(ctx context.Context, database *sql.DB, studentID int64) ([]models.CellRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT g.id, a.id, a.name, a.out_of, a.weight, a.due, g.value
		FROM grade_cells g
		JOIN assignments a ON a.id = g.assignment_id
		WHERE g.student_id = $1
		ORDER BY a.name`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []models.CellRow
	for rows.Next() {
		var c models.CellRow
		if err := rows.Scan(&c.GradeCellID, &c.AssignmentID, &c.AssignmentName, &c.OutOf, &c.Weight, &c.Due, &c.Value); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}

// CountCells is used by consistency checks: the total must equal
// students × assignments for the course.
func CountCells(ctx context.Context, database *sql.DB, courseID int64) (int64, error) {
	var n int64
	err := database.QueryRowContext(ctx, `
		SELECT count(*)
		FROM grade_cells g
		JOIN students s ON s.id = g.student_id
		WHERE s.course_id = $1`, courseID).Scan(&n)
	return n, err
}
