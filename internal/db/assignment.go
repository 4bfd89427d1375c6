package db

import (
	"context"
	"database/sql"
	"strings"

	"github.com/campus-apps/coursebook/internal/models"
)

// CreateAssignment inserts the assignment and backfills one grade cell per
// enrolled student in the same transaction, mirroring EnrollStudent. A
// duplicate (course_id, name) surfaces as a unique violation; no cells are
// created in that case because the whole transaction rolls back.
func CreateAssignment(ctx context.Context, database *sql.DB, a models.Assignment) (int64, int64, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockCourse(ctx, tx, a.CourseID); err != nil {
		return 0, 0, err
	}

	var asmtID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO assignments (course_id, name, out_of, weight, due)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		a.CourseID, a.Name, a.OutOf, a.Weight, a.Due).Scan(&asmtID)
	if err != nil {
		return 0, 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO grade_cells (student_id, assignment_id)
		SELECT s.id, $1 FROM students s WHERE s.course_id = $2
		ON CONFLICT (student_id, assignment_id) DO NOTHING`,
		asmtID, a.CourseID)
	if err != nil {
		return 0, 0, err
	}
	created, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return asmtID, created, nil
}

// ListAssignments — instructors see everything; students only entries whose
// name begins with the given prefix (course policy: drafts and exams are
// named outside the "Assignment" prefix).
func ListAssignments(ctx context.Context, database *sql.DB, courseID int64, studentPrefix string) ([]models.Assignment, error) {
	q := `
		SELECT id, course_id, name, out_of, weight, due
		FROM assignments
		WHERE course_id = $1`
	args := []any{courseID}
	if studentPrefix != "" {
		q += ` AND name LIKE $2`
		args = append(args, escapeLike(studentPrefix)+"%")
	}
	q += ` ORDER BY name`

	rows, err := database.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var asmts []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ID, &a.CourseID, &a.Name, &a.OutOf, &a.Weight, &a.Due); err != nil {
			return nil, err
		}
		asmts = append(asmts, a)
	}
	return asmts, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
