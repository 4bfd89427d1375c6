package db

import (
	"context"
	"database/sql"

	"github.com/campus-apps/coursebook/internal/models"
)

// InsertRegrade creates an open request. Several open requests on the same
// cell are allowed; instructors see the multiplicity via OpenDisputeCounts.
func InsertRegrade(ctx context.Context, database *sql.DB, cellID int64, reason string) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO regrades (grade_cell_id, reason)
		VALUES ($1, $2)
		RETURNING id`, cellID, reason).Scan(&id)
	return id, err
}

// ToggleRegrade flips resolved and reports the new value. Locks the row so
// two concurrent toggles serialize instead of both reading the old state.
func ToggleRegrade(ctx context.Context, database *sql.DB, requestID int64) (bool, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var resolved bool
	err = tx.QueryRowContext(ctx, `
		SELECT resolved FROM regrades WHERE id = $1 FOR UPDATE`, requestID).Scan(&resolved)
	if err != nil {
		return false, notFound(err)
	}

	resolved = !resolved
	if _, err := tx.ExecContext(ctx, `
		UPDATE regrades SET resolved = $1 WHERE id = $2`, resolved, requestID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return resolved, nil
}

// OpenDisputeCounts — unresolved requests per cell for one student's book.
func OpenDisputeCounts(ctx context.Context, database *sql.DB, studentID int64) (map[int64]int, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT r.grade_cell_id, count(*)
		FROM regrades r
		JOIN grade_cells g ON g.id = r.grade_cell_id
		WHERE g.student_id = $1 AND NOT r.resolved
		GROUP BY r.grade_cell_id`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var cellID int64
		var n int
		if err := rows.Scan(&cellID, &n); err != nil {
			return nil, err
		}
		counts[cellID] = n
	}
	return counts, rows.Err()
}

// ListRegradesByTeacher — every request on a course the teacher record
// belongs to, unresolved first, then by assignment name.
func ListRegradesByTeacher(ctx context.Context, database *sql.DB, teacherID int64) ([]models.RegradeRow, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT r.id, g.id, r.resolved, s.id, su.first_name, su.last_name,
		       a.name, a.out_of, a.weight, g.value, r.reason
		FROM regrades r
		JOIN grade_cells g ON g.id = r.grade_cell_id
		JOIN students s ON s.id = g.student_id
		JOIN assignments a ON a.id = g.assignment_id
		JOIN teachers t ON t.course_id = s.course_id
		JOIN users su ON su.id = s.user_id
		WHERE t.id = $1
		ORDER BY r.resolved, a.name, r.id`, teacherID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.RegradeRow
	for rows.Next() {
		var rr models.RegradeRow
		if err := rows.Scan(&rr.RegradeID, &rr.GradeCellID, &rr.Resolved, &rr.StudentID,
			&rr.StudentFirst, &rr.StudentLast, &rr.AssignmentName, &rr.OutOf,
			&rr.Weight, &rr.Value, &rr.Reason); err != nil {
			return nil, err
		}
		out = append(out, rr)
	}
	return out, rows.Err()
}

// CountOpenRegrades backs the backlog gauge refreshed by the jobs runner.
func CountOpenRegrades(ctx context.Context, database *sql.DB) (int64, error) {
	var n int64
	err := database.QueryRowContext(ctx, `
		SELECT count(*) FROM regrades WHERE NOT resolved`).Scan(&n)
	return n, err
}
