package db

import (
	"context"
	"database/sql"

	"github.com/campus-apps/coursebook/internal/models"
)

// EnrollStudent adds a course membership and backfills one grade cell per
// existing assignment, all in one transaction. The course row is locked
// first so a concurrent assignment fan-out on the same course cannot
// interleave and skip a cell. Safe to retry: the student upsert and the
// (student_id, assignment_id) unique index make replays no-ops.
func EnrollStudent(ctx context.Context, database *sql.DB, courseID, userID int64) (int64, int64, error) {
	tx, err := database.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := lockCourse(ctx, tx, courseID); err != nil {
		return 0, 0, err
	}

	var studentID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO students (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`,
		courseID, userID).Scan(&studentID)
	if err != nil {
		return 0, 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO grade_cells (student_id, assignment_id)
		SELECT $1, a.id FROM assignments a WHERE a.course_id = $2
		ON CONFLICT (student_id, assignment_id) DO NOTHING`,
		studentID, courseID)
	if err != nil {
		return 0, 0, err
	}
	created, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return studentID, created, nil
}

// ListRoster — students of a course ordered by surname, for selection UIs.
func ListRoster(ctx context.Context, database *sql.DB, courseID int64) ([]models.RosterEntry, error) {
	rows, err := database.QueryContext(ctx, `
		SELECT s.id, u.first_name, u.last_name
		FROM students s
		JOIN users u ON u.id = s.user_id
		WHERE s.course_id = $1
		ORDER BY u.last_name, u.first_name`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []models.RosterEntry
	for rows.Next() {
		var e models.RosterEntry
		if err := rows.Scan(&e.StudentID, &e.FirstName, &e.LastName); err != nil {
			return nil, err
		}
		roster = append(roster, e)
	}
	return roster, rows.Err()
}

func GetStudent(ctx context.Context, database *sql.DB, studentID int64) (*models.Student, error) {
	var s models.Student
	err := database.QueryRowContext(ctx, `
		SELECT id, course_id, user_id FROM students WHERE id = $1`, studentID).
		Scan(&s.ID, &s.CourseID, &s.UserID)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

func lockCourse(ctx context.Context, tx *sql.Tx, courseID int64) error {
	var id int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM courses WHERE id = $1 FOR UPDATE`, courseID).Scan(&id)
	return notFound(err)
}
