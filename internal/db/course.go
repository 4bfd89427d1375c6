package db

import (
	"context"
	"database/sql"

	"github.com/campus-apps/coursebook/internal/models"
)

func CreateCourse(ctx context.Context, database *sql.DB, c models.Course) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO courses (code, name, semester, year)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		c.Code, c.Name, c.Semester, c.Year).Scan(&id)
	return id, err
}

func GetCourse(ctx context.Context, database *sql.DB, id int64) (*models.Course, error) {
	var c models.Course
	err := database.QueryRowContext(ctx, `
		SELECT id, code, name, semester, year FROM courses WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.Semester, &c.Year)
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// EnsureCourse — idempotent seed for single-course deployments.
func EnsureCourse(ctx context.Context, database *sql.DB, c models.Course) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO courses (code, name, semester, year)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (code, semester, year) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		c.Code, c.Name, c.Semester, c.Year).Scan(&id)
	return id, err
}
