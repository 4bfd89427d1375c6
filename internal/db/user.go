package db

import (
	"context"
	"database/sql"

	"github.com/campus-apps/coursebook/internal/models"
)

func CreateUser(ctx context.Context, database *sql.DB, u models.User) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO users (first_name, last_name, username, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		u.FirstName, u.LastName, u.Username, u.Email).Scan(&id)
	return id, err
}

func GetUser(ctx context.Context, database *sql.DB, id int64) (*models.User, error) {
	var u models.User
	err := database.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, username, email FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.Email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// AddTeacher registers an instructor on a course. Re-adding is a no-op.
func AddTeacher(ctx context.Context, database *sql.DB, courseID, userID int64) (int64, error) {
	var id int64
	err := database.QueryRowContext(ctx, `
		INSERT INTO teachers (course_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (course_id, user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id`,
		courseID, userID).Scan(&id)
	return id, err
}
