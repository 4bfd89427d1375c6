package models

type User struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Username  string `db:"username"`
	Email     string `db:"email"`
}

// Teacher is an instructor's membership in a course, not the person itself.
type Teacher struct {
	ID       int64 `db:"id"`
	CourseID int64 `db:"course_id"`
	UserID   int64 `db:"user_id"`
}

// Student is a person's enrollment in a course. One row per (course, person).
type Student struct {
	ID       int64 `db:"id"`
	CourseID int64 `db:"course_id"`
	UserID   int64 `db:"user_id"`
}
