package models

type Course struct {
	ID       int64  `db:"id"`
	Code     string `db:"code"`
	Name     string `db:"name"`
	Semester string `db:"semester"`
	Year     string `db:"year"`
}
