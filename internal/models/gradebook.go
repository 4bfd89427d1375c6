package models

import "time"

type Assignment struct {
	ID       int64      `db:"id"`
	CourseID int64      `db:"course_id"`
	Name     string     `db:"name"`
	OutOf    float64    `db:"out_of"`
	Weight   float64    `db:"weight"`
	Due      *time.Time `db:"due"`
}

// GradeCell is the unique record of one student's score on one assignment.
// Value == nil means the cell exists but has not been graded yet.
type GradeCell struct {
	ID           int64    `db:"id"`
	StudentID    int64    `db:"student_id"`
	AssignmentID int64    `db:"assignment_id"`
	Value        *float64 `db:"value"`
}

type Regrade struct {
	ID          int64     `db:"id"`
	GradeCellID int64     `db:"grade_cell_id"`
	Reason      string    `db:"reason"`
	Resolved    bool      `db:"resolved"`
	CreatedAt   time.Time `db:"created_at"`
}

// CellRow is a gradebook line as read back for display: the cell joined
// with its assignment.
type CellRow struct {
	GradeCellID    int64      `db:"grade_cell_id"`
	AssignmentID   int64      `db:"assignment_id"`
	AssignmentName string     `db:"assignment_name"`
	OutOf          float64    `db:"out_of"`
	Weight         float64    `db:"weight"`
	Due            *time.Time `db:"due"`
	Value          *float64   `db:"value"`
}

type RosterEntry struct {
	StudentID int64  `db:"student_id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
}

// RegradeRow is a dispute as an instructor reviews it: request plus the
// student and assignment it concerns.
type RegradeRow struct {
	RegradeID      int64    `db:"regrade_id"`
	GradeCellID    int64    `db:"grade_cell_id"`
	Resolved       bool     `db:"resolved"`
	StudentID      int64    `db:"student_id"`
	StudentFirst   string   `db:"student_first"`
	StudentLast    string   `db:"student_last"`
	AssignmentName string   `db:"assignment_name"`
	OutOf          float64  `db:"out_of"`
	Weight         float64  `db:"weight"`
	Value          *float64 `db:"value"`
	Reason         string   `db:"reason"`
}
