package gradebook

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campus-apps/coursebook/internal/ctxutil"
	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/metrics"
	"github.com/campus-apps/coursebook/internal/models"
	"github.com/campus-apps/coursebook/internal/observability"
)

// Notifier is told about new regrade requests. Implementations must not
// block on network calls; the telegram notifier sends from its own goroutine.
type Notifier interface {
	RegradeSubmitted(ctx context.Context, n RegradeNotice)
}

type RegradeNotice struct {
	RequestID   int64
	GradeCellID int64
	Reason      string
}

// Gradebook is one student's view: every cell of the course (graded or
// not) ordered by assignment name, plus the aggregate summary.
type Gradebook struct {
	Cells   []models.CellRow
	Summary Summary
}

// InstructorGradebook adds the open-dispute multiplicity per cell.
type InstructorGradebook struct {
	Gradebook
	OpenDisputes map[int64]int
}

type Service struct {
	db       *sql.DB
	log      *zap.SugaredLogger
	notifier Notifier
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func New(database *sql.DB, log *zap.SugaredLogger, opts ...Option) *Service {
	s := &Service{db: database, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// EnrollStudent registers userID on the course and backfills grade cells
// for every existing assignment. Calling twice returns the same student id
// and creates nothing new.
func (s *Service) EnrollStudent(ctx context.Context, courseID, userID int64) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "enroll_student"))
	defer cancel()

	studentID, created, err := db.EnrollStudent(ctx, s.db, courseID, userID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, ErrUnknownCourse
		}
		return 0, s.txFailed(ctx, err)
	}
	metrics.FanoutCells.Add(float64(created))
	s.log.Infow("student enrolled", "course_id", courseID, "student_id", studentID, "cells_created", created)
	return studentID, nil
}

// CreateAssignment adds the assignment and backfills grade cells for every
// enrolled student. A name already used in the course fails with
// ErrDuplicateAssignment and leaves the gradebook untouched.
func (s *Service) CreateAssignment(ctx context.Context, courseID int64, name string, outOf, weight float64, due *time.Time) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "create_assignment"))
	defer cancel()

	if outOf <= 0 {
		return 0, ErrInvalidOutOf
	}
	asmtID, created, err := db.CreateAssignment(ctx, s.db, models.Assignment{
		CourseID: courseID, Name: name, OutOf: outOf, Weight: weight, Due: due,
	})
	if err != nil {
		if db.IsUniqueViolation(err) {
			return 0, ErrDuplicateAssignment
		}
		if errors.Is(err, db.ErrNotFound) {
			return 0, ErrUnknownCourse
		}
		return 0, s.txFailed(ctx, err)
	}
	metrics.FanoutCells.Add(float64(created))
	s.log.Infow("assignment created", "course_id", courseID, "assignment_id", asmtID, "name", name, "cells_created", created)
	return asmtID, nil
}

// EditGrade is the only mutator of a cell's value. The new value must lie
// in [0, outOf] of the cell's assignment.
func (s *Service) EditGrade(ctx context.Context, cellID int64, newValue float64) error {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "edit_grade"))
	defer cancel()

	outOf, err := db.CellOutOf(ctx, s.db, cellID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUnknownGradeCell
		}
		return s.opFailed(ctx, err)
	}
	if newValue < 0 || newValue > outOf {
		return ErrGradeOutOfRange
	}
	if err := db.SetGradeValue(ctx, s.db, cellID, newValue); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrUnknownGradeCell
		}
		return s.opFailed(ctx, err)
	}
	metrics.GradeEdits.Inc()
	s.log.Infow("grade edited", "grade_cell_id", cellID, "value", newValue)
	return nil
}

// SubmitRegrade opens a dispute on a cell. Duplicate open requests on the
// same cell are allowed on purpose.
func (s *Service) SubmitRegrade(ctx context.Context, cellID int64, reason string) (int64, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "submit_regrade"))
	defer cancel()

	if strings.TrimSpace(reason) == "" {
		return 0, ErrEmptyReason
	}
	if _, err := db.CellOutOf(ctx, s.db, cellID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return 0, ErrUnknownGradeCell
		}
		return 0, s.opFailed(ctx, err)
	}
	requestID, err := db.InsertRegrade(ctx, s.db, cellID, reason)
	if err != nil {
		return 0, s.opFailed(ctx, err)
	}
	metrics.RegradesSubmitted.Inc()
	s.log.Infow("regrade submitted", "request_id", requestID, "grade_cell_id", cellID)
	if s.notifier != nil {
		s.notifier.RegradeSubmitted(ctx, RegradeNotice{
			RequestID: requestID, GradeCellID: cellID, Reason: reason,
		})
	}
	return requestID, nil
}

// ToggleRegradeResolution flips the resolved flag and returns the new
// value. This is a toggle, not a set: calling it twice restores the
// original state, which is how instructors reopen a request.
func (s *Service) ToggleRegradeResolution(ctx context.Context, requestID int64) (bool, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "toggle_regrade"))
	defer cancel()

	resolved, err := db.ToggleRegrade(ctx, s.db, requestID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return false, ErrUnknownRequest
		}
		return false, s.opFailed(ctx, err)
	}
	metrics.RegradesToggled.Inc()
	s.log.Infow("regrade toggled", "request_id", requestID, "resolved", resolved)
	return resolved, nil
}

// StudentGradebook answers "view grades for student S".
func (s *Service) StudentGradebook(ctx context.Context, studentID int64) (*Gradebook, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "student_gradebook"))
	defer cancel()

	return s.gradebook(ctx, studentID)
}

// InstructorGradebook is the instructor read path: the same cells plus the
// open-dispute count per cell. The student must belong to courseID.
func (s *Service) InstructorGradebook(ctx context.Context, courseID, studentID int64) (*InstructorGradebook, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "instructor_gradebook"))
	defer cancel()

	st, err := db.GetStudent(ctx, s.db, studentID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrUnknownStudent
		}
		return nil, s.opFailed(ctx, err)
	}
	if st.CourseID != courseID {
		return nil, ErrUnknownStudent
	}

	gb, err := s.gradebook(ctx, studentID)
	if err != nil {
		return nil, err
	}
	counts, err := db.OpenDisputeCounts(ctx, s.db, studentID)
	if err != nil {
		return nil, s.opFailed(ctx, err)
	}
	return &InstructorGradebook{Gradebook: *gb, OpenDisputes: counts}, nil
}

// ListRoster — course students ordered by surname, for selection UIs.
func (s *Service) ListRoster(ctx context.Context, courseID int64) ([]models.RosterEntry, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "list_roster"))
	defer cancel()

	roster, err := db.ListRoster(ctx, s.db, courseID)
	if err != nil {
		return nil, s.opFailed(ctx, err)
	}
	return roster, nil
}

// ListOpenRegrades — every request on the teacher's course, unresolved
// first, then by assignment name.
func (s *Service) ListOpenRegrades(ctx context.Context, teacherID int64) ([]models.RegradeRow, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "list_regrades"))
	defer cancel()

	rows, err := db.ListRegradesByTeacher(ctx, s.db, teacherID)
	if err != nil {
		return nil, s.opFailed(ctx, err)
	}
	return rows, nil
}

// ListAssignments — student view filters to the "Assignment" name prefix,
// instructors see all.
func (s *Service) ListAssignments(ctx context.Context, courseID int64, instructorView bool) ([]models.Assignment, error) {
	ctx, cancel := ctxutil.WithDBTimeout(ctxutil.WithOp(ctx, "list_assignments"))
	defer cancel()

	prefix := "Assignment"
	if instructorView {
		prefix = ""
	}
	asmts, err := db.ListAssignments(ctx, s.db, courseID, prefix)
	if err != nil {
		return nil, s.opFailed(ctx, err)
	}
	return asmts, nil
}

func (s *Service) gradebook(ctx context.Context, studentID int64) (*Gradebook, error) {
	cells, err := db.StudentCells(ctx, s.db, studentID)
	if err != nil {
		return nil, s.opFailed(ctx, err)
	}
	scores := make([]CellScore, 0, len(cells))
	for _, c := range cells {
		scores = append(scores, CellScore{Value: c.Value, OutOf: c.OutOf, Weight: c.Weight})
	}
	summary, err := ComputeSummary(scores)
	if err != nil {
		return nil, err
	}
	return &Gradebook{Cells: cells, Summary: summary}, nil
}

func (s *Service) txFailed(ctx context.Context, err error) error {
	s.report(ctx, err)
	return fmt.Errorf("%w: %v", ErrTransactionFailed, err)
}

func (s *Service) opFailed(ctx context.Context, err error) error {
	s.report(ctx, err)
	return err
}

func (s *Service) report(ctx context.Context, err error) {
	op, _ := ctxutil.Op(ctx)
	metrics.OpError.WithLabelValues(op).Inc()
	observability.CaptureOpErr(op, err)
	s.log.Errorw("gradebook operation failed", "op", op, "err", err)
}
