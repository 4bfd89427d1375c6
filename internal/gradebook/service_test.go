//go:build testutil
// +build testutil

package gradebook_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/gradebook"
	"github.com/campus-apps/coursebook/internal/models"
	"github.com/campus-apps/coursebook/internal/testutil/testdb"
)

func startDB(t *testing.T) *testdb.DBHandle {
	t.Helper()
	h, err := testdb.Start(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(h.Close)
	return h
}

func mustCourse(t *testing.T, dbx *sql.DB) int64 {
	t.Helper()
	id, err := db.CreateCourse(context.Background(), dbx, models.Course{
		Code: "CSCB20", Name: "Databases and Web Apps", Semester: "Winter", Year: "2026",
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func mustUser(t *testing.T, dbx *sql.DB, first, last string) int64 {
	t.Helper()
	id, err := db.CreateUser(context.Background(), dbx, models.User{
		FirstName: first, LastName: last,
		Username: first + "." + last, Email: first + "." + last + "@example.edu",
	})
	if err != nil {
		t.Fatal(err)
	}
	return id
}

func newService(dbx *sql.DB) *gradebook.Service {
	return gradebook.New(dbx, zap.NewNop().Sugar())
}

func TestFanout_CrossProduct(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	const nStudents, nAsmts = 8, 6
	userIDs := make([]int64, nStudents)
	for i := range userIDs {
		userIDs[i] = mustUser(t, h.DB, fmt.Sprintf("First%d", i), fmt.Sprintf("Last%d", i))
	}

	// Enrollments and assignment creations race on purpose: the course-row
	// lock must serialize the fan-outs so no cell is skipped.
	var wg sync.WaitGroup
	for i := 0; i < nStudents; i++ {
		wg.Add(1)
		go func(uid int64) {
			defer wg.Done()
			if _, err := svc.EnrollStudent(ctx, courseID, uid); err != nil {
				t.Error(err)
			}
		}(userIDs[i])
	}
	for i := 0; i < nAsmts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := svc.CreateAssignment(ctx, courseID, fmt.Sprintf("Assignment %d", n), 100, 10, nil); err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	got, err := db.CountCells(ctx, h.DB, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if got != nStudents*nAsmts {
		t.Fatalf("cells after interleaved fan-out: got %d, want %d", got, nStudents*nAsmts)
	}

	// Re-enrolling is a no-op.
	if _, err := svc.EnrollStudent(ctx, courseID, userIDs[0]); err != nil {
		t.Fatal(err)
	}
	got, _ = db.CountCells(ctx, h.DB, courseID)
	if got != nStudents*nAsmts {
		t.Fatalf("cells after re-enroll: got %d, want %d", got, nStudents*nAsmts)
	}
}

func TestCreateAssignment_Duplicate(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	if _, err := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Ada", "Lovelace")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateAssignment(ctx, courseID, "Assignment 1", 10, 20, nil); err != nil {
		t.Fatal(err)
	}
	_, err := svc.CreateAssignment(ctx, courseID, "Assignment 1", 50, 80, nil)
	if !errors.Is(err, gradebook.ErrDuplicateAssignment) {
		t.Fatalf("got %v, want ErrDuplicateAssignment", err)
	}

	got, err := db.CountCells(ctx, h.DB, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Fatalf("duplicate must not create cells: got %d, want 1", got)
	}

	if _, err := svc.CreateAssignment(ctx, courseID, "Assignment 2", 0, 10, nil); !errors.Is(err, gradebook.ErrInvalidOutOf) {
		t.Fatalf("got %v, want ErrInvalidOutOf", err)
	}
}

func TestEditGrade(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	studentID, err := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Grace", "Hopper"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateAssignment(ctx, courseID, "Assignment 1", 10, 20, nil); err != nil {
		t.Fatal(err)
	}

	gb, err := svc.StudentGradebook(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(gb.Cells) != 1 || gb.Cells[0].Value != nil {
		t.Fatalf("expected one ungraded cell, got %+v", gb.Cells)
	}
	cellID := gb.Cells[0].GradeCellID

	if err := svc.EditGrade(ctx, cellID, 11); !errors.Is(err, gradebook.ErrGradeOutOfRange) {
		t.Fatalf("over out-of: got %v, want ErrGradeOutOfRange", err)
	}
	if err := svc.EditGrade(ctx, cellID, -1); !errors.Is(err, gradebook.ErrGradeOutOfRange) {
		t.Fatalf("negative: got %v, want ErrGradeOutOfRange", err)
	}
	if err := svc.EditGrade(ctx, cellID+999, 5); !errors.Is(err, gradebook.ErrUnknownGradeCell) {
		t.Fatalf("missing cell: got %v, want ErrUnknownGradeCell", err)
	}

	if err := svc.EditGrade(ctx, cellID, 8); err != nil {
		t.Fatal(err)
	}
	gb, err = svc.StudentGradebook(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if gb.Cells[0].Value == nil || *gb.Cells[0].Value != 8 {
		t.Fatalf("value after edit: %+v", gb.Cells[0].Value)
	}
	if gb.Summary.AveragePercent != 80.00 || gb.Summary.WeightedMark != 16.00 {
		t.Fatalf("summary: got %+v, want (80, 16)", gb.Summary)
	}
}

func TestRegradeWorkflow(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	studentID, err := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Alan", "Turing"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.CreateAssignment(ctx, courseID, "Assignment 1", 10, 100, nil); err != nil {
		t.Fatal(err)
	}
	gb, err := svc.StudentGradebook(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}
	cellID := gb.Cells[0].GradeCellID

	if _, err := svc.SubmitRegrade(ctx, cellID, "   "); !errors.Is(err, gradebook.ErrEmptyReason) {
		t.Fatalf("blank reason: got %v, want ErrEmptyReason", err)
	}
	if _, err := svc.SubmitRegrade(ctx, cellID+999, "missing cell"); !errors.Is(err, gradebook.ErrUnknownGradeCell) {
		t.Fatalf("missing cell: got %v, want ErrUnknownGradeCell", err)
	}

	// Two open requests on the same cell are deliberate multiplicity.
	req1, err := svc.SubmitRegrade(ctx, cellID, "question 2 was marked wrong")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SubmitRegrade(ctx, cellID, "also question 3"); err != nil {
		t.Fatal(err)
	}

	igb, err := svc.InstructorGradebook(ctx, courseID, studentID)
	if err != nil {
		t.Fatal(err)
	}
	if igb.OpenDisputes[cellID] != 2 {
		t.Fatalf("open disputes: got %d, want 2", igb.OpenDisputes[cellID])
	}

	// Toggle resolves; toggling again reopens.
	resolved, err := svc.ToggleRegradeResolution(ctx, req1)
	if err != nil {
		t.Fatal(err)
	}
	if !resolved {
		t.Fatal("first toggle should resolve")
	}
	igb, _ = svc.InstructorGradebook(ctx, courseID, studentID)
	if igb.OpenDisputes[cellID] != 1 {
		t.Fatalf("open disputes after resolve: got %d, want 1", igb.OpenDisputes[cellID])
	}
	resolved, err = svc.ToggleRegradeResolution(ctx, req1)
	if err != nil {
		t.Fatal(err)
	}
	if resolved {
		t.Fatal("second toggle should reopen")
	}

	if _, err := svc.ToggleRegradeResolution(ctx, req1+999); !errors.Is(err, gradebook.ErrUnknownRequest) {
		t.Fatalf("missing request: got %v, want ErrUnknownRequest", err)
	}

	// A toggle never touches the grade itself.
	gb, _ = svc.StudentGradebook(ctx, studentID)
	if gb.Cells[0].Value != nil {
		t.Fatalf("value changed by regrade workflow: %+v", gb.Cells[0].Value)
	}
}

func TestViewsAndOrdering(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	// Roster ordered by surname regardless of enrollment order.
	zID, _ := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Zoe", "Zimmer"))
	aID, _ := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Ann", "Abbott"))
	roster, err := svc.ListRoster(ctx, courseID)
	if err != nil {
		t.Fatal(err)
	}
	if len(roster) != 2 || roster[0].StudentID != aID || roster[1].StudentID != zID {
		t.Fatalf("roster order: %+v", roster)
	}

	// Cells come back ordered by assignment name.
	for _, name := range []string{"Midterm", "Assignment 2", "Assignment 1"} {
		if _, err := svc.CreateAssignment(ctx, courseID, name, 100, 10, nil); err != nil {
			t.Fatal(err)
		}
	}
	gb, err := svc.StudentGradebook(ctx, aID)
	if err != nil {
		t.Fatal(err)
	}
	wantOrder := []string{"Assignment 1", "Assignment 2", "Midterm"}
	for i, c := range gb.Cells {
		if c.AssignmentName != wantOrder[i] {
			t.Fatalf("cell order: got %v at %d, want %v", c.AssignmentName, i, wantOrder[i])
		}
	}

	// Students only see the "Assignment" prefix; instructors everything.
	asmts, err := svc.ListAssignments(ctx, courseID, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(asmts) != 2 {
		t.Fatalf("student assignment list: %+v", asmts)
	}
	asmts, _ = svc.ListAssignments(ctx, courseID, true)
	if len(asmts) != 3 {
		t.Fatalf("instructor assignment list: %+v", asmts)
	}

	// Wrong course in the instructor view is rejected.
	if _, err := svc.InstructorGradebook(ctx, courseID+1, aID); !errors.Is(err, gradebook.ErrUnknownStudent) {
		t.Fatalf("cross-course view: got %v, want ErrUnknownStudent", err)
	}
}

func TestListOpenRegrades_Sort(t *testing.T) {
	h := startDB(t)
	svc := newService(h.DB)
	ctx := context.Background()
	courseID := mustCourse(t, h.DB)

	teacherID, err := db.AddTeacher(ctx, h.DB, courseID, mustUser(t, h.DB, "Donald", "Knuth"))
	if err != nil {
		t.Fatal(err)
	}
	studentID, err := svc.EnrollStudent(ctx, courseID, mustUser(t, h.DB, "Edsger", "Dijkstra"))
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Assignment 1", "Assignment 2"} {
		if _, err := svc.CreateAssignment(ctx, courseID, name, 10, 50, nil); err != nil {
			t.Fatal(err)
		}
	}
	gb, err := svc.StudentGradebook(ctx, studentID)
	if err != nil {
		t.Fatal(err)
	}

	// One request per assignment, submitted out of name order; resolve the
	// one on Assignment 1.
	req2, err := svc.SubmitRegrade(ctx, gb.Cells[1].GradeCellID, "recount part b")
	if err != nil {
		t.Fatal(err)
	}
	req1, err := svc.SubmitRegrade(ctx, gb.Cells[0].GradeCellID, "recount part a")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ToggleRegradeResolution(ctx, req1); err != nil {
		t.Fatal(err)
	}

	rows, err := svc.ListOpenRegrades(ctx, teacherID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: %+v", rows)
	}
	// Unresolved first (Assignment 2's request), resolved after.
	if rows[0].RegradeID != req2 || rows[0].Resolved {
		t.Fatalf("first row should be the open request: %+v", rows[0])
	}
	if rows[1].RegradeID != req1 || !rows[1].Resolved {
		t.Fatalf("second row should be the resolved request: %+v", rows[1])
	}
	if rows[0].StudentLast != "Dijkstra" {
		t.Fatalf("student name joined wrong: %+v", rows[0])
	}
}
