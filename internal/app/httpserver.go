package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/campus-apps/coursebook/internal/db"
	"github.com/campus-apps/coursebook/internal/export"
	"github.com/campus-apps/coursebook/internal/gradebook"
	"github.com/campus-apps/coursebook/internal/metrics"
)

// HTTPServer serves operational endpoints: health, metrics, and two staff
// readouts (gradebook export, regrade queue). The student/instructor site
// is a separate concern that composes the gradebook service directly.
type HTTPServer struct {
	srv *http.Server
}

func StartHTTP(ctx context.Context, addr string, database *sql.DB, svc *gradebook.Service) *HTTPServer {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 800*time.Millisecond)
		defer cancel()
		t0 := time.Now()
		if err := database.PingContext(ctx); err != nil {
			http.Error(w, "db not ok: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		metrics.ObserveDBPing(time.Since(t0))
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/staff/gradebook.xlsx", func(w http.ResponseWriter, r *http.Request) {
		courseID, err := queryID(r, "course_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		course, err := db.GetCourse(r.Context(), database, courseID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		f, err := export.BuildCourseWorkbook(r.Context(), database, courseID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="`+export.BuildCourseFilename(*course)+`"`)
		_ = f.Write(w)
	})

	mux.HandleFunc("/staff/regrades", func(w http.ResponseWriter, r *http.Request) {
		teacherID, err := queryID(r, "teacher_id")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		rows, err := svc.ListOpenRegrades(r.Context(), teacherID)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(rows)
	})

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		_ = srv.ListenAndServe()
	}()

	go func() {
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shCtx)
	}()

	return &HTTPServer{srv: srv}
}

func queryID(r *http.Request, key string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(key), 10, 64)
}
