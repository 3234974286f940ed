package http

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"

	"github.com/shiftlab/wfm-backend-go/internal/handler/http/middleware"
)

func NewRouter(
	tokenAuth *jwtauth.JWTAuth,
	allowedOrigins []string,
	workerDayHandler WorkerDayHandler,
	attendanceHandler AttendanceHandler,
	timesheetHandler TimesheetHandler,
) *chi.Mux {
	r := chi.NewRouter()
	logFormat := httplog.SchemaECS.Concise(false)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "wfm-backend"),
		slog.String("version", "v1.0.0"),
	)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  slog.LevelInfo,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentEncoding("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(tokenAuth))
			r.Use(middleware.ActorRequired(tokenAuth))

			r.Route("/worker-days", func(r chi.Router) {
				r.Get("/", workerDayHandler.List)
				r.Post("/", workerDayHandler.Upsert)
				r.Delete("/{id}", workerDayHandler.Delete)
				r.Post("/approve", workerDayHandler.Approve)
				r.Post("/exchange", workerDayHandler.Exchange)
				r.Post("/duplicate", workerDayHandler.Duplicate)
				r.Post("/copy-approved", workerDayHandler.CopyApproved)
				r.Post("/copy-range", workerDayHandler.CopyRange)
				r.Post("/change-range", workerDayHandler.ChangeRange)
				r.Post("/batch", workerDayHandler.BatchUpdateOrCreate)
			})

			r.Route("/vacancies", func(r chi.Router) {
				r.Get("/", workerDayHandler.ListVacancies)
				r.Post("/{id}/confirm", workerDayHandler.ConfirmVacancy)
			})

			r.Post("/attendance/ticks", attendanceHandler.Ingest)

			r.Route("/timesheets", func(r chi.Router) {
				r.Post("/query", timesheetHandler.Query)
				r.Post("/recalc", timesheetHandler.Recalc)
				r.Get("/stats", timesheetHandler.Stat)
			})
		})
	})
	return r
}
