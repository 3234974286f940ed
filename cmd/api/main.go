package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/jwtauth/v5"

	"github.com/shiftlab/wfm-backend-go/internal/config"
	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	appHTTP "github.com/shiftlab/wfm-backend-go/internal/handler/http"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/cron"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	"github.com/shiftlab/wfm-backend-go/internal/repository/postgresql"
	calendarService "github.com/shiftlab/wfm-backend-go/internal/service/calendar"
	jobsService "github.com/shiftlab/wfm-backend-go/internal/service/jobs"
	normService "github.com/shiftlab/wfm-backend-go/internal/service/norm"
	permissionService "github.com/shiftlab/wfm-backend-go/internal/service/permission"
	reconcilerService "github.com/shiftlab/wfm-backend-go/internal/service/reconciler"
	timesheetService "github.com/shiftlab/wfm-backend-go/internal/service/timesheet"
	workerdayService "github.com/shiftlab/wfm-backend-go/internal/service/workerday"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	db, err := database.NewPostgreSQLDB(cfg.Database.DSN())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		os.Exit(1)
	}
	defer db.Close()

	workerDayRepo := postgresql.NewWorkerDayRepository(db)
	employmentRepo := postgresql.NewEmploymentRepository(db)
	shopRepo := postgresql.NewShopRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	networkRepo := postgresql.NewNetworkRepository(db)
	calendarRepo := postgresql.NewCalendarRepository(db)
	timesheetRepo := postgresql.NewTimesheetRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	permissionRepo := postgresql.NewPermissionRepository(db)

	tokenAuth := jwtauth.New("HS256", []byte(cfg.JWT.Secret), nil)
	bus := events.NewBus(cfg.Bus.Shards, cfg.Bus.Buffer)
	registry := daytype.NewRegistry()

	calendarSvc := calendarService.NewService(calendarRepo)
	gate := permissionService.NewGate(permissionRepo)
	normSvc := normService.NewService(calendarSvc, workerDayRepo, employmentRepo, shopRepo, networkRepo, registry)
	dividers := timesheetService.NewDividerRegistry()
	calculator := timesheetService.NewCalculator(
		db, workerDayRepo, timesheetRepo, employmentRepo, networkRepo, registry, normSvc, dividers, bus)
	reconciler := reconcilerService.New(
		db, attendanceRepo, workerDayRepo, employmentRepo, shopRepo, scheduleRepo, networkRepo, registry, bus)
	workerDaySvc := workerdayService.New(
		db, workerDayRepo, employmentRepo, shopRepo, scheduleRepo, networkRepo, registry, gate, bus)
	jobs := jobsService.New(
		db, networkRepo, employmentRepo, shopRepo, scheduleRepo, workerDayRepo, registry, calculator, bus)

	// Approved fact edits feed the timesheet; everything else is ignored
	// here and consumed by external subscribers.
	bus.Subscribe(func(ctx context.Context, ev events.Event) {
		if ev.Entity != "worker_day" {
			return
		}
		switch ev.Name {
		case events.WdApproved:
			wd, err := workerDayRepo.GetByID(ctx, ev.ID)
			if err != nil || wd.EmployeeID == nil {
				return
			}
			recalc(ctx, calculator, *wd.EmployeeID, wd.Date)
		case events.WdChanged:
			raw := ev.After
			if raw == nil {
				raw = ev.Before
			}
			var img struct {
				EmployeeID *string
				Date       time.Time
				IsFact     bool
				IsApproved bool
			}
			if err := json.Unmarshal(raw, &img); err != nil || img.EmployeeID == nil {
				return
			}
			if !img.IsApproved {
				return
			}
			recalc(ctx, calculator, *img.EmployeeID, img.Date)
		}
	})
	bus.Start()
	defer bus.Stop()

	scheduler := cron.NewScheduler()
	scheduler.AddJob("recalc-timesheets", 24*time.Hour, jobs.RecalcTimesheets)
	scheduler.AddJob("mark-absences", 24*time.Hour, jobs.MarkAbsences)
	scheduler.AddJob("fill-shop-schedules", 24*time.Hour, func(ctx context.Context) error {
		return jobs.FillAllShopSchedules(ctx, 2)
	})
	scheduler.Start()
	defer scheduler.Stop()

	workerDayHandler := appHTTP.NewWorkerDayHandler(workerDaySvc, workerDayRepo)
	attendanceHandler := appHTTP.NewAttendanceHandler(reconciler)
	timesheetHandler := appHTTP.NewTimesheetHandler(timesheetRepo, calculator, normSvc)

	router := appHTTP.NewRouter(
		tokenAuth,
		cfg.App.AllowedOrigins,
		workerDayHandler,
		attendanceHandler,
		timesheetHandler,
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "port", cfg.App.Port, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
}

func recalc(ctx context.Context, calculator *timesheetService.Calculator, employeeID string, date time.Time) {
	if err := calculator.RecalcAffected(ctx, employeeID, date); err != nil {
		slog.Error("timesheet recalc on event failed",
			"employee_id", employeeID, "date", date.Format("2006-01-02"), "error", err)
	}
}
