// wfmctl is the operator CLI: timesheet recomputes, worker-day hour
// recalculation and shop schedule extension, runnable outside the API
// lifecycle.
//
// Exit codes: 0 success, 2 validation error, 3 permission denied,
// 4 external dependency failure.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shiftlab/wfm-backend-go/internal/config"
	"github.com/shiftlab/wfm-backend-go/internal/domain/daytype"
	"github.com/shiftlab/wfm-backend-go/internal/domain/workerday"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/database"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/events"
	"github.com/shiftlab/wfm-backend-go/internal/pkg/validator"
	"github.com/shiftlab/wfm-backend-go/internal/repository/postgresql"
	calendarService "github.com/shiftlab/wfm-backend-go/internal/service/calendar"
	jobsService "github.com/shiftlab/wfm-backend-go/internal/service/jobs"
	normService "github.com/shiftlab/wfm-backend-go/internal/service/norm"
	permissionService "github.com/shiftlab/wfm-backend-go/internal/service/permission"
	timesheetService "github.com/shiftlab/wfm-backend-go/internal/service/timesheet"
	workerdayService "github.com/shiftlab/wfm-backend-go/internal/service/workerday"
)

const (
	exitOK         = 0
	exitValidation = 2
	exitPermission = 3
	exitExternal   = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitValidation
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return exitValidation
	}
	db, err := database.NewPostgreSQLDB(cfg.Database.DSN())
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		return exitExternal
	}
	defer db.Close()

	app := newApp(cfg, db)
	defer app.bus.Stop()

	ctx := context.Background()
	switch args[0] {
	case "recalc-timesheets":
		return report(app.recalcTimesheets(ctx, args[1:]))
	case "recalc-wdays":
		return report(app.recalcWdays(ctx, args[1:]))
	case "fill-shop-schedule":
		return report(app.fillShopSchedule(ctx, args[1:]))
	default:
		fmt.Fprintln(os.Stderr, "unknown command:", args[0])
		usage()
		return exitValidation
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: wfmctl <command> [flags]

commands:
  recalc-timesheets   --from YYYY-MM-DD --to YYYY-MM-DD --employee-id ID [--employee-id ID ...]
  recalc-wdays        --shop SHOP_ID --from YYYY-MM-DD --to YYYY-MM-DD
  fill-shop-schedule  --shop SHOP_ID [--from YYYY-MM-DD] [--periods N]`)
}

// app wires the engine the same way cmd/api does, without the HTTP layer.
type app struct {
	db         *database.DB
	bus        *events.Bus
	calculator *timesheetService.Calculator
	workerDays *workerdayService.Service
	jobs       *jobsService.Jobs
}

func newApp(cfg *config.Config, db *database.DB) *app {
	workerDayRepo := postgresql.NewWorkerDayRepository(db)
	employmentRepo := postgresql.NewEmploymentRepository(db)
	shopRepo := postgresql.NewShopRepository(db)
	scheduleRepo := postgresql.NewScheduleRepository(db)
	networkRepo := postgresql.NewNetworkRepository(db)
	calendarRepo := postgresql.NewCalendarRepository(db)
	timesheetRepo := postgresql.NewTimesheetRepository(db)
	permissionRepo := postgresql.NewPermissionRepository(db)

	bus := events.NewBus(cfg.Bus.Shards, cfg.Bus.Buffer)
	bus.Start()
	registry := daytype.NewRegistry()

	calendarSvc := calendarService.NewService(calendarRepo)
	gate := permissionService.NewGate(permissionRepo)
	normSvc := normService.NewService(calendarSvc, workerDayRepo, employmentRepo, shopRepo, networkRepo, registry)
	calculator := timesheetService.NewCalculator(
		db, workerDayRepo, timesheetRepo, employmentRepo, networkRepo, registry,
		normSvc, timesheetService.NewDividerRegistry(), bus)

	return &app{
		db:         db,
		bus:        bus,
		calculator: calculator,
		workerDays: workerdayService.New(
			db, workerDayRepo, employmentRepo, shopRepo, scheduleRepo, networkRepo, registry, gate, bus),
		jobs: jobsService.New(
			db, networkRepo, employmentRepo, shopRepo, scheduleRepo, workerDayRepo, registry, calculator, bus),
	}
}

func (a *app) recalcTimesheets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recalc-timesheets", flag.ContinueOnError)
	fromStr := fs.String("from", "", "start date, YYYY-MM-DD")
	toStr := fs.String("to", "", "end date, YYYY-MM-DD")
	var employeeIDs stringList
	fs.Var(&employeeIDs, "employee-id", "employee id, repeatable")
	if err := fs.Parse(args); err != nil {
		return &workerday.ValidationError{Field: "flags", Message: err.Error()}
	}

	from, to, err := parseRange(*fromStr, *toStr)
	if err != nil {
		return err
	}
	if len(employeeIDs) == 0 {
		return &workerday.ValidationError{Field: "employee-id", Message: "at least one employee id is required"}
	}

	months := 0
	for y, m := from.Year(), from.Month(); y < to.Year() || (y == to.Year() && m <= to.Month()); {
		for _, employeeID := range employeeIDs {
			if err := a.calculator.RecalcMonth(ctx, employeeID, y, m); err != nil {
				return fmt.Errorf("recalc %s %04d-%02d: %w", employeeID, y, m, err)
			}
		}
		months++
		if m == time.December {
			y, m = y+1, time.January
		} else {
			m++
		}
	}
	fmt.Printf("recalculated %d employees over %d months\n", len(employeeIDs), months)
	return nil
}

func (a *app) recalcWdays(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("recalc-wdays", flag.ContinueOnError)
	shopID := fs.String("shop", "", "shop id")
	fromStr := fs.String("from", "", "start date, YYYY-MM-DD")
	toStr := fs.String("to", "", "end date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return &workerday.ValidationError{Field: "flags", Message: err.Error()}
	}
	if *shopID == "" {
		return &workerday.ValidationError{Field: "shop", Message: "shop id is required"}
	}
	from, to, err := parseRange(*fromStr, *toStr)
	if err != nil {
		return err
	}

	updated, err := a.workerDays.RecalcHours(ctx, *shopID, from, to)
	if err != nil {
		return err
	}
	fmt.Printf("recalculated %d worker days\n", updated)
	return nil
}

func (a *app) fillShopSchedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fill-shop-schedule", flag.ContinueOnError)
	shopID := fs.String("shop", "", "shop id")
	fromStr := fs.String("from", "", "start date, YYYY-MM-DD (default today)")
	periods := fs.Int("periods", 1, "number of whole months to fill")
	if err := fs.Parse(args); err != nil {
		return &workerday.ValidationError{Field: "flags", Message: err.Error()}
	}
	if *shopID == "" {
		return &workerday.ValidationError{Field: "shop", Message: "shop id is required"}
	}
	if *periods <= 0 {
		return &workerday.ValidationError{Field: "periods", Message: "periods must be positive"}
	}
	from := time.Now().UTC()
	if *fromStr != "" {
		var ok bool
		from, ok = validator.IsValidDate(*fromStr)
		if !ok {
			return &workerday.ValidationError{Field: "from", Message: "must be YYYY-MM-DD"}
		}
	}

	created, err := a.jobs.FillShopSchedule(ctx, *shopID, from, *periods)
	if err != nil {
		return err
	}
	fmt.Printf("created %d schedule days\n", created)
	return nil
}

func parseRange(fromStr, toStr string) (time.Time, time.Time, error) {
	from, okFrom := validator.IsValidDate(fromStr)
	to, okTo := validator.IsValidDate(toStr)
	if !okFrom || !okTo {
		return time.Time{}, time.Time{}, &workerday.ValidationError{
			Field: "from/to", Message: "must be YYYY-MM-DD",
		}
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, &workerday.ValidationError{
			Field: "to", Message: "must not precede from",
		}
	}
	return from, to, nil
}

func report(err error) int {
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "error:", err)

	var verr *workerday.ValidationError
	var verrs validator.ValidationErrors
	var perr *workerday.PermissionError
	switch {
	case errors.As(err, &verr), errors.As(err, &verrs):
		return exitValidation
	case errors.As(err, &perr):
		return exitPermission
	default:
		return exitExternal
	}
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint([]string(*s)) }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
