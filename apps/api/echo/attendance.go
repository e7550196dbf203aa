package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/attendance"
)

type attendanceApi struct {
	svc attendance.ServiceInterface
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.ServiceInterface) {
	api := attendanceApi{svc: svc}

	lg := g.Group("/lessons/:id/attendance", jwt)
	lg.POST("", api.mark, teacherMiddleware())
	lg.PUT("", api.updateByLesson, teacherMiddleware())
	lg.GET("", api.queryByLesson)

	gg := g.Group("/groups/:id", jwt)
	gg.GET("/attendance", api.dailySummary)
	gg.GET("/students/:studentID/attendance-stats", api.statistics)
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	teacherID, lessonID, entries, err := api.bindBatch(ctx)
	if err != nil {
		return err
	}

	outcomes, err := api.svc.Mark(ctx.Request().Context(), teacherID, lessonID, entries)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, outcomes)
}

func (api *attendanceApi) updateByLesson(ctx echo.Context) error {
	teacherID, lessonID, updates, err := api.bindBatch(ctx)
	if err != nil {
		return err
	}

	outcomes, err := api.svc.UpdateByLesson(ctx.Request().Context(), teacherID, lessonID, updates)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, outcomes)
}

func (api *attendanceApi) bindBatch(ctx echo.Context) (teacherID, lessonID int, entries []attendance.Entry, err error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return 0, 0, nil, err
	}
	if teacherID, err = claims.PrincipalID(); err != nil {
		return 0, 0, nil, err
	}
	if lessonID, err = pathID(ctx, "id"); err != nil {
		return 0, 0, nil, err
	}
	if err = ctx.Bind(&entries); err != nil {
		return 0, 0, nil, errors.Wrap(err, "binding to attendance entries")
	}
	return teacherID, lessonID, entries, nil
}

func (api *attendanceApi) queryByLesson(ctx echo.Context) error {
	lessonID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	records, err := api.svc.QueryByLesson(ctx.Request().Context(), lessonID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) dailySummary(ctx echo.Context) error {
	groupID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	date := time.Now().UTC()
	if raw := ctx.QueryParam("date"); raw != "" {
		if date, err = time.Parse("2006-01-02", raw); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		}
	}

	records, err := api.svc.DailySummary(ctx.Request().Context(), groupID, date)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) statistics(ctx echo.Context) error {
	groupID, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentID")
	if err != nil {
		return err
	}

	stats, err := api.svc.Statistics(ctx.Request().Context(), studentID, groupID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stats)
}
