package echoapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/payment"
)

type paymentApi struct {
	svc payment.ServiceInterface
}

func registerPaymentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc payment.ServiceInterface) {
	api := paymentApi{svc: svc}

	pg := g.Group("/payments", jwt)
	pg.POST("", api.record, operatorMiddleware())
	pg.GET("", api.filter, operatorMiddleware())
	pg.GET("/:id", api.retrieve)
	pg.POST("/:id/confirm", api.confirm, teacherMiddleware())
	pg.GET("/first-unpaid-cycle", api.firstUnpaidCycle, operatorMiddleware())

	rg := g.Group("/reports/income", jwt, operatorMiddleware())
	rg.GET("/monthly", api.monthlyIncome)
	rg.GET("/yearly", api.yearlyIncome)
}

func (api *paymentApi) record(ctx echo.Context) error {
	var data payment.NewPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewPayment")
	}

	pmt, err := api.svc.Record(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, pmt)
}

func (api *paymentApi) confirm(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	teacherID, err := claims.PrincipalID()
	if err != nil {
		return err
	}
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	pmt, err := api.svc.ConfirmByTeacher(ctx.Request().Context(), teacherID, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	pmt, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, pmt)
}

func (api *paymentApi) filter(ctx echo.Context) error {
	var filter payment.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	payments, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, payments)
}

func (api *paymentApi) firstUnpaidCycle(ctx echo.Context) error {
	studentID, err := queryInt(ctx, "student_id")
	if err != nil {
		return err
	}
	groupID, err := queryInt(ctx, "group_id")
	if err != nil {
		return err
	}

	cycle, found, err := api.svc.FirstUnpaidCycle(ctx.Request().Context(), studentID, groupID)
	if err != nil {
		return err
	}
	if !found {
		return ctx.JSON(http.StatusOK, echo.Map{"unpaid": false})
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"unpaid":       true,
		"cycle_number": cycle.Number,
		"cycle_start":  cycle.Start.Format("2006-01-02"),
		"cycle_end":    cycle.End.Format("2006-01-02"),
	})
}

func (api *paymentApi) monthlyIncome(ctx echo.Context) error {
	year, err := queryInt(ctx, "year")
	if err != nil {
		return err
	}
	month, err := queryInt(ctx, "month")
	if err != nil {
		return err
	}
	if month < 1 || month > 12 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid month")
	}

	total, err := api.svc.MonthlyIncome(ctx.Request().Context(), year, time.Month(month))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"year": year, "month": month, "total": total})
}

func (api *paymentApi) yearlyIncome(ctx echo.Context) error {
	year, err := queryInt(ctx, "year")
	if err != nil {
		return err
	}

	total, err := api.svc.YearlyIncome(ctx.Request().Context(), year)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"year": year, "total": total})
}

func queryInt(ctx echo.Context, name string) (int, error) {
	v, err := strconv.Atoi(ctx.QueryParam(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return v, nil
}
