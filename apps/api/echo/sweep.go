package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// sweepApi lets operators run a sweep on demand instead of waiting for the
// next scheduled tick.
type sweepApi struct {
	attendanceSweep func(ctx context.Context) error
	paymentSweep    func(ctx context.Context) error
}

func registerSweepAPI(g *echo.Group, jwt echo.MiddlewareFunc, opts *Options) {
	api := sweepApi{
		attendanceSweep: opts.AttendanceSweep,
		paymentSweep:    opts.PaymentSweep,
	}

	sg := g.Group("/sweeps", jwt, operatorMiddleware())
	sg.POST("/attendance", api.runAttendance)
	sg.POST("/payments", api.runPayments)
}

func (api *sweepApi) runAttendance(ctx echo.Context) error {
	if err := api.attendanceSweep(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "attendance sweep completed"})
}

func (api *sweepApi) runPayments(ctx echo.Context) error {
	if err := api.paymentSweep(ctx.Request().Context()); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "payment sweep completed"})
}
