package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core"
	"github.com/RealCodeCrafter/ERP/core/operator"
	"github.com/RealCodeCrafter/ERP/core/teacher"
)

type authApi struct {
	conf      *core.Config
	teachers  teacher.Repository
	operators operator.Repository
}

func registerAuthAPI(g *echo.Group, opts *Options) {
	api := authApi{
		conf:      opts.Conf,
		teachers:  opts.TeacherRepo,
		operators: opts.OperatorRepo,
	}

	ag := g.Group("/auth")
	ag.POST("/operator/login", api.operatorLogin)
	ag.POST("/teacher/login", api.teacherLogin)
}

func (api *authApi) operatorLogin(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	op, err := api.operators.GetOperatorByUsername(ctx.Request().Context(), data.Username)
	if err != nil {
		if core.IsNotFound(err) {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "finding operator by username")
	}
	if err = op.CheckPassword(data.Password); err != nil {
		return errAuthenticationFailed
	}
	return api.respondWithToken(ctx, GetOperatorClaims(api.conf, op))
}

func (api *authApi) teacherLogin(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tch, err := api.teachers.GetTeacherByUsername(ctx.Request().Context(), data.Username)
	if err != nil {
		if core.IsNotFound(err) {
			return errAuthenticationFailed
		}
		return errors.Wrap(err, "finding teacher by username")
	}
	if err = tch.CheckPassword(data.Password); err != nil {
		return errAuthenticationFailed
	}
	return api.respondWithToken(ctx, GetTeacherClaims(api.conf, tch))
}

func (api *authApi) respondWithToken(ctx echo.Context, claims *Claims) error {
	token, err := GenerateToken(api.conf, claims)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Token: token})
}
