package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/lesson"
)

type lessonApi struct {
	svc lesson.ServiceInterface
}

func registerLessonAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc lesson.ServiceInterface) {
	api := lessonApi{svc: svc}

	lg := g.Group("/lessons", jwt)
	lg.POST("", api.create, teacherMiddleware())
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update, teacherMiddleware())
	lg.DELETE("/:id", api.destroy, teacherMiddleware())

	g.GET("/groups/:id/lessons", api.queryByGroup, jwt)
}

func (api *lessonApi) create(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	teacherID, err := claims.PrincipalID()
	if err != nil {
		return err
	}

	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}

	lsn, err := api.svc.Create(ctx.Request().Context(), teacherID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lsn)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	lsn, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) queryByGroup(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var filter lesson.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}

	lessons, err := api.svc.QueryByGroup(ctx.Request().Context(), id, filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *lessonApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}

	lsn, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
