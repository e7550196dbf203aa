package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/RealCodeCrafter/ERP/core/group"
)

type groupApi struct {
	svc group.ServiceInterface
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc group.ServiceInterface) {
	api := groupApi{svc: svc}

	gg := g.Group("/groups", jwt)
	gg.POST("", api.create, operatorMiddleware())
	gg.GET("", api.filter, operatorMiddleware())
	gg.GET("/mine", api.queryMine, teacherMiddleware())
	gg.POST("/transfer", api.transferStudent, operatorMiddleware())

	dg := gg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, operatorMiddleware())
	dg.DELETE("", api.destroy, operatorMiddleware())
	dg.POST("/students", api.addStudent, operatorMiddleware())
	dg.DELETE("/students/:studentID", api.removeStudent, operatorMiddleware())
	dg.POST("/students/:studentID/restore", api.restoreStudent, operatorMiddleware())
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	grp, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grp)
}

func (api *groupApi) filter(ctx echo.Context) error {
	var filter group.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.Clean()

	groups, err := api.svc.Filter(ctx.Request().Context(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) queryMine(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	teacherID, err := claims.PrincipalID()
	if err != nil {
		return err
	}

	groups, err := api.svc.QueryByTeacher(ctx.Request().Context(), teacherID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, groups)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	grp, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) update(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	grp, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) addStudent(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}

	var data EnrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EnrollmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	grp, err := api.svc.AddStudent(ctx.Request().Context(), id, data.StudentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) removeStudent(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentID")
	if err != nil {
		return err
	}

	grp, err := api.svc.RemoveStudent(ctx.Request().Context(), id, studentID, group.RemovalManual)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) restoreStudent(ctx echo.Context) error {
	id, err := pathID(ctx, "id")
	if err != nil {
		return err
	}
	studentID, err := pathID(ctx, "studentID")
	if err != nil {
		return err
	}

	grp, err := api.svc.RestoreStudent(ctx.Request().Context(), id, studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func (api *groupApi) transferStudent(ctx echo.Context) error {
	var data TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	grp, err := api.svc.TransferStudent(ctx.Request().Context(), data.FromGroupID, data.ToGroupID, data.StudentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grp)
}

func pathID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
