package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core/teacher"
)

type teacherApi struct {
	svc *teacher.Service
}

func registerTeacherAPI(v1 *echo.Group, svc *teacher.Service) {
	api := teacherApi{svc: svc}

	tg := v1.Group("/teachers")
	tg.GET("/me", api.retrieve)
	tg.PUT("/me", api.update)

	sg := v1.Group("/subjects")
	sg.GET("", api.querySubjects)
	sg.POST("", api.createSubject)
	sg.PUT("/archive", api.archiveSubject)
}

// Handlers

func (api *teacherApi) retrieve(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data teacher.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	t, err = api.svc.UpdateProfile(ctx.Request().Context(), t.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teacherApi) querySubjects(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	subs, err := api.svc.ListSubjects(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"count":    len(subs),
		"subjects": subs,
	})
}

func (api *teacherApi) createSubject(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data teacher.NewSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubject")
	}
	if _, err := api.svc.AddSubject(ctx.Request().Context(), t.ID, data); err != nil {
		return err
	}
	subs, err := api.svc.ListSubjects(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success":  true,
		"message":  "Subject added successfully",
		"subjects": subs,
	})
}

func (api *teacherApi) archiveSubject(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data teacher.ArchiveSubject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ArchiveSubject")
	}
	if _, err := api.svc.ArchiveSubject(ctx.Request().Context(), t.ID, data); err != nil {
		return err
	}
	subs, err := api.svc.ListSubjects(ctx.Request().Context(), t.ID)
	if err != nil {
		return errors.Wrap(err, "listing subjects")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  "Subject archived successfully",
		"subjects": subs,
	})
}
