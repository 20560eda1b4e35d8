package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core/student"
)

type studentApi struct {
	svc *student.Service
}

func registerStudentAPI(v1 *echo.Group, svc *student.Service) {
	api := studentApi{svc: svc}

	sg := v1.Group("/students")
	sg.GET("", api.query)
	sg.POST("", api.create)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
	sg.POST("/:id/resend-auth", api.resendAuth)
}

// Handlers

func (api *studentApi) create(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	res, err := api.svc.Create(ctx.Request().Context(), t, data)
	if err != nil {
		return err
	}

	msg := "Student added successfully and authorization email sent"
	if !res.EmailSent {
		msg = "Student added successfully but the authorization email could not be sent"
	}
	return ctx.JSON(http.StatusCreated, echo.Map{
		"success":    true,
		"message":    msg,
		"student":    res.Student,
		"email_sent": res.EmailSent,
	})
}

func (api *studentApi) query(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	filter := student.QueryFilter{SubjectName: ctx.QueryParam("subject_name")}
	stds, err := api.svc.List(ctx.Request().Context(), t.ID, filter)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"count":    len(stds),
		"students": stds,
	})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	std, err := api.svc.Get(ctx.Request().Context(), t.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	std, err := api.svc.Update(ctx.Request().Context(), t.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Student updated successfully",
		"student": std,
	})
}

func (api *studentApi) destroy(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), t.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Student deleted successfully",
	})
}

func (api *studentApi) resendAuth(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.ResendAuth(ctx.Request().Context(), t, ctx.Param("id"))
	if err != nil {
		return err
	}

	msg := "Authorization email resent successfully"
	if !res.Success {
		msg = "Authorization link renewed but the email could not be sent"
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"success":    true,
		"message":    msg,
		"email_sent": res.Success,
	})
}
