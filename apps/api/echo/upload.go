package echoapi

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
)

type uploadApi struct {
	dispatcher *drive.Dispatcher
}

func registerUploadAPI(v1 *echo.Group, dispatcher *drive.Dispatcher) {
	api := uploadApi{dispatcher: dispatcher}

	ug := v1.Group("/upload")
	ug.POST("", api.upload)
	ug.GET("/history", api.history)
}

// Handlers

func (api *uploadApi) upload(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}

	up := drive.Upload{
		SubjectName:  ctx.FormValue("subject_name"),
		DocumentType: ctx.FormValue("document_type"),
	}
	var ids StudentIDs
	if err := ids.Bind(ctx); err != nil {
		return err
	}
	up.StudentIDs = ids

	fh, err := ctx.FormFile("file")
	switch {
	case err == nil:
		up.FileName = fh.Filename
		up.MimeType = fh.Header.Get(echo.HeaderContentType)
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		if up.Content, err = io.ReadAll(f); err != nil {
			return errors.Wrap(err, "reading uploaded file")
		}
	case errors.Cause(err) == http.ErrMissingFile, errors.Cause(err) == http.ErrNotMultipart:
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "no file uploaded"})
	default:
		return errors.Wrap(err, "reading multipart form")
	}

	sum, err := api.dispatcher.Distribute(ctx.Request().Context(), t.ID, up)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}

func (api *uploadApi) history(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "uploads": []interface{}{}})
}
