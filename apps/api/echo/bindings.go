package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const studentIDsParam = "student_ids"

// StudentIDs are the upload targets, sent either as repeated form values
// or as a single JSON array.
type StudentIDs []string

func (ids *StudentIDs) Bind(ctx echo.Context) error {
	form, err := ctx.FormParams()
	if err != nil {
		return err
	}
	for _, val := range form[studentIDsParam] {
		val = strings.TrimSpace(val)
		if val == "" {
			continue
		}
		if strings.HasPrefix(val, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(val), &arr); err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, "student_ids must be a JSON array of strings")
			}
			*ids = append(*ids, arr...)
			continue
		}
		for _, id := range strings.Split(val, ",") {
			*ids = append(*ids, id)
		}
	}
	return nil
}
