package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core/teacher"
)

// ctxTeacherMiddleware loads the authenticated Teacher into the context.
// Tokens that were not issued to a teacher, or whose teacher is gone, are rejected.
func ctxTeacherMiddleware(svc *teacher.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if !claims.VerifyAudience(tokenAudience, true) {
				return errUnauthorized
			}

			t, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if errors.Cause(err) == teacher.ErrNotFound {
					return errUnauthorized
				}
				return errors.Wrap(err, "finding teacher by ID")
			}
			ctx.Set(teacherContextKey, t)
			return next(ctx)
		}
	}
}
