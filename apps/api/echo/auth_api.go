package echoapi

import (
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
	"github.com/trezcool/classdrive/core/teacher"
)

const (
	dashboardPage = "/dashboard.html"
	loginPage     = "/login.html"
)

type authApi struct {
	conf       *core.Config
	logger     core.Logger
	teacherSvc *teacher.Service
	authorizer *drive.Authorizer
	identity   IdentityProvider
}

func registerAuthAPI(app *echo.Echo, v1 *echo.Group, deps ServerDeps) {
	api := authApi{
		conf:       deps.Conf,
		logger:     deps.Logger,
		teacherSvc: deps.TeacherSvc,
		authorizer: deps.Authorizer,
		identity:   deps.Identity,
	}

	// un-authed endpoints
	ag := app.Group("/auth")
	ag.GET("/google", api.googleLogin)
	ag.GET("/google/callback", api.googleCallback)
	ag.GET("/student/callback", api.studentCallback)

	// authed endpoints
	vg := v1.Group("/auth")
	vg.POST("/token-refresh", api.refreshToken)
	vg.GET("/me", api.me)
}

// Handlers

func (api *authApi) googleLogin(ctx echo.Context) error {
	state, cookie, err := newLoginState(api.conf)
	if err != nil {
		return errors.Wrap(err, "generating login state")
	}
	ctx.SetCookie(cookie)
	return ctx.Redirect(http.StatusFound, api.identity.AuthURL(state))
}

func (api *authApi) googleCallback(ctx echo.Context) error {
	cookie, _ := ctx.Cookie(loginStateCookie)
	// the state is single use
	ctx.SetCookie(&http.Cookie{Name: loginStateCookie, Path: "/auth/google", MaxAge: -1, HttpOnly: true})

	if ctx.QueryParam("error") != "" {
		return api.loginFailed(ctx)
	}
	if err := verifyLoginState(api.conf, ctx.QueryParam("state"), cookie); err != nil {
		return api.loginFailed(ctx)
	}

	reqCtx := ctx.Request().Context()
	profile, err := api.identity.Profile(reqCtx, ctx.QueryParam("code"))
	if err != nil {
		api.logger.Warn("fetching google profile", err)
		return api.loginFailed(ctx)
	}
	t, err := api.teacherSvc.Login(reqCtx, profile)
	if err != nil {
		switch errors.Cause(err).(type) {
		case *core.ValidationError, validator.ValidationErrors:
			api.logger.Info("rejecting teacher login", err, profile.Email)
			return api.loginFailed(ctx)
		}
		return errors.Wrap(err, "logging in teacher")
	}

	token, err := GenerateToken(api.conf, GetTeacherClaims(api.conf, t))
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.Redirect(http.StatusFound, api.conf.FrontendBaseURL+dashboardPage+"?token="+url.QueryEscape(token))
}

func (api *authApi) loginFailed(ctx echo.Context) error {
	return ctx.Redirect(http.StatusFound, api.conf.FrontendBaseURL+loginPage+"?error=unauthorized")
}

func (api *authApi) studentCallback(ctx echo.Context) error {
	if ctx.QueryParam("error") != "" {
		return ctx.Render(http.StatusBadRequest, authFailedPg, failedPage{
			Message: "Google Drive access was not granted.",
		})
	}

	std, err := api.authorizer.HandleCallback(ctx.Request().Context(), ctx.QueryParam("state"), ctx.QueryParam("code"))
	switch {
	case err == nil:
		return ctx.Render(http.StatusOK, authorizedPg, authorizedPage{Name: std.Name, Email: std.Email})
	case errors.Is(err, drive.ErrUnknownStudent):
		return ctx.Render(http.StatusNotFound, authFailedPg, failedPage{
			Message: "This authorization link is invalid or has expired.",
		})
	case errors.Is(err, drive.ErrTokenExchange):
		api.logger.Warn("exchanging student authorization code", err)
		return ctx.Render(http.StatusBadRequest, authFailedPg, failedPage{
			Message: "Google did not accept the authorization.",
		})
	default:
		api.logger.Error("handling student callback", err)
		return ctx.Render(http.StatusInternalServerError, authFailedPg, failedPage{
			Message: "Something went wrong while connecting your Google Drive.",
		})
	}
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, err := refreshToken(ctx, api.conf)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"token": token})
}

func (api *authApi) me(ctx echo.Context) error {
	t, err := getContextTeacher(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"authenticated": true, "teacher": t})
}
