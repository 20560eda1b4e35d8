package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
)

type (
	// IdentityProvider signs teachers in with an external account.
	IdentityProvider interface {
		AuthURL(state string) string
		Profile(ctx context.Context, code string) (teacher.GoogleProfile, error)
	}

	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		TeacherSvc     *teacher.Service
		StudentSvc     *student.Service
		Authorizer     *drive.Authorizer
		Dispatcher     *drive.Dispatcher
		Identity       IdentityProvider
		Translator     ut.Translator
		DisableReqLogs bool
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{conf.FrontendBaseURL},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Upload.MaxFileSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Renderer = newPageRenderer()
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/health", health)

	jwt := middleware.JWTWithConfig(newJWTConfig(conf))
	ctxTeacher := ctxTeacherMiddleware(s.deps.TeacherSvc)

	v1 := s.app.Group("/v1", jwt, ctxTeacher)
	registerAuthAPI(s.app, v1, s.deps)
	registerTeacherAPI(v1, s.deps.TeacherSvc)
	registerStudentAPI(v1, s.deps.StudentSvc)
	registerUploadAPI(v1, s.deps.Dispatcher)
}

// Start starts the server and reports its failure on Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// bodyLimit leaves room for the multipart envelope around the largest accepted file.
func bodyLimit(maxFileSize int64) string {
	const overhead = 1 << 20
	if maxFileSize <= 0 {
		return "64M"
	}
	return strconv.FormatInt((maxFileSize+overhead)/1024, 10) + "K"
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to ClassDrive API!")
}

func health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"status": "OK",
		"time":   time.Now().UTC(),
	})
}
