package dig_container

import (
	"context"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/classdrive/apps/api/echo"
	"github.com/trezcool/classdrive/core"
	"github.com/trezcool/classdrive/core/drive"
	"github.com/trezcool/classdrive/core/student"
	"github.com/trezcool/classdrive/core/teacher"
	emailsvc "github.com/trezcool/classdrive/services/email"
	googlesvc "github.com/trezcool/classdrive/services/google"
	logsvc "github.com/trezcool/classdrive/services/logger"
	"github.com/trezcool/classdrive/storage/database"
	inmemdb "github.com/trezcool/classdrive/storage/database/inmem"
	sqlxrepos "github.com/trezcool/classdrive/storage/database/sqlx"
)

const (
	engineMemory   = "memory"
	enginePostgres = "postgres"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// DBCloser releases the storage backing the repositories.
type DBCloser func() error

type Repositories struct {
	dig.Out
	Teachers teacher.Repository
	Students student.Repository
	Close    DBCloser
}

func newLogger(conf *core.Config) (core.Logger, error) {
	zl, err := logsvc.NewZapLogger(conf, "API")
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newDBLogger(conf *core.Config) (core.Logger, error) {
	zl, err := logsvc.NewZapLogger(conf, "DB")
	if err != nil {
		return nil, errors.Wrap(err, "building zap logger")
	}
	logger := logsvc.NewRollbarLogger(zl, conf)
	logger.Enable(!conf.Debug)
	return logger, nil
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) Repositories {
	switch conf.Database.Engine {
	case engineMemory:
		db := inmemdb.NewDB()
		return Repositories{
			Teachers: inmemdb.NewTeacherRepository(db),
			Students: inmemdb.NewStudentRepository(db),
			Close:    func() error { return nil },
		}
	case enginePostgres:
		db, err := database.Setup(context.Background(), conf)
		if err != nil {
			loggerParam.Logger.Fatal("setting up database", err)
		}
		return Repositories{
			Teachers: sqlxrepos.NewTeacherRepository(db),
			Students: sqlxrepos.NewStudentRepository(db),
			Close:    db.Close,
		}
	default:
		loggerParam.Logger.Fatal("unknown database engine " + conf.Database.Engine)
		return Repositories{}
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newAuthorizer(conf *core.Config, students student.Repository) *drive.Authorizer {
	return drive.NewAuthorizer(conf, students)
}

func newClientFactory(conf *core.Config, students student.Repository, authorizer *drive.Authorizer) *drive.ClientFactory {
	return drive.NewClientFactory(students, authorizer, drive.GoogleClientFunc(conf.Google.RequestTimeout))
}

func newDispatcher(conf *core.Config, students student.Repository, clients *drive.ClientFactory, logger core.Logger) *drive.Dispatcher {
	return drive.NewDispatcher(conf, students, clients, logger)
}

func newStudentService(
	conf *core.Config,
	repo student.Repository,
	authorizer *drive.Authorizer,
	mailSvc core.EmailService,
	logger core.Logger,
	validate *validator.Validate,
) *student.Service {
	return student.NewService(conf, repo, authorizer, student.NewNotifier(conf, mailSvc, logger), validate)
}

func newIdentityProvider(conf *core.Config) echoapi.IdentityProvider {
	return googlesvc.NewLoginFlow(conf)
}

type serverParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	TeacherSvc *teacher.Service
	StudentSvc *student.Service
	Authorizer *drive.Authorizer
	Dispatcher *drive.Dispatcher
	Identity   echoapi.IdentityProvider
	Translator ut.Translator
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       p.Conf,
		Logger:     p.Logger,
		TeacherSvc: p.TeacherSvc,
		StudentSvc: p.StudentSvc,
		Authorizer: p.Authorizer,
		Dispatcher: p.Dispatcher,
		Identity:   p.Identity,
		Translator: p.Translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(teacher.NewService))
	must(c.Provide(newAuthorizer))
	must(c.Provide(newClientFactory))
	must(c.Provide(newDispatcher))
	must(c.Provide(newStudentService))
	must(c.Provide(newIdentityProvider))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

// Visualize writes the container graph in DOT format to stdout.
func Visualize(c *dig.Container) error {
	return dig.Visualize(c, os.Stdout)
}
