package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/fypcompass/compass/apps/api/echo"
	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/chatbot"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/progress"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
	appfs "github.com/fypcompass/compass/fs"
	emailsvc "github.com/fypcompass/compass/services/email"
	"github.com/fypcompass/compass/services/filestore"
	logsvc "github.com/fypcompass/compass/services/logger"
	"github.com/fypcompass/compass/storage/database"
	inmemdb "github.com/fypcompass/compass/storage/database/inmem"
	sqlxrepos "github.com/fypcompass/compass/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// repositories are backed either by Postgres or, when Database.InMemory is set, by process memory.
type repositories struct {
	dig.Out
	Users    user.Repository
	Projects project.Repository
	Tasks    task.Repository
	Messages discussion.Repository
	Closer   func() error
}

func newLogger(conf *core.Config) *logsvc.RollbarLogger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newRepositories(conf *core.Config, loggerParam DBLoggerParam) repositories {
	if conf.Database.InMemory {
		loggerParam.Logger.Warn("using the in-memory database: data is lost on exit")
		db := inmemdb.Open()
		return repositories{
			Users:    inmemdb.NewUserRepository(db),
			Projects: inmemdb.NewProjectRepository(db),
			Tasks:    inmemdb.NewTaskRepository(db),
			Messages: inmemdb.NewDiscussionRepository(db),
			Closer:   func() error { return nil },
		}
	}

	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return repositories{
		Users:    sqlxrepos.NewUserRepository(db),
		Projects: sqlxrepos.NewProjectRepository(db),
		Tasks:    sqlxrepos.NewTaskRepository(db),
		Messages: sqlxrepos.NewDiscussionRepository(db),
		Closer:   db.Close,
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newFileStore(conf *core.Config) (core.FileStore, error) {
	return filestore.New(context.Background(), conf)
}

func newBot() (*chatbot.Bot, error) {
	return chatbot.LoadFS(appfs.FS, appfs.ChatbotKnowledge)
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	usrSvc user.Service,
	projSvc project.Service,
	taskSvc task.Service,
	discussionSvc discussion.Service,
	progressSvc progress.Service,
	bot *chatbot.Bot,
) *echoapi.Server {
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		ProjectSvc:    projSvc,
		TaskSvc:       taskSvc,
		DiscussionSvc: discussionSvc,
		ProgressSvc:   progressSvc,
		Bot:           bot,
	})
}

type NewConfigFunc func() *core.Config

// newContainer returns the dependency injection container of the API.
func newContainer(newConfig NewConfigFunc) *dig.Container {
	c := dig.New()

	must(c.Provide(newConfig))
	must(c.Provide(newLogger))
	must(c.Provide(func(l *logsvc.RollbarLogger) core.Logger { return l }))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newRepositories))
	must(c.Provide(newEmailService))
	must(c.Provide(newFileStore))
	must(c.Provide(validator.New))
	must(c.Provide(newBot))
	must(c.Provide(user.NewService))
	must(c.Provide(project.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(discussion.NewService))
	must(c.Provide(progress.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
