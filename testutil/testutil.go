// Package testutil wires in-memory dependencies and creates fixtures for tests.
package testutil

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/progress"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
	emailsvc "github.com/fypcompass/compass/services/email"
	"github.com/fypcompass/compass/services/filestore"
	logsvc "github.com/fypcompass/compass/services/logger"
	inmemdb "github.com/fypcompass/compass/storage/database/inmem"
)

// Env holds a full set of services backed by a fresh in-memory DB.
type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator

	UsrRepo  user.Repository
	ProjRepo project.Repository
	TaskRepo task.Repository
	MsgRepo  discussion.Repository

	Files         core.FileStore
	MailSvc       core.EmailService
	UserSvc       user.Service
	ProjectSvc    project.Service
	TaskSvc       task.Service
	DiscussionSvc discussion.Service
	ProgressSvc   progress.Service
}

// NewEnv returns an Env whose uploads are written to a temporary directory.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig(t.TempDir())
	logger := NewLogger(conf)
	validate, translator := NewValidator()

	db := inmemdb.Open()
	env := &Env{
		Conf:       conf,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
		UsrRepo:    inmemdb.NewUserRepository(db),
		ProjRepo:   inmemdb.NewProjectRepository(db),
		TaskRepo:   inmemdb.NewTaskRepository(db),
		MsgRepo:    inmemdb.NewDiscussionRepository(db),
		MailSvc:    emailsvc.NewConsoleServiceMock(conf, logger),
	}

	files, err := filestore.NewLocalStore(conf.Storage)
	if err != nil {
		t.Fatalf("NewLocalStore() failed: %v", err)
	}
	env.Files = files

	env.UserSvc = user.NewService(env.UsrRepo, env.MailSvc, conf)
	env.ProjectSvc = project.NewService(env.ProjRepo, env.UserSvc)
	env.TaskSvc = task.NewService(env.TaskRepo, env.ProjectSvc, env.UserSvc, files)
	env.DiscussionSvc = discussion.NewService(env.MsgRepo, env.ProjectSvc, env.UserSvc)
	env.ProgressSvc = progress.NewService(env.ProjectSvc, env.TaskSvc)

	emailsvc.ClearSentMessages()
	return env
}

// NewLogger returns a logger writing nowhere.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateProject(
	t *testing.T,
	repo project.Repository,
	name string,
	advisorIDs, studentIDs []string,
	createdAt ...time.Time,
) project.Project {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	if advisorIDs == nil {
		advisorIDs = []string{}
	}
	if studentIDs == nil {
		studentIDs = []string{}
	}
	p, err := repo.CreateProject(context.Background(), project.Project{
		Name:       name,
		AdvisorIDs: advisorIDs,
		StudentIDs: studentIDs,
		CreatedAt:  tstamp,
		UpdatedAt:  tstamp,
	})
	if err != nil {
		t.Fatalf("CreateProject() failed: %v", err)
	}
	return p
}

func CreateTask(t *testing.T, repo task.Repository, projectID, name, createdBy string) task.Task {
	t.Helper()

	now := time.Now().UTC()
	tsk, err := repo.CreateTask(context.Background(), task.Task{
		ProjectID: projectID,
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return tsk
}

// CreateSubmission saves a submission; it is evaluated when marks is not nil.
func CreateSubmission(t *testing.T, repo task.Repository, taskID, studentID string, marks *float64) task.Submission {
	t.Helper()

	now := time.Now().UTC()
	s := task.Submission{
		TaskID:    taskID,
		StudentID: studentID,
		FileURL:   "/uploads/submissions/" + studentID + ".pdf",
		Status:    task.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if marks != nil {
		s.Marks = marks
		s.Status = task.StatusEvaluated
	}
	s, err := repo.CreateSubmission(context.Background(), s)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}

func Float(f float64) *float64 { return &f }
