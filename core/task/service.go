package task

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("task")
	ErrSubmissionNotFound = core.NewNotFoundError("submission")
	ErrFileRequired       = errors.New("file is required")
	ErrNotAllEvaluated    = errors.New("all submissions must be evaluated before completing the task")
	errBlankName          = errors.New("name cannot be blank")
)

type (
	Repository interface {
		CreateTask(ctx context.Context, t Task) (Task, error)
		// QueryTasks returns the tasks of a project, oldest first.
		QueryTasks(ctx context.Context, projectID string) ([]Task, error)
		GetTask(ctx context.Context, id string) (Task, error)
		UpdateTask(ctx context.Context, t Task) (Task, error)
		// DeleteTask also deletes the task's submissions.
		DeleteTask(ctx context.Context, id string) error
		// CountTasks returns the total & completed number of tasks of a project.
		CountTasks(ctx context.Context, projectID string) (total int, completed int, err error)

		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns submissions, oldest first.
		QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error)
		GetSubmission(ctx context.Context, filter SubmissionGetFilter) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
		// CountSubmissions returns the total & evaluated number of submissions of a task.
		CountSubmissions(ctx context.Context, taskID string) (total int, evaluated int, err error)
	}

	Service interface {
		// Create adds a task to a project the actor advises. file is optional.
		Create(ctx context.Context, actor user.User, nt NewTask, file *core.Upload) (Task, error)
		Get(ctx context.Context, id string) (Task, error)
		// GetForMember returns the task if actor is a member of its project.
		GetForMember(ctx context.Context, actor user.User, id string) (Task, error)
		QueryForAdvisor(ctx context.Context, actor user.User, projectID string) ([]Task, error)
		QueryForStudent(ctx context.Context, actor user.User, projectID string) ([]StudentTask, error)
		GetForStudent(ctx context.Context, actor user.User, id string) (StudentTask, error)
		Update(ctx context.Context, actor user.User, id string, ut UpdateTask) (Task, error)
		Delete(ctx context.Context, actor user.User, id string) error
		// Complete marks a task done & completed once every submission to it is evaluated.
		Complete(ctx context.Context, actor user.User, id string) (Task, error)
		// CountByProject returns the total & completed number of tasks of a project.
		CountByProject(ctx context.Context, projectID string) (total int, completed int, err error)

		// Submit creates the actor's submission to a task, or replaces its file.
		// created reports whether a new submission was saved.
		Submit(ctx context.Context, actor user.User, taskID string, file core.Upload) (s Submission, created bool, err error)
		// EditSubmission replaces the file of a submission owned by actor.
		EditSubmission(ctx context.Context, actor user.User, id string, file core.Upload) (Submission, error)
		QuerySubmissions(ctx context.Context, actor user.User, taskID string) ([]SubmissionView, error)
		Grade(ctx context.Context, actor user.User, id string, marks float64) (Submission, error)
		Evaluate(ctx context.Context, actor user.User, data Evaluate) (Submission, error)
		// CountSubmissions returns the total & evaluated number of submissions of a task.
		CountSubmissions(ctx context.Context, taskID string) (total int, evaluated int, err error)
	}

	service struct {
		repo    Repository
		projSvc project.Service
		usrSvc  user.Service
		files   core.FileStore
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, projSvc project.Service, usrSvc user.Service, files core.FileStore) Service {
	return &service{
		repo:    repo,
		projSvc: projSvc,
		usrSvc:  usrSvc,
		files:   files,
	}
}

func (svc *service) Create(ctx context.Context, actor user.User, nt NewTask, file *core.Upload) (Task, error) {
	if _, err := svc.projSvc.GetForAdvisor(ctx, actor, nt.ProjectID); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t := Task{
		ProjectID:    nt.ProjectID,
		Name:         nt.Name,
		Instructions: nt.Instructions,
		CreatedBy:    actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if file != nil {
		url, err := svc.files.Save(ctx, core.FileCategoryTasks, *file)
		if err != nil {
			return Task{}, errors.Wrap(err, "saving task file")
		}
		t.FileURL = url
	}
	t, err := svc.repo.CreateTask(ctx, t)
	return t, errors.Wrap(err, "creating task")
}

func (svc *service) Get(ctx context.Context, id string) (Task, error) {
	return svc.repo.GetTask(ctx, id)
}

// getWithProject returns a task after checking actor against its project with check.
func (svc *service) getWithProject(
	ctx context.Context,
	actor user.User,
	id string,
	check func(context.Context, user.User, string) (project.Project, error),
) (Task, error) {
	t, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if _, err = check(ctx, actor, t.ProjectID); err != nil {
		return Task{}, err
	}
	return t, nil
}

func (svc *service) GetForMember(ctx context.Context, actor user.User, id string) (Task, error) {
	return svc.getWithProject(ctx, actor, id, svc.projSvc.GetForMember)
}

func (svc *service) QueryForAdvisor(ctx context.Context, actor user.User, projectID string) ([]Task, error) {
	if _, err := svc.projSvc.GetForAdvisor(ctx, actor, projectID); err != nil {
		return nil, err
	}
	return svc.repo.QueryTasks(ctx, projectID)
}

func (svc *service) QueryForStudent(ctx context.Context, actor user.User, projectID string) ([]StudentTask, error) {
	if _, err := svc.projSvc.GetForStudent(ctx, actor, projectID); err != nil {
		return nil, err
	}
	tasks, err := svc.repo.QueryTasks(ctx, projectID)
	if err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	if len(tasks) == 0 {
		return []StudentTask{}, nil
	}

	ids := make([]string, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{TaskIDs: ids, StudentID: actor.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	byTask := make(map[string]Submission, len(subs))
	for _, s := range subs {
		byTask[s.TaskID] = s
	}

	out := make([]StudentTask, 0, len(tasks))
	for _, t := range tasks {
		st := StudentTask{Task: t}
		if s, ok := byTask[t.ID]; ok {
			s := s
			st.MySubmission = &s
		}
		out = append(out, st)
	}
	return out, nil
}

func (svc *service) GetForStudent(ctx context.Context, actor user.User, id string) (StudentTask, error) {
	t, err := svc.getWithProject(ctx, actor, id, svc.projSvc.GetForStudent)
	if err != nil {
		return StudentTask{}, err
	}
	st := StudentTask{Task: t}
	s, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{TaskID: t.ID, StudentID: actor.ID})
	switch {
	case err == nil:
		st.MySubmission = &s
	case errors.Cause(err) != ErrSubmissionNotFound:
		return StudentTask{}, errors.Wrap(err, "finding submission")
	}
	return st, nil
}

func (svc *service) Update(ctx context.Context, actor user.User, id string, ut UpdateTask) (Task, error) {
	t, err := svc.getWithProject(ctx, actor, id, svc.projSvc.GetForAdvisor)
	if err != nil {
		return Task{}, err
	}
	if ut.Name != nil {
		t.Name = *ut.Name
	}
	if ut.Instructions != nil {
		t.Instructions = *ut.Instructions
	}
	t.UpdatedAt = time.Now().UTC()
	t, err = svc.repo.UpdateTask(ctx, t)
	return t, errors.Wrap(err, "updating task")
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.getWithProject(ctx, actor, id, svc.projSvc.GetForAdvisor); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteTask(ctx, id), "deleting task")
}

func (svc *service) Complete(ctx context.Context, actor user.User, id string) (Task, error) {
	t, err := svc.getWithProject(ctx, actor, id, svc.projSvc.GetForAdvisor)
	if err != nil {
		return Task{}, err
	}
	if t.IsCompleted {
		return t, nil
	}

	total, evaluated, err := svc.repo.CountSubmissions(ctx, t.ID)
	if err != nil {
		return Task{}, errors.Wrap(err, "counting submissions")
	}
	if evaluated < total {
		return Task{}, core.NewValidationError(ErrNotAllEvaluated)
	}

	t.IsDone = true
	t.IsCompleted = true
	t.UpdatedAt = time.Now().UTC()
	t, err = svc.repo.UpdateTask(ctx, t)
	return t, errors.Wrap(err, "completing task")
}

func (svc *service) CountByProject(ctx context.Context, projectID string) (int, int, error) {
	return svc.repo.CountTasks(ctx, projectID)
}

func (svc *service) Submit(ctx context.Context, actor user.User, taskID string, file core.Upload) (Submission, bool, error) {
	t, err := svc.getWithProject(ctx, actor, taskID, svc.projSvc.GetForStudent)
	if err != nil {
		return Submission{}, false, err
	}

	existing, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{TaskID: t.ID, StudentID: actor.ID})
	if err == nil {
		s, err := svc.replaceFile(ctx, existing, file)
		return s, false, err
	} else if errors.Cause(err) != ErrSubmissionNotFound {
		return Submission{}, false, errors.Wrap(err, "finding submission")
	}

	url, err := svc.files.Save(ctx, core.FileCategorySubmissions, file)
	if err != nil {
		return Submission{}, false, errors.Wrap(err, "saving submission file")
	}
	now := time.Now().UTC()
	s, err := svc.repo.CreateSubmission(ctx, Submission{
		TaskID:    t.ID,
		StudentID: actor.ID,
		FileURL:   url,
		Status:    StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Submission{}, false, errors.Wrap(err, "creating submission")
	}
	return s, true, nil
}

// replaceFile stores a new file for s and puts it back to review: marks are cleared.
func (svc *service) replaceFile(ctx context.Context, s Submission, file core.Upload) (Submission, error) {
	url, err := svc.files.Save(ctx, core.FileCategorySubmissions, file)
	if err != nil {
		return Submission{}, errors.Wrap(err, "saving submission file")
	}
	s.FileURL = url
	s.Status = StatusSubmitted
	s.Marks = nil
	s.UpdatedAt = time.Now().UTC()
	s, err = svc.repo.UpdateSubmission(ctx, s)
	return s, errors.Wrap(err, "updating submission")
}

func (svc *service) EditSubmission(ctx context.Context, actor user.User, id string, file core.Upload) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{ID: id})
	if err != nil {
		return Submission{}, err
	}
	if s.StudentID != actor.ID {
		return Submission{}, core.ErrForbidden
	}
	// the student may have been removed from the project since
	if _, err = svc.getWithProject(ctx, actor, s.TaskID, svc.projSvc.GetForStudent); err != nil {
		return Submission{}, err
	}
	return svc.replaceFile(ctx, s, file)
}

func (svc *service) QuerySubmissions(ctx context.Context, actor user.User, taskID string) ([]SubmissionView, error) {
	t, err := svc.getWithProject(ctx, actor, taskID, svc.projSvc.GetForAdvisor)
	if err != nil {
		return nil, err
	}
	subs, err := svc.repo.QuerySubmissions(ctx, SubmissionFilter{TaskIDs: []string{t.ID}})
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}

	ids := make([]string, 0, len(subs))
	for _, s := range subs {
		ids = append(ids, s.StudentID)
	}
	students, err := svc.usrSvc.GetMany(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "finding students")
	}
	byID := make(map[string]user.User, len(students))
	for _, u := range students {
		byID[u.ID] = u
	}

	views := make([]SubmissionView, 0, len(subs))
	for _, s := range subs {
		v := SubmissionView{Submission: s, Student: user.Summary{ID: s.StudentID}}
		if u, ok := byID[s.StudentID]; ok {
			v.Student = user.Summary{ID: u.ID, Name: u.Name, Email: u.Email}
		}
		views = append(views, v)
	}
	return views, nil
}

func (svc *service) grade(ctx context.Context, actor user.User, s Submission, marks float64) (Submission, error) {
	if _, err := svc.getWithProject(ctx, actor, s.TaskID, svc.projSvc.GetForAdvisor); err != nil {
		return Submission{}, err
	}
	s.Marks = &marks
	s.Status = StatusEvaluated
	s.UpdatedAt = time.Now().UTC()
	s, err := svc.repo.UpdateSubmission(ctx, s)
	return s, errors.Wrap(err, "grading submission")
}

func (svc *service) Grade(ctx context.Context, actor user.User, id string, marks float64) (Submission, error) {
	s, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{ID: id})
	if err != nil {
		return Submission{}, err
	}
	return svc.grade(ctx, actor, s, marks)
}

func (svc *service) Evaluate(ctx context.Context, actor user.User, data Evaluate) (Submission, error) {
	if _, err := svc.getWithProject(ctx, actor, data.TaskID, svc.projSvc.GetForAdvisor); err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.GetSubmission(ctx, SubmissionGetFilter{TaskID: data.TaskID, StudentID: data.StudentID})
	if err != nil {
		return Submission{}, err
	}
	return svc.grade(ctx, actor, s, *data.Marks)
}

func (svc *service) CountSubmissions(ctx context.Context, taskID string) (int, int, error) {
	return svc.repo.CountSubmissions(ctx, taskID)
}
