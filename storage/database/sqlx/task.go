package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fypcompass/compass/core/task"
)

const (
	taskColumns       = `id, project_id, name, instructions, file_url, created_by, is_done, is_completed, created_at, updated_at`
	submissionColumns = `id, task_id, student_id, file_url, marks, status, created_at, updated_at`
)

type (
	taskRow struct {
		ID           string      `db:"id"`
		ProjectID    string      `db:"project_id"`
		Name         string      `db:"name"`
		Instructions string      `db:"instructions"`
		FileURL      null.String `db:"file_url"`
		CreatedBy    null.String `db:"created_by"`
		IsDone       bool        `db:"is_done"`
		IsCompleted  bool        `db:"is_completed"`
		CreatedAt    null.Time   `db:"created_at"`
		UpdatedAt    null.Time   `db:"updated_at"`
	}

	submissionRow struct {
		ID        string       `db:"id"`
		TaskID    string       `db:"task_id"`
		StudentID string       `db:"student_id"`
		FileURL   string       `db:"file_url"`
		Marks     null.Float64 `db:"marks"`
		Status    string       `db:"status"`
		CreatedAt null.Time    `db:"created_at"`
		UpdatedAt null.Time    `db:"updated_at"`
	}

	countRow struct {
		Total int `db:"total"`
		Done  int `db:"done"`
	}
)

func toTaskRow(t task.Task) taskRow {
	return taskRow{
		ID:           t.ID,
		ProjectID:    t.ProjectID,
		Name:         t.Name,
		Instructions: t.Instructions,
		FileURL:      null.NewString(t.FileURL, t.FileURL != ""),
		CreatedBy:    null.NewString(t.CreatedBy, t.CreatedBy != ""),
		IsDone:       t.IsDone,
		IsCompleted:  t.IsCompleted,
		CreatedAt:    null.NewTime(t.CreatedAt.UTC(), !t.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(t.UpdatedAt.UTC(), !t.UpdatedAt.IsZero()),
	}
}

func (r taskRow) task() task.Task {
	return task.Task{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		Name:         r.Name,
		Instructions: r.Instructions,
		FileURL:      r.FileURL.String,
		CreatedBy:    r.CreatedBy.String,
		IsDone:       r.IsDone,
		IsCompleted:  r.IsCompleted,
		CreatedAt:    r.CreatedAt.Time.UTC(),
		UpdatedAt:    r.UpdatedAt.Time.UTC(),
	}
}

func toSubmissionRow(s task.Submission) submissionRow {
	return submissionRow{
		ID:        s.ID,
		TaskID:    s.TaskID,
		StudentID: s.StudentID,
		FileURL:   s.FileURL,
		Marks:     null.Float64FromPtr(s.Marks),
		Status:    s.Status,
		CreatedAt: null.NewTime(s.CreatedAt.UTC(), !s.CreatedAt.IsZero()),
		UpdatedAt: null.NewTime(s.UpdatedAt.UTC(), !s.UpdatedAt.IsZero()),
	}
}

func (r submissionRow) submission() task.Submission {
	return task.Submission{
		ID:        r.ID,
		TaskID:    r.TaskID,
		StudentID: r.StudentID,
		FileURL:   r.FileURL,
		Marks:     r.Marks.Ptr(),
		Status:    r.Status,
		CreatedAt: r.CreatedAt.Time.UTC(),
		UpdatedAt: r.UpdatedAt.Time.UTC(),
	}
}

type taskRepository struct {
	db *sqlx.DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *sqlx.DB) task.Repository {
	return &taskRepository{db: db}
}

func (repo *taskRepository) CreateTask(ctx context.Context, t task.Task) (task.Task, error) {
	t.ID = uuid.New().String()
	q := `INSERT INTO task (` + taskColumns + `) VALUES
		(:id, :project_id, :name, :instructions, :file_url, :created_by, :is_done, :is_completed, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toTaskRow(t)); err != nil {
		return task.Task{}, errors.Wrap(err, "inserting task")
	}
	return t, nil
}

func (repo *taskRepository) QueryTasks(ctx context.Context, projectID string) ([]task.Task, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return []task.Task{}, nil
	}
	var rows []taskRow
	q := `SELECT ` + taskColumns + ` FROM task WHERE project_id = $1 ORDER BY created_at, id`
	if err := repo.db.SelectContext(ctx, &rows, q, projectID); err != nil {
		return nil, errors.Wrap(err, "selecting tasks")
	}
	tasks := make([]task.Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.task())
	}
	return tasks, nil
}

func (repo *taskRepository) GetTask(ctx context.Context, id string) (task.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return task.Task{}, task.ErrNotFound
	}
	var row taskRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+taskColumns+` FROM task WHERE id = $1`, id); err != nil {
		return task.Task{}, trapNoRows(err, task.ErrNotFound, "selecting task")
	}
	return row.task(), nil
}

func (repo *taskRepository) UpdateTask(ctx context.Context, t task.Task) (task.Task, error) {
	q := `UPDATE task SET name = :name, instructions = :instructions, file_url = :file_url,
		is_done = :is_done, is_completed = :is_completed, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toTaskRow(t))
	if err != nil {
		return task.Task{}, errors.Wrap(err, "updating task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

func (repo *taskRepository) DeleteTask(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return task.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM task WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting task")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.ErrNotFound
	}
	return nil
}

func (repo *taskRepository) CountTasks(ctx context.Context, projectID string) (int, int, error) {
	if _, err := uuid.Parse(projectID); err != nil {
		return 0, 0, nil
	}
	var c countRow
	q := `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE is_completed) AS done FROM task WHERE project_id = $1`
	if err := repo.db.GetContext(ctx, &c, q, projectID); err != nil {
		return 0, 0, errors.Wrap(err, "counting tasks")
	}
	return c.Total, c.Done, nil
}

func (repo *taskRepository) CreateSubmission(ctx context.Context, s task.Submission) (task.Submission, error) {
	s.ID = uuid.New().String()
	q := `INSERT INTO submission (` + submissionColumns + `) VALUES
		(:id, :task_id, :student_id, :file_url, :marks, :status, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toSubmissionRow(s)); err != nil {
		return task.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *taskRepository) QuerySubmissions(ctx context.Context, filter task.SubmissionFilter) ([]task.Submission, error) {
	var (
		conds []string
		args  []interface{}
	)
	if len(filter.TaskIDs) > 0 {
		ids := validUUIDs(filter.TaskIDs)
		if len(ids) == 0 {
			return []task.Submission{}, nil
		}
		conds = append(conds, `task_id IN (?)`)
		args = append(args, ids)
	}
	if filter.StudentID != "" {
		conds = append(conds, `student_id::text = ?`)
		args = append(args, filter.StudentID)
	}

	q := `SELECT ` + submissionColumns + ` FROM submission`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += ` ORDER BY created_at, id`

	var rows []submissionRow
	if err := selectIn(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting submissions")
	}
	subs := make([]task.Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.submission())
	}
	return subs, nil
}

func (repo *taskRepository) GetSubmission(ctx context.Context, filter task.SubmissionGetFilter) (task.Submission, error) {
	var (
		row submissionRow
		err error
	)
	q := `SELECT ` + submissionColumns + ` FROM submission WHERE `
	if filter.ID != "" {
		if _, perr := uuid.Parse(filter.ID); perr != nil {
			return task.Submission{}, task.ErrSubmissionNotFound
		}
		err = repo.db.GetContext(ctx, &row, q+`id = $1`, filter.ID)
	} else {
		err = repo.db.GetContext(ctx, &row, q+`task_id::text = $1 AND student_id::text = $2`, filter.TaskID, filter.StudentID)
	}
	if err != nil {
		return task.Submission{}, trapNoRows(err, task.ErrSubmissionNotFound, "selecting submission")
	}
	return row.submission(), nil
}

func (repo *taskRepository) UpdateSubmission(ctx context.Context, s task.Submission) (task.Submission, error) {
	q := `UPDATE submission SET file_url = :file_url, marks = :marks, status = :status, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toSubmissionRow(s))
	if err != nil {
		return task.Submission{}, errors.Wrap(err, "updating submission")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	return s, nil
}

func (repo *taskRepository) CountSubmissions(ctx context.Context, taskID string) (int, int, error) {
	if _, err := uuid.Parse(taskID); err != nil {
		return 0, 0, nil
	}
	var c countRow
	q := `SELECT COUNT(*) AS total, COUNT(*) FILTER (WHERE status = $2) AS done FROM submission WHERE task_id = $1`
	if err := repo.db.GetContext(ctx, &c, q, taskID, task.StatusEvaluated); err != nil {
		return 0, 0, errors.Wrap(err, "counting submissions")
	}
	return c.Total, c.Done, nil
}
