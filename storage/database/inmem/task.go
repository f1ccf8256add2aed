package inmemdb

import (
	"context"
	"sort"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/task"
)

type taskRepository struct {
	db *DB
}

var _ task.Repository = (*taskRepository)(nil)

func NewTaskRepository(db *DB) task.Repository {
	return &taskRepository{db: db}
}

func cloneSubmission(s task.Submission) task.Submission {
	if s.Marks != nil {
		marks := *s.Marks
		s.Marks = &marks
	}
	return s
}

func (repo *taskRepository) CreateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.projects[t.ProjectID]; !ok {
		return task.Task{}, errMissingRef("project", t.ProjectID)
	}
	t.ID = repo.db.newID()
	stored := t
	repo.db.tasks[t.ID] = &stored
	return t, nil
}

func (repo *taskRepository) QueryTasks(_ context.Context, projectID string) ([]task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]task.Task, 0)
	for _, t := range repo.db.tasks {
		if t.ProjectID == projectID {
			tasks = append(tasks, *t)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return repo.db.older(tasks[i].ID, tasks[i].CreatedAt, tasks[j].ID, tasks[j].CreatedAt)
	})
	return tasks, nil
}

func (repo *taskRepository) GetTask(_ context.Context, id string) (task.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if t, ok := repo.db.tasks[id]; ok {
		return *t, nil
	}
	return task.Task{}, task.ErrNotFound
}

func (repo *taskRepository) UpdateTask(_ context.Context, t task.Task) (task.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tasks[t.ID]; !ok {
		return task.Task{}, task.ErrNotFound
	}
	stored := t
	repo.db.tasks[t.ID] = &stored
	return t, nil
}

func (repo *taskRepository) DeleteTask(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tasks[id]; !ok {
		return task.ErrNotFound
	}
	repo.db.deleteTask(id)
	return nil
}

func (repo *taskRepository) CountTasks(_ context.Context, projectID string) (total int, completed int, err error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, t := range repo.db.tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.IsCompleted {
			completed++
		}
	}
	return total, completed, nil
}

func (repo *taskRepository) CreateSubmission(_ context.Context, s task.Submission) (task.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.tasks[s.TaskID]; !ok {
		return task.Submission{}, errMissingRef("task", s.TaskID)
	}
	if _, ok := repo.db.users[s.StudentID]; !ok {
		return task.Submission{}, errMissingRef("user", s.StudentID)
	}
	for _, existing := range repo.db.submissions {
		if existing.TaskID == s.TaskID && existing.StudentID == s.StudentID {
			return task.Submission{}, errDuplicate("submission")
		}
	}
	s.ID = repo.db.newID()
	stored := cloneSubmission(s)
	repo.db.submissions[s.ID] = &stored
	return s, nil
}

func (repo *taskRepository) QuerySubmissions(_ context.Context, filter task.SubmissionFilter) ([]task.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	subs := make([]task.Submission, 0)
	for _, s := range repo.db.submissions {
		if len(filter.TaskIDs) > 0 && !core.ContainsString(filter.TaskIDs, s.TaskID) {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, cloneSubmission(*s))
	}
	sort.Slice(subs, func(i, j int) bool {
		return repo.db.older(subs[i].ID, subs[i].CreatedAt, subs[j].ID, subs[j].CreatedAt)
	})
	return subs, nil
}

func (repo *taskRepository) GetSubmission(_ context.Context, filter task.SubmissionGetFilter) (task.Submission, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if s, ok := repo.db.submissions[filter.ID]; ok {
			return cloneSubmission(*s), nil
		}
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	for _, s := range repo.db.submissions {
		if s.TaskID == filter.TaskID && s.StudentID == filter.StudentID {
			return cloneSubmission(*s), nil
		}
	}
	return task.Submission{}, task.ErrSubmissionNotFound
}

func (repo *taskRepository) UpdateSubmission(_ context.Context, s task.Submission) (task.Submission, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.submissions[s.ID]; !ok {
		return task.Submission{}, task.ErrSubmissionNotFound
	}
	stored := cloneSubmission(s)
	repo.db.submissions[s.ID] = &stored
	return s, nil
}

func (repo *taskRepository) CountSubmissions(_ context.Context, taskID string) (total int, evaluated int, err error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, s := range repo.db.submissions {
		if s.TaskID != taskID {
			continue
		}
		total++
		if s.IsEvaluated() {
			evaluated++
		}
	}
	return total, evaluated, nil
}
