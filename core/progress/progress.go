// Package progress derives completion percentages from tasks and submissions.
package progress

import (
	"context"
	"math"
	"strconv"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
)

// Percentage returns round(100 * done / total), clamped to [0, 100]. It is 0 when total <= 0.
func Percentage(done, total int) int {
	if total <= 0 || done <= 0 {
		return 0
	}
	if done >= total {
		return 100
	}
	return int(math.Round(100 * float64(done) / float64(total)))
}

func label(pct int) string { return strconv.Itoa(pct) + "%" }

type (
	ProjectReport struct {
		ProjectID            string `json:"project_id"`
		TotalTasks           int    `json:"total_tasks"`
		CompletedTasks       int    `json:"completed_tasks"`
		CompletionPercentage int    `json:"completion_percentage"`
		Progress             string `json:"progress"`
	}

	TaskReport struct {
		TaskID               string `json:"task_id"`
		TotalSubmissions     int    `json:"total_submissions"`
		EvaluatedSubmissions int    `json:"evaluated_submissions"`
		CompletionPercentage int    `json:"completion_percentage"`
		Progress             string `json:"progress"`
	}

	Service interface {
		// ForProject reports the share of completed tasks of a project.
		ForProject(ctx context.Context, actor user.User, projectID string) (ProjectReport, error)
		// ForTask reports the share of evaluated submissions of a task.
		ForTask(ctx context.Context, actor user.User, taskID string) (TaskReport, error)
	}

	service struct {
		projSvc project.Service
		taskSvc task.Service
	}
)

var _ Service = (*service)(nil)

func NewService(projSvc project.Service, taskSvc task.Service) Service {
	return &service{projSvc: projSvc, taskSvc: taskSvc}
}

func (svc *service) ForProject(ctx context.Context, actor user.User, projectID string) (ProjectReport, error) {
	if _, err := svc.projSvc.GetForMember(ctx, actor, projectID); err != nil {
		return ProjectReport{}, err
	}
	total, completed, err := svc.taskSvc.CountByProject(ctx, projectID)
	if err != nil {
		return ProjectReport{}, errors.Wrap(err, "counting tasks")
	}
	pct := Percentage(completed, total)
	return ProjectReport{
		ProjectID:            projectID,
		TotalTasks:           total,
		CompletedTasks:       completed,
		CompletionPercentage: pct,
		Progress:             label(pct),
	}, nil
}

func (svc *service) ForTask(ctx context.Context, actor user.User, taskID string) (TaskReport, error) {
	t, err := svc.taskSvc.GetForMember(ctx, actor, taskID)
	if err != nil {
		return TaskReport{}, err
	}
	total, evaluated, err := svc.taskSvc.CountSubmissions(ctx, t.ID)
	if err != nil {
		return TaskReport{}, errors.Wrap(err, "counting submissions")
	}
	pct := Percentage(evaluated, total)
	return TaskReport{
		TaskID:               t.ID,
		TotalSubmissions:     total,
		EvaluatedSubmissions: evaluated,
		CompletionPercentage: pct,
		Progress:             label(pct),
	}, nil
}
