package task

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

// Submission statuses
const (
	StatusPending   = "pending"
	StatusSubmitted = "submitted"
	StatusEvaluated = "evaluated"
)

type Task struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"project_id"`
	Name         string    `json:"name"`
	Instructions string    `json:"instructions"`
	FileURL      string    `json:"file_url"`
	CreatedBy    string    `json:"created_by"`
	IsDone       bool      `json:"is_done"`
	IsCompleted  bool      `json:"is_completed"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

type Submission struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	StudentID string    `json:"student_id"`
	FileURL   string    `json:"file_url"`
	Marks     *float64  `json:"marks"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

func (s Submission) IsEvaluated() bool { return s.Status == StatusEvaluated }

// SubmissionView is a Submission along with its student.
type SubmissionView struct {
	Submission
	Student user.Summary `json:"student"`
}

// StudentTask is a Task along with the requesting student's submission, if any.
type StudentTask struct {
	Task
	MySubmission *Submission `json:"my_submission"`
}

// NewTask contains information needed to create a new Task. It is received as a multipart form.
type NewTask struct {
	ProjectID    string `json:"project_id" form:"project_id" validate:"required"`
	Name         string `json:"name" form:"name" validate:"required,notblank"`
	Instructions string `json:"instructions" form:"instructions"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.ProjectID = core.CleanString(nt.ProjectID)
	nt.Name = core.CleanString(nt.Name)
	nt.Instructions = core.CleanString(nt.Instructions)
	return validate.Struct(nt)
}

// UpdateTask defines what information may be provided to modify an existing Task.
type UpdateTask struct {
	Name         *string `json:"name"`
	Instructions *string `json:"instructions"`
}

func (ut *UpdateTask) Validate() error {
	if ut.Name != nil {
		name := core.CleanString(*ut.Name)
		if name == "" {
			return core.NewValidationError(errBlankName, core.FieldError{Field: "name", Error: errBlankName.Error()})
		}
		ut.Name = &name
	}
	if ut.Instructions != nil {
		instr := core.CleanString(*ut.Instructions)
		ut.Instructions = &instr
	}
	return nil
}

type Grade struct {
	Marks *float64 `json:"marks" validate:"required,gte=0"`
}

func (g *Grade) Validate(validate *validator.Validate) error { return validate.Struct(g) }

// Evaluate grades the submission of a student for a task.
type Evaluate struct {
	TaskID    string   `json:"task_id" validate:"required"`
	StudentID string   `json:"student_id" validate:"required"`
	Marks     *float64 `json:"marks" validate:"required,gte=0"`
}

func (e *Evaluate) Validate(validate *validator.Validate) error {
	e.TaskID = core.CleanString(e.TaskID)
	e.StudentID = core.CleanString(e.StudentID)
	return validate.Struct(e)
}

// SubmissionFilter restricts queried submissions; empty fields are ignored.
type SubmissionFilter struct {
	TaskIDs   []string
	StudentID string
}

// SubmissionGetFilter selects one submission, by ID or by (TaskID, StudentID).
type SubmissionGetFilter struct {
	ID        string
	TaskID    string
	StudentID string
}
