package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	AdvisorIDs  []string  `json:"advisors"`
	StudentIDs  []string  `json:"students"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (p Project) HasAdvisor(id string) bool { return core.ContainsString(p.AdvisorIDs, id) }
func (p Project) HasStudent(id string) bool { return core.ContainsString(p.StudentIDs, id) }

// CanAdvise reports whether usr may act as an advisor of the project (admins always can).
func (p Project) CanAdvise(usr user.User) bool {
	return usr.IsAdmin() || p.HasAdvisor(usr.ID)
}

// CanAttend reports whether usr may act as a student of the project (admins always can).
func (p Project) CanAttend(usr user.User) bool {
	return usr.IsAdmin() || p.HasStudent(usr.ID)
}

// CanAccess reports whether usr is a member of the project, in any role.
func (p Project) CanAccess(usr user.User) bool {
	return p.CanAdvise(usr) || p.CanAttend(usr)
}

// View is a Project with its members populated.
type View struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Advisors    []user.Summary `json:"advisors"`
	Students    []user.Summary `json:"students"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewProject contains information needed to create a new Project.
type NewProject struct {
	Name        string   `json:"name" validate:"required,notblank"`
	Description string   `json:"description"`
	AdvisorIDs  []string `json:"advisor_ids"`
	StudentIDs  []string `json:"student_ids"`
}

func (np *NewProject) Validate(validate *validator.Validate) error {
	np.Name = core.CleanString(np.Name)
	np.Description = core.CleanString(np.Description)
	np.AdvisorIDs = core.UniqueStrings(np.AdvisorIDs)
	np.StudentIDs = core.UniqueStrings(np.StudentIDs)
	return validate.Struct(np)
}

// UpdateProject defines what information may be provided to modify an existing Project.
// Member lists, when present, replace the current ones.
type UpdateProject struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	AdvisorIDs  *[]string `json:"advisors"`
	StudentIDs  *[]string `json:"students"`
}

func (up *UpdateProject) Validate() error {
	if up.Name != nil {
		name := core.CleanString(*up.Name)
		if name == "" {
			return core.NewValidationError(errBlankName, core.FieldError{Field: "name", Error: errBlankName.Error()})
		}
		up.Name = &name
	}
	if up.Description != nil {
		desc := core.CleanString(*up.Description)
		up.Description = &desc
	}
	if up.AdvisorIDs != nil {
		ids := core.UniqueStrings(*up.AdvisorIDs)
		up.AdvisorIDs = &ids
	}
	if up.StudentIDs != nil {
		ids := core.UniqueStrings(*up.StudentIDs)
		up.StudentIDs = &ids
	}
	return nil
}

// AddStudent enrolls a student in a project.
type AddStudent struct {
	ProjectID string `json:"project_id" validate:"required"`
	StudentID string `json:"student_id" validate:"required"`
}

func (as *AddStudent) Validate(validate *validator.Validate) error {
	as.ProjectID = core.CleanString(as.ProjectID)
	as.StudentID = core.CleanString(as.StudentID)
	return validate.Struct(as)
}

// QueryFilter restricts queried projects; empty fields are ignored.
type QueryFilter struct {
	AdvisorID string
	StudentID string
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
