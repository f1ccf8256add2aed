package project

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/user"
)

var (
	// errors
	ErrNotFound  = core.NewNotFoundError("project")
	errBlankName = errors.New("name cannot be blank")

	// OrderingFields are the fields projects can be ordered by.
	OrderingFields = []string{"name", "created_at", "updated_at"}
)

type (
	Repository interface {
		CreateProject(ctx context.Context, p Project) (Project, error)
		QueryProjects(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error)
		GetProject(ctx context.Context, id string) (Project, error)
		// UpdateProject saves the project fields and replaces its member lists.
		UpdateProject(ctx context.Context, p Project) (Project, error)
		// DeleteProject also deletes the project's tasks, their submissions and the project's messages.
		DeleteProject(ctx context.Context, id string) error
	}

	Service interface {
		// Create saves a new project. When actor is an advisor, they become its sole initial advisor.
		Create(ctx context.Context, actor user.User, np NewProject) (Project, error)
		Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error)
		Get(ctx context.Context, id string) (Project, error)
		// GetForAdvisor returns the project if actor can advise it, core.ErrForbidden otherwise.
		GetForAdvisor(ctx context.Context, actor user.User, id string) (Project, error)
		// GetForStudent returns the project if actor attends it, core.ErrForbidden otherwise.
		GetForStudent(ctx context.Context, actor user.User, id string) (Project, error)
		// GetForMember returns the project if actor is any kind of member, core.ErrForbidden otherwise.
		GetForMember(ctx context.Context, actor user.User, id string) (Project, error)
		Update(ctx context.Context, p Project, up UpdateProject) (Project, error)
		// AddStudent enrolls a student; enrolling twice is a no-op.
		AddStudent(ctx context.Context, actor user.User, data AddStudent) (Project, error)
		Delete(ctx context.Context, actor user.User, id string) error
		Populate(ctx context.Context, projects ...Project) ([]View, error)
		// NamesByMember maps each user ID to the names of the projects they belong to.
		NamesByMember(ctx context.Context) (map[string][]string, error)
	}

	service struct {
		repo   Repository
		usrSvc user.Service
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, usrSvc user.Service) Service {
	return &service{repo: repo, usrSvc: usrSvc}
}

// checkMembers ensures every ID belongs to an existing user holding role.
func (svc *service) checkMembers(ctx context.Context, field, role string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := svc.usrSvc.GetMany(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "finding members")
	}
	found := make(map[string]user.User, len(users))
	for _, u := range users {
		found[u.ID] = u
	}
	for _, id := range ids {
		if u, ok := found[id]; !ok || u.Role != role {
			msg := fmt.Sprintf("%q is not a valid %s", id, role)
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: field, Error: msg})
		}
	}
	return nil
}

func (svc *service) Create(ctx context.Context, actor user.User, np NewProject) (Project, error) {
	if actor.IsAdvisor() {
		np.AdvisorIDs = []string{actor.ID}
	} else if err := svc.checkMembers(ctx, "advisor_ids", user.RoleAdvisor, np.AdvisorIDs); err != nil {
		return Project{}, err
	}
	if err := svc.checkMembers(ctx, "student_ids", user.RoleStudent, np.StudentIDs); err != nil {
		return Project{}, err
	}

	now := time.Now().UTC()
	p := Project{
		Name:        np.Name,
		Description: np.Description,
		AdvisorIDs:  nonNil(np.AdvisorIDs),
		StudentIDs:  nonNil(np.StudentIDs),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	p, err := svc.repo.CreateProject(ctx, p)
	return p, errors.Wrap(err, "creating project")
}

func (svc *service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error) {
	return svc.repo.QueryProjects(ctx, filter, ordering)
}

func (svc *service) Get(ctx context.Context, id string) (Project, error) {
	return svc.repo.GetProject(ctx, id)
}

func (svc *service) getIf(ctx context.Context, id string, allowed func(Project) bool) (Project, error) {
	p, err := svc.Get(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if !allowed(p) {
		return Project{}, core.ErrForbidden
	}
	return p, nil
}

func (svc *service) GetForAdvisor(ctx context.Context, actor user.User, id string) (Project, error) {
	return svc.getIf(ctx, id, func(p Project) bool { return p.CanAdvise(actor) })
}

func (svc *service) GetForStudent(ctx context.Context, actor user.User, id string) (Project, error) {
	return svc.getIf(ctx, id, func(p Project) bool { return p.CanAttend(actor) })
}

func (svc *service) GetForMember(ctx context.Context, actor user.User, id string) (Project, error) {
	return svc.getIf(ctx, id, func(p Project) bool { return p.CanAccess(actor) })
}

func (svc *service) Update(ctx context.Context, p Project, up UpdateProject) (Project, error) {
	if up.Name != nil {
		p.Name = *up.Name
	}
	if up.Description != nil {
		p.Description = *up.Description
	}
	if up.AdvisorIDs != nil {
		if err := svc.checkMembers(ctx, "advisors", user.RoleAdvisor, *up.AdvisorIDs); err != nil {
			return Project{}, err
		}
		p.AdvisorIDs = nonNil(*up.AdvisorIDs)
	}
	if up.StudentIDs != nil {
		if err := svc.checkMembers(ctx, "students", user.RoleStudent, *up.StudentIDs); err != nil {
			return Project{}, err
		}
		p.StudentIDs = nonNil(*up.StudentIDs)
	}
	p.UpdatedAt = time.Now().UTC()
	p, err := svc.repo.UpdateProject(ctx, p)
	return p, errors.Wrap(err, "updating project")
}

func (svc *service) AddStudent(ctx context.Context, actor user.User, data AddStudent) (Project, error) {
	p, err := svc.GetForAdvisor(ctx, actor, data.ProjectID)
	if err != nil {
		return Project{}, err
	}
	if err = svc.checkMembers(ctx, "student_id", user.RoleStudent, []string{data.StudentID}); err != nil {
		return Project{}, err
	}
	if p.HasStudent(data.StudentID) {
		return p, nil
	}

	p.StudentIDs = append(p.StudentIDs, data.StudentID)
	p.UpdatedAt = time.Now().UTC()
	p, err = svc.repo.UpdateProject(ctx, p)
	return p, errors.Wrap(err, "adding student")
}

func (svc *service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.GetForAdvisor(ctx, actor, id); err != nil {
		return err
	}
	return errors.Wrap(svc.repo.DeleteProject(ctx, id), "deleting project")
}

func (svc *service) Populate(ctx context.Context, projects ...Project) ([]View, error) {
	ids := make([]string, 0)
	for _, p := range projects {
		ids = append(ids, p.AdvisorIDs...)
		ids = append(ids, p.StudentIDs...)
	}
	users, err := svc.usrSvc.GetMany(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "finding members")
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	summaries := func(ids []string) []user.Summary {
		out := make([]user.Summary, 0, len(ids))
		for _, id := range ids {
			if u, ok := byID[id]; ok {
				out = append(out, user.Summary{ID: u.ID, Name: u.Name, Email: u.Email})
			}
		}
		return out
	}

	views := make([]View, 0, len(projects))
	for _, p := range projects {
		views = append(views, View{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Advisors:    summaries(p.AdvisorIDs),
			Students:    summaries(p.StudentIDs),
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		})
	}
	return views, nil
}

func (svc *service) NamesByMember(ctx context.Context) (map[string][]string, error) {
	projects, err := svc.repo.QueryProjects(ctx, nil, []core.DBOrdering{{Field: "name", Ascending: true}})
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	names := make(map[string][]string)
	for _, p := range projects {
		for _, id := range core.UniqueStrings(append(append([]string{}, p.AdvisorIDs...), p.StudentIDs...)) {
			names[id] = append(names[id], p.Name)
		}
	}
	return names, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
