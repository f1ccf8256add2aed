package inmemdb

import (
	"context"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
)

type projectRepository struct {
	db *DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *DB) project.Repository {
	return &projectRepository{db: db}
}

func cloneProject(p project.Project) project.Project {
	p.AdvisorIDs = copyStrings(p.AdvisorIDs)
	p.StudentIDs = copyStrings(p.StudentIDs)
	return p
}

func (repo *projectRepository) CreateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p.ID = repo.db.newID()
	stored := cloneProject(p)
	repo.db.projects[p.ID] = &stored
	return cloneProject(p), nil
}

func (repo *projectRepository) QueryProjects(_ context.Context, filter *project.QueryFilter, ordering []core.DBOrdering) ([]project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	projects := make([]project.Project, 0, len(repo.db.projects))
	for _, p := range repo.db.projects {
		if filter != nil {
			if filter.AdvisorID != "" && !p.HasAdvisor(filter.AdvisorID) {
				continue
			}
			if filter.StudentID != "" && !p.HasStudent(filter.StudentID) {
				continue
			}
			if filter.Search != "" && !containsFold(p.Name, filter.Search) {
				continue
			}
		}
		projects = append(projects, cloneProject(*p))
	}

	fields := map[string]compareFunc{
		"name":       func(i, j int) int { return compareStrings(projects[i].Name, projects[j].Name) },
		"created_at": func(i, j int) int { return compareTimes(projects[i].CreatedAt, projects[j].CreatedAt) },
		"updated_at": func(i, j int) int { return compareTimes(projects[i].UpdatedAt, projects[j].UpdatedAt) },
	}
	sortBy(len(projects), func(i, j int) { projects[i], projects[j] = projects[j], projects[i] }, ordering, fields,
		func(i, j int) bool {
			return repo.db.older(projects[i].ID, projects[i].CreatedAt, projects[j].ID, projects[j].CreatedAt)
		})
	return projects, nil
}

func (repo *projectRepository) GetProject(_ context.Context, id string) (project.Project, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.projects[id]; ok {
		return cloneProject(*p), nil
	}
	return project.Project{}, project.ErrNotFound
}

func (repo *projectRepository) UpdateProject(_ context.Context, p project.Project) (project.Project, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.projects[p.ID]; !ok {
		return project.Project{}, project.ErrNotFound
	}
	stored := cloneProject(p)
	repo.db.projects[p.ID] = &stored
	return cloneProject(p), nil
}

func (repo *projectRepository) DeleteProject(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.projects[id]; !ok {
		return project.ErrNotFound
	}
	repo.db.deleteProject(id)
	return nil
}
