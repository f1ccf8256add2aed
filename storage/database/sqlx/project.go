package sqlxrepos

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
)

const projectColumns = `id, name, description, created_at, updated_at`

type (
	projectRow struct {
		ID          string    `db:"id"`
		Name        string    `db:"name"`
		Description string    `db:"description"`
		CreatedAt   null.Time `db:"created_at"`
		UpdatedAt   null.Time `db:"updated_at"`
	}

	memberRow struct {
		ProjectID string `db:"project_id"`
		UserID    string `db:"user_id"`
	}
)

func toProjectRow(p project.Project) projectRow {
	return projectRow{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   null.NewTime(p.CreatedAt.UTC(), !p.CreatedAt.IsZero()),
		UpdatedAt:   null.NewTime(p.UpdatedAt.UTC(), !p.UpdatedAt.IsZero()),
	}
}

func (r projectRow) project() project.Project {
	return project.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		AdvisorIDs:  []string{},
		StudentIDs:  []string{},
		CreatedAt:   r.CreatedAt.Time.UTC(),
		UpdatedAt:   r.UpdatedAt.Time.UTC(),
	}
}

type projectRepository struct {
	db *sqlx.DB
}

var _ project.Repository = (*projectRepository)(nil)

func NewProjectRepository(db *sqlx.DB) project.Repository {
	return &projectRepository{db: db}
}

// setMembers replaces the rows of a member table, keeping the order of ids.
func setMembers(ctx context.Context, tx *sqlx.Tx, table, projectID string, ids []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE project_id = $1`, projectID); err != nil {
		return errors.Wrapf(err, "clearing %s", table)
	}
	for pos, id := range ids {
		q := `INSERT INTO ` + table + ` (project_id, user_id, position) VALUES ($1, $2, $3)`
		if _, err := tx.ExecContext(ctx, q, projectID, id, pos); err != nil {
			return errors.Wrapf(err, "inserting into %s", table)
		}
	}
	return nil
}

func saveMembers(ctx context.Context, tx *sqlx.Tx, p project.Project) error {
	if err := setMembers(ctx, tx, "project_advisor", p.ID, p.AdvisorIDs); err != nil {
		return err
	}
	return setMembers(ctx, tx, "project_student", p.ID, p.StudentIDs)
}

// populate loads the member lists of projects.
func (repo *projectRepository) populate(ctx context.Context, rows []projectRow) ([]project.Project, error) {
	projects := make([]project.Project, 0, len(rows))
	if len(rows) == 0 {
		return projects, nil
	}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}

	members := func(table string) (map[string][]string, error) {
		var mrs []memberRow
		q := `SELECT project_id, user_id FROM ` + table + ` WHERE project_id IN (?) ORDER BY position`
		if err := selectIn(ctx, repo.db, &mrs, q, ids); err != nil {
			return nil, errors.Wrapf(err, "selecting %s", table)
		}
		byProject := make(map[string][]string)
		for _, m := range mrs {
			byProject[m.ProjectID] = append(byProject[m.ProjectID], m.UserID)
		}
		return byProject, nil
	}
	advisors, err := members("project_advisor")
	if err != nil {
		return nil, err
	}
	students, err := members("project_student")
	if err != nil {
		return nil, err
	}

	for _, r := range rows {
		p := r.project()
		if a := advisors[p.ID]; a != nil {
			p.AdvisorIDs = a
		}
		if s := students[p.ID]; s != nil {
			p.StudentIDs = s
		}
		projects = append(projects, p)
	}
	return projects, nil
}

func (repo *projectRepository) CreateProject(ctx context.Context, p project.Project) (project.Project, error) {
	p.ID = uuid.New().String()
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO project (` + projectColumns + `) VALUES (:id, :name, :description, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, q, toProjectRow(p)); err != nil {
			return errors.Wrap(err, "inserting project")
		}
		return saveMembers(ctx, tx, p)
	})
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

func (repo *projectRepository) QueryProjects(ctx context.Context, filter *project.QueryFilter, ordering []core.DBOrdering) ([]project.Project, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.AdvisorID != "" {
			conds = append(conds, `id IN (SELECT project_id FROM project_advisor WHERE user_id::text = ?)`)
			args = append(args, filter.AdvisorID)
		}
		if filter.StudentID != "" {
			conds = append(conds, `id IN (SELECT project_id FROM project_student WHERE user_id::text = ?)`)
			args = append(args, filter.StudentID)
		}
		if filter.Search != "" {
			conds = append(conds, `name ILIKE ?`)
			args = append(args, "%"+filter.Search+"%")
		}
	}

	q := `SELECT ` + projectColumns + ` FROM project`
	if len(conds) > 0 {
		q += ` WHERE ` + strings.Join(conds, " AND ")
	}
	q += orderBy(ordering, project.OrderingFields, "created_at ASC")

	var rows []projectRow
	if err := selectIn(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "selecting projects")
	}
	return repo.populate(ctx, rows)
}

func (repo *projectRepository) GetProject(ctx context.Context, id string) (project.Project, error) {
	if _, err := uuid.Parse(id); err != nil {
		return project.Project{}, project.ErrNotFound
	}
	var row projectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT `+projectColumns+` FROM project WHERE id = $1`, id); err != nil {
		return project.Project{}, trapNoRows(err, project.ErrNotFound, "selecting project")
	}
	projects, err := repo.populate(ctx, []projectRow{row})
	if err != nil {
		return project.Project{}, err
	}
	return projects[0], nil
}

func (repo *projectRepository) UpdateProject(ctx context.Context, p project.Project) (project.Project, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `UPDATE project SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
		res, err := tx.NamedExecContext(ctx, q, toProjectRow(p))
		if err != nil {
			return errors.Wrap(err, "updating project")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return project.ErrNotFound
		}
		return saveMembers(ctx, tx, p)
	})
	if err != nil {
		return project.Project{}, err
	}
	return p, nil
}

// DeleteProject relies on foreign keys to drop tasks, submissions & messages.
func (repo *projectRepository) DeleteProject(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return project.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM project WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting project")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return project.ErrNotFound
	}
	return nil
}
