package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/user"
)

var errCannotDeactivateSelf = core.NewValidationError(errors.New("you cannot deactivate your own account"))

type adminApi struct {
	deps ServerDeps
}

// registerAdminAPI expects g to be restricted to admins.
func registerAdminAPI(g *echo.Group, deps ServerDeps) {
	api := adminApi{deps: deps}

	g.POST("/create-user", api.createUser)
	g.GET("/users", api.queryUsers)
	g.PATCH("/users/:id", api.updateUser)
	g.DELETE("/users/:id", api.destroyUser)

	g.POST("/create-project", api.createProject)
	g.GET("/projects", api.queryProjects)
	g.PATCH("/projects/:id", api.updateProject)
	g.DELETE("/projects/:id", api.destroyProject)
}

// Users

func (api *adminApi) createUser(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	usr, err := api.deps.UserSvc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *adminApi) queryUsers(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.WithProjects{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, user.OrderingFields)

	rctx := ctx.Request().Context()
	users, err := api.deps.UserSvc.Query(rctx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	names, err := api.deps.ProjectSvc.NamesByMember(rctx)
	if err != nil {
		return errors.Wrap(err, "finding project names")
	}

	res := make([]user.WithProjects, 0, len(users))
	for _, usr := range users {
		projects := names[usr.ID]
		if projects == nil {
			projects = []string{}
		}
		res = append(res, user.WithProjects{User: usr, Projects: projects})
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *adminApi) updateUser(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	var data user.UpdateUser
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err = data.Validate(api.deps.Validate); err != nil {
		return err
	}
	if usr.ID == ctxUser(ctx).ID && data.IsActive != nil && !*data.IsActive {
		return errCannotDeactivateSelf
	}

	usr, err = api.deps.UserSvc.Update(rctx, usr, data)
	if err != nil {
		return errors.Wrap(err, "updating user")
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *adminApi) destroyUser(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	usr, err := api.deps.UserSvc.GetByID(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding user by ID")
	}

	// Say No to Suicide! ctxUser cannot delete themselves
	if usr.ID == ctxUser(ctx).ID {
		return errHttpForbidden
	}

	if err = api.deps.UserSvc.Delete(rctx, usr.ID); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// Projects

func (api *adminApi) createProject(ctx echo.Context) error {
	return createProject(ctx, api.deps)
}

func (api *adminApi) queryProjects(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.View{})
	}
	filter.Clean()
	return queryProjects(ctx, api.deps, filter)
}

func (api *adminApi) updateProject(ctx echo.Context) error {
	rctx := ctx.Request().Context()
	p, err := api.deps.ProjectSvc.Get(rctx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding project by ID")
	}

	var data project.UpdateProject
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProject")
	}
	if err = data.Validate(); err != nil {
		return err
	}

	p, err = api.deps.ProjectSvc.Update(rctx, p, data)
	if err != nil {
		return errors.Wrap(err, "updating project")
	}
	return projectResponse(ctx, api.deps, http.StatusOK, p)
}

func (api *adminApi) destroyProject(ctx echo.Context) error {
	return destroyProject(ctx, api.deps, ctx.Param("id"))
}

// shared project handlers

func createProject(ctx echo.Context, deps ServerDeps) error {
	var data project.NewProject
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProject")
	}
	if err := data.Validate(deps.Validate); err != nil {
		return err
	}

	p, err := deps.ProjectSvc.Create(ctx.Request().Context(), ctxUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "creating project")
	}
	return projectResponse(ctx, deps, http.StatusCreated, p)
}

func queryProjects(ctx echo.Context, deps ServerDeps, filter *project.QueryFilter) error {
	ordering := new(Ordering)
	ordering.Bind(ctx, project.OrderingFields)

	rctx := ctx.Request().Context()
	projects, err := deps.ProjectSvc.Query(rctx, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	views, err := deps.ProjectSvc.Populate(rctx, projects...)
	if err != nil {
		return errors.Wrap(err, "populating projects")
	}
	return ctx.JSON(http.StatusOK, views)
}

func destroyProject(ctx echo.Context, deps ServerDeps, id string) error {
	if err := deps.ProjectSvc.Delete(ctx.Request().Context(), ctxUser(ctx), id); err != nil {
		return errors.Wrap(err, "deleting project")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Project deleted successfully"})
}

func projectResponse(ctx echo.Context, deps ServerDeps, code int, p project.Project) error {
	views, err := deps.ProjectSvc.Populate(ctx.Request().Context(), p)
	if err != nil {
		return errors.Wrap(err, "populating project")
	}
	return ctx.JSON(code, views[0])
}
