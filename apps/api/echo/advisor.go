package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
)

type advisorApi struct {
	deps ServerDeps
}

// registerAdvisorAPI expects g to be restricted to advisors & admins.
func registerAdvisorAPI(g *echo.Group, deps ServerDeps) {
	api := advisorApi{deps: deps}

	g.POST("/create-project", api.createProject)
	g.POST("/add-student", api.addStudent)
	g.GET("/projects", api.queryProjects)
	g.DELETE("/projects/:projectId", api.destroyProject)
	g.GET("/projects/:projectId/tasks", api.queryTasks)
	g.GET("/students", api.queryStudents)

	g.POST("/create-task", api.createTask)
	g.PATCH("/tasks/:taskId", api.updateTask)
	g.DELETE("/tasks/:taskId", api.destroyTask)
	g.PATCH("/tasks/:taskId/complete", api.completeTask)
	g.GET("/tasks/:taskId/submissions", api.querySubmissions)

	g.PATCH("/submissions/:submissionId/grade", api.grade)
	g.POST("/evaluate-task", api.evaluate)
}

// Projects

func (api *advisorApi) createProject(ctx echo.Context) error {
	return createProject(ctx, api.deps)
}

func (api *advisorApi) addStudent(ctx echo.Context) error {
	var data project.AddStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudent")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	p, err := api.deps.ProjectSvc.AddStudent(ctx.Request().Context(), ctxUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "adding student")
	}
	return projectResponse(ctx, api.deps, http.StatusOK, p)
}

func (api *advisorApi) queryProjects(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.View{})
	}
	filter.Clean()
	if usr := ctxUser(ctx); !usr.IsAdmin() {
		filter.AdvisorID = usr.ID
	}
	return queryProjects(ctx, api.deps, filter)
}

func (api *advisorApi) destroyProject(ctx echo.Context) error {
	return destroyProject(ctx, api.deps, ctx.Param("projectId"))
}

func (api *advisorApi) queryTasks(ctx echo.Context) error {
	tasks, err := api.deps.TaskSvc.QueryForAdvisor(ctx.Request().Context(), ctxUser(ctx), ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *advisorApi) queryStudents(ctx echo.Context) error {
	filter := &user.QueryFilter{Search: ctx.QueryParam("search"), Roles: []string{user.RoleStudent}}
	filter.Clean()
	students, err := api.deps.UserSvc.Query(
		ctx.Request().Context(), filter, []core.DBOrdering{{Field: "name", Ascending: true}},
	)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	res := make([]user.Summary, 0, len(students))
	for _, s := range students {
		res = append(res, user.Summary{ID: s.ID, Name: s.Name, Email: s.Email})
	}
	return ctx.JSON(http.StatusOK, res)
}

// Tasks

func (api *advisorApi) createTask(ctx echo.Context) error {
	var data task.NewTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTask")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	upload, closeFile, ok, err := formFile(ctx, "file")
	if err != nil {
		return err
	}
	var file *core.Upload
	if ok {
		defer closeFile()
		file = &upload
	}

	t, err := api.deps.TaskSvc.Create(ctx.Request().Context(), ctxUser(ctx), data, file)
	if err != nil {
		return errors.Wrap(err, "creating task")
	}
	return ctx.JSON(http.StatusCreated, t)
}

func (api *advisorApi) updateTask(ctx echo.Context) error {
	var data task.UpdateTask
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTask")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	t, err := api.deps.TaskSvc.Update(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId"), data)
	if err != nil {
		return errors.Wrap(err, "updating task")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *advisorApi) destroyTask(ctx echo.Context) error {
	if err := api.deps.TaskSvc.Delete(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId")); err != nil {
		return errors.Wrap(err, "deleting task")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

func (api *advisorApi) completeTask(ctx echo.Context) error {
	t, err := api.deps.TaskSvc.Complete(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId"))
	if err != nil {
		return errors.Wrap(err, "completing task")
	}
	return ctx.JSON(http.StatusOK, t)
}

// Submissions

func (api *advisorApi) querySubmissions(ctx echo.Context) error {
	subs, err := api.deps.TaskSvc.QuerySubmissions(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *advisorApi) grade(ctx echo.Context) error {
	var data task.Grade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Grade")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	s, err := api.deps.TaskSvc.Grade(ctx.Request().Context(), ctxUser(ctx), ctx.Param("submissionId"), *data.Marks)
	if err != nil {
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *advisorApi) evaluate(ctx echo.Context) error {
	var data task.Evaluate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Evaluate")
	}
	if err := data.Validate(api.deps.Validate); err != nil {
		return err
	}

	s, err := api.deps.TaskSvc.Evaluate(ctx.Request().Context(), ctxUser(ctx), data)
	if err != nil {
		return errors.Wrap(err, "evaluating task")
	}
	return ctx.JSON(http.StatusOK, s)
}
