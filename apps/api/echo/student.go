package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
)

type studentApi struct {
	deps ServerDeps
}

// registerStudentAPI expects g to be restricted to students.
func registerStudentAPI(g *echo.Group, deps ServerDeps) {
	api := studentApi{deps: deps}

	g.POST("/submit-task", api.submitTask)
	g.GET("/projects", api.queryProjects)
	g.GET("/projects/:projectId/tasks", api.queryTasks)
	g.GET("/tasks/:taskId", api.retrieveTask)
	g.PATCH("/submissions/:submissionId", api.editSubmission)
}

func (api *studentApi) submitTask(ctx echo.Context) error {
	taskID := core.CleanString(ctx.FormValue("task_id"))
	if taskID == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "task_id", Error: "task_id is required"})
	}
	upload, closeFile, err := requiredFile(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	s, created, err := api.deps.TaskSvc.Submit(ctx.Request().Context(), ctxUser(ctx), taskID, upload)
	if err != nil {
		return errors.Wrap(err, "submitting task")
	}
	if created {
		return ctx.JSON(http.StatusCreated, s)
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *studentApi) queryProjects(ctx echo.Context) error {
	filter := new(project.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.View{})
	}
	filter.Clean()
	filter.AdvisorID = ""
	filter.StudentID = ctxUser(ctx).ID
	return queryProjects(ctx, api.deps, filter)
}

func (api *studentApi) queryTasks(ctx echo.Context) error {
	tasks, err := api.deps.TaskSvc.QueryForStudent(ctx.Request().Context(), ctxUser(ctx), ctx.Param("projectId"))
	if err != nil {
		return errors.Wrap(err, "querying tasks")
	}
	return ctx.JSON(http.StatusOK, tasks)
}

func (api *studentApi) retrieveTask(ctx echo.Context) error {
	st, err := api.deps.TaskSvc.GetForStudent(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId"))
	if err != nil {
		return errors.Wrap(err, "finding task")
	}
	return ctx.JSON(http.StatusOK, StudentTaskResponse{Task: st.Task, MySubmission: st.MySubmission})
}

func (api *studentApi) editSubmission(ctx echo.Context) error {
	upload, closeFile, err := requiredFile(ctx)
	if err != nil {
		return err
	}
	defer closeFile()

	s, err := api.deps.TaskSvc.EditSubmission(ctx.Request().Context(), ctxUser(ctx), ctx.Param("submissionId"), upload)
	if err != nil {
		return errors.Wrap(err, "editing submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

// requiredFile returns the "file" upload, or a validation error when it is missing.
func requiredFile(ctx echo.Context) (core.Upload, func(), error) {
	upload, closeFile, ok, err := formFile(ctx, "file")
	if err != nil {
		return core.Upload{}, nil, err
	}
	if !ok {
		return core.Upload{}, nil, core.NewValidationError(
			task.ErrFileRequired,
			core.FieldError{Field: "file", Error: task.ErrFileRequired.Error()},
		)
	}
	return upload, closeFile, nil
}

type StudentTaskResponse struct {
	Task         task.Task        `json:"task"`
	MySubmission *task.Submission `json:"my_submission"`
}
