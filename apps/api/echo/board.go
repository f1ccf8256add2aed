package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/chatbot"
	"github.com/fypcompass/compass/core/discussion"
)

// Discussion, progress & chatbot endpoints: any project member may use the first two,
// the chatbot is public.

func registerDiscussionAPI(g *echo.Group, deps ServerDeps) {
	g.GET("/:projectId", func(ctx echo.Context) error {
		msgs, err := deps.DiscussionSvc.List(ctx.Request().Context(), ctxUser(ctx), ctx.Param("projectId"))
		if err != nil {
			return errors.Wrap(err, "listing messages")
		}
		return ctx.JSON(http.StatusOK, msgs)
	})

	g.POST("/:projectId", func(ctx echo.Context) error {
		var data discussion.NewMessage
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewMessage")
		}
		msg, err := deps.DiscussionSvc.Post(ctx.Request().Context(), ctxUser(ctx), ctx.Param("projectId"), data)
		if err != nil {
			return errors.Wrap(err, "posting message")
		}
		return ctx.JSON(http.StatusCreated, msg)
	})
}

func registerProgressAPI(g *echo.Group, deps ServerDeps) {
	g.GET("/project/:projectId", func(ctx echo.Context) error {
		report, err := deps.ProgressSvc.ForProject(ctx.Request().Context(), ctxUser(ctx), ctx.Param("projectId"))
		if err != nil {
			return errors.Wrap(err, "computing project progress")
		}
		return ctx.JSON(http.StatusOK, report)
	})

	g.GET("/task/:taskId", func(ctx echo.Context) error {
		report, err := deps.ProgressSvc.ForTask(ctx.Request().Context(), ctxUser(ctx), ctx.Param("taskId"))
		if err != nil {
			return errors.Wrap(err, "computing task progress")
		}
		return ctx.JSON(http.StatusOK, report)
	})
}

func registerChatbotAPI(g *echo.Group, deps ServerDeps) {
	g.POST("/ask", func(ctx echo.Context) error {
		var data chatbot.Question
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to Question")
		}
		answer, err := deps.Bot.Ask(data.Text())
		if err != nil {
			if errors.Cause(err) == chatbot.ErrEmptyQuery {
				return core.NewValidationError(err)
			}
			return errors.Wrap(err, "asking chatbot")
		}
		return ctx.JSON(http.StatusOK, answer)
	})
}
