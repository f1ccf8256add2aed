package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/chatbot"
	"github.com/fypcompass/compass/core/discussion"
	"github.com/fypcompass/compass/core/progress"
	"github.com/fypcompass/compass/core/project"
	"github.com/fypcompass/compass/core/task"
	"github.com/fypcompass/compass/core/user"
)

// ServerDeps are the dependencies of the API server.
type ServerDeps struct {
	Conf          *core.Config
	Logger        core.Logger
	Validate      *validator.Validate
	Translator    ut.Translator
	UserSvc       user.Service
	ProjectSvc    project.Service
	TaskSvc       task.Service
	DiscussionSvc discussion.Service
	ProgressSvc   progress.Service
	Bot           *chatbot.Bot
}

type Server struct {
	deps     ServerDeps
	app      *echo.Echo
	errors   chan error
	shutdown chan os.Signal
}

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug && !conf.TestMode
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: conf.Server.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	if conf.Storage.MaxUploadSize > 0 {
		// leave room for the other multipart fields
		s.app.Use(middleware.BodyLimit(bodyLimit(conf.Storage.MaxUploadSize + 1<<20)))
	}

	s.app.GET("/", home)
	if conf.Storage.Backend == "" || conf.Storage.Backend == "local" {
		uploads := s.app.Group(conf.Storage.UploadsURL, crossOriginResourceMiddleware)
		uploads.Static("", conf.Storage.UploadsDir)
	}

	api := s.app.Group("/api")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))
	authed := []echo.MiddlewareFunc{jwt, userMiddleware(s.deps.UserSvc)}

	registerAuthAPI(api, authed, s.deps)
	registerAdminAPI(api.Group("/admin", append(authed, adminMiddleware())...), s.deps)
	registerAdvisorAPI(api.Group("/advisor", append(authed, advisorMiddleware())...), s.deps)
	registerStudentAPI(api.Group("/student", append(authed, studentMiddleware())...), s.deps)
	registerDiscussionAPI(api.Group("/discussions", authed...), s.deps)
	registerProgressAPI(api.Group("/progress", authed...), s.deps)
	registerChatbotAPI(api.Group("/chatbot"), s.deps)
}

// Start listens until the server is shut down; failures are sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error { return s.errors }

func (s *Server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to FYP Compass API!")
}

// crossOriginResourceMiddleware lets uploaded files be embedded by the frontend's origin.
func crossOriginResourceMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		ctx.Response().Header().Set("Cross-Origin-Resource-Policy", "cross-origin")
		return next(ctx)
	}
}
