package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"go.uber.org/dig"

	echoapi "github.com/fypcompass/compass/apps/api/echo"
	"github.com/fypcompass/compass/core"
	"github.com/fypcompass/compass/core/chatbot"
	logsvc "github.com/fypcompass/compass/services/logger"
)

type appParams struct {
	dig.In
	Conf     *core.Config
	Logger   *logsvc.RollbarLogger
	DBLogger core.Logger `name:"dbLogger"`
	CloseDB  func() error
	Bot      *chatbot.Bot
	Server   *echoapi.Server
}

func main() {
	must(newContainer(core.NewConfig).Invoke(run))
}

func run(p appParams) {
	conf, apiLogger, server := p.Conf, p.Logger, p.Server

	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer apiLogger.Close()

	if err := core.ParseEmailTemplates(conf); err != nil {
		apiLogger.Fatal(fmt.Sprintf("parsing email templates: %v", err), err)
	}
	apiLogger.Info(fmt.Sprintf("chatbot loaded with %d entries", p.Bot.Len()))

	defer func() {
		if err := p.CloseDB(); err != nil {
			p.DBLogger.Fatal("Failed to close", err)
		}
	}()
	defer apiLogger.Info("Application stopped")

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		apiLogger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				apiLogger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
