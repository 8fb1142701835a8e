package monitoring

import (
	"context"
	"errors"
	"net/http"

	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/task"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the monitor's state, health and prometheus metrics
type Server struct {
	*task.Task

	monitor Monitor

	Router     *gin.Engine
	httpServer *http.Server
}

func NewServer(config *config.Config) (self *Server) {
	self = new(Server)

	if !config.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	self.Router = gin.New()
	self.Router.Use(gin.Recovery())

	self.httpServer = &http.Server{
		Addr:    config.RESTListenAddress,
		Handler: self.Router,
	}

	self.Task = task.NewTask(config, "monitor-server").
		WithSubtaskFunc(self.runServer).
		WithOnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.StopTimeout)
			defer cancel()
			err := self.httpServer.Shutdown(ctx)
			if err != nil {
				self.Log.WithError(err).Error("Failed to gracefully shut down monitoring server")
			}
		})

	return
}

func (self *Server) WithMonitor(monitor Monitor) *Server {
	self.monitor = monitor

	registry := prometheus.NewRegistry()
	registry.MustRegister(monitor.GetPrometheusCollector())

	v1 := self.Router.Group("v1")
	{
		v1.GET("state", monitor.OnGetState)
		v1.GET("health", monitor.OnGetHealth)
		v1.GET("metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return self
}

func (self *Server) runServer() (err error) {
	self.Log.WithField("addr", self.httpServer.Addr).Info("Started monitoring server")

	err = self.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return
}
