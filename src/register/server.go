package register

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ducnmm/datacert/src/register/request"
	"github.com/ducnmm/datacert/src/utils/config"
	"github.com/ducnmm/datacert/src/utils/ledger"
	"github.com/ducnmm/datacert/src/utils/task"

	"github.com/gin-gonic/gin"
)

// Server is the registration and scoring REST API
type Server struct {
	*task.Task

	service *Service

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
		Addr:    config.Registrar.ListenAddress,
		Handler: self.Router,
	}

	self.Task = task.NewTask(config, "register-server").
		WithSubtaskFunc(self.runServer).
		WithOnStop(func() {
			ctx, cancel := context.WithTimeout(context.Background(), config.StopTimeout)
			defer cancel()
			err := self.httpServer.Shutdown(ctx)
			if err != nil {
				self.Log.WithError(err).Error("Failed to gracefully shut down API server")
			}
		})

	return
}

func (self *Server) WithService(service *Service) *Server {
	self.service = service

	v1 := self.Router.Group("v1")
	{
		v1.POST("datasets", self.onRegisterDataset)
		v1.POST("datasets/:id/claims", self.onFileClaim)
		v1.POST("datasets/:id/access", self.onGrantAccess)
		v1.POST("datasets/:id/attest", self.onAttest)
		v1.POST("datasets/:id/verify", self.onVerify)
		v1.POST("datasets/:id/status", self.onSetStatus)
		v1.GET("datasets/:id/score", self.onGetScore)
		v1.GET("datasets/:id/score/history", self.onGetScoreHistory)
	}

	return self
}

func (self *Server) runServer() (err error) {
	self.Log.WithField("addr", self.httpServer.Addr).Info("Started API server")

	err = self.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return
}

func (self *Server) onRegisterDataset(c *gin.Context) {
	var in request.RegisterDataset
	err := c.ShouldBindJSON(&in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.RegisterDataset(ctx, &in)
	if err != nil {
		self.Log.WithError(err).Error("Failed to register dataset")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (self *Server) onFileClaim(c *gin.Context) {
	var in request.FileClaim
	err := c.ShouldBindJSON(&in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.FileClaim(ctx, c.Param("id"), &in)
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (self *Server) onGrantAccess(c *gin.Context) {
	var in request.GrantAccess
	err := c.ShouldBindJSON(&in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.GrantAccess(ctx, c.Param("id"), &in)
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (self *Server) onAttest(c *gin.Context) {
	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.Attest(ctx, c.Param("id"))
	if err != nil {
		// Attestation failures surface with full detail, the
		// caller explicitly asked for a verdict
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (self *Server) onVerify(c *gin.Context) {
	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.Verify(ctx, c.Param("id"))
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (self *Server) onSetStatus(c *gin.Context) {
	var in request.SetStatus
	err := c.ShouldBindJSON(&in)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.SetStatus(ctx, c.Param("id"), &in)
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (self *Server) onGetScore(c *gin.Context) {
	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.GetScore(ctx, c.Param("id"))
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (self *Server) onGetScoreHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	ctx, cancel := self.requestCtx(c)
	defer cancel()

	out, err := self.service.GetScoreHistory(ctx, c.Param("id"), limit)
	if err != nil {
		self.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (self *Server) writeError(c *gin.Context, err error) {
	c.JSON(self.errorStatus(err), gin.H{"error": err.Error()})
}

func (self *Server) errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrDatasetNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBadTransition):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrInsufficientStake),
		errors.Is(err, ledger.ErrTokenNotAllowed):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func (self *Server) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), self.Config.Registrar.RequestTimeout)
}
