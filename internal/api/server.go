// Package api exposes the simulation model over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"taxsim/domain/core"
	"taxsim/domain/policy"
	"taxsim/internal/config"
	"taxsim/internal/errors"
	"taxsim/internal/tbi"
	"taxsim/ports"

	"github.com/gin-gonic/gin"
)

// Server represents the web server for the simulation API
type Server struct {
	router   *gin.Engine
	model    *tbi.Model
	exporter ports.ResultExporter
	cfg      *config.Config
}

// NewServer creates the API server and registers its routes.
func NewServer(model *tbi.Model, exporter ports.ResultExporter, cfg *config.Config) *Server {
	gin.SetMode(cfg.Server.GinMode)
	s := &Server{
		router:   gin.Default(),
		model:    model,
		exporter: exporter,
		cfg:      cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.Group("/v1")
	{
		v1.GET("/health", s.handleHealth)
		v1.POST("/assumptions/validate", s.handleValidateAssumptions)
		v1.POST("/model/run", s.handleRunModel)
		v1.POST("/model/run-years", s.handleRunYears)
		v1.POST("/model/export", s.handleExportRun)
	}
}

// Run starts serving on the configured port.
func (s *Server) Run() error {
	addr := ":" + s.cfg.Server.Port
	log.Printf("[Server] listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

type validateRequest struct {
	Behavior  policy.Assumptions `json:"behavior" binding:"required"`
	StartYear int                `json:"start_year"`
	NumYears  int                `json:"num_years"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleValidateAssumptions(c *gin.Context) {
	var req validateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	startYear, numYears := s.defaultYears(req.StartYear, req.NumYears)
	errText, err := tbi.AssumptionErrors(req.Behavior, startYear, numYears)
	if err != nil {
		s.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid":  errText == "",
		"errors": errText,
	})
}

// defaultYears falls back to the configured model defaults for omitted
// start-year / num-years request fields.
func (s *Server) defaultYears(startYear, numYears int) (int, int) {
	if startYear == 0 {
		startYear = s.cfg.Model.StartYear
	}
	if numYears == 0 {
		numYears = s.cfg.Model.NumYears
	}
	return startYear, numYears
}

type runRequest struct {
	YearN             int                `json:"year_n"`
	StartYear         int                `json:"start_year"`
	UseFullPopulation bool               `json:"use_full_population"`
	UseFullSample     bool               `json:"use_full_sample"`
	UserMods          policy.UserMods    `json:"user_mods"`
	Behavior          policy.Assumptions `json:"behavior"`
	ReturnDict        *bool              `json:"return_dict"`
}

func (s *Server) handleRunModel(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	returnDict := true
	if req.ReturnDict != nil {
		returnDict = *req.ReturnDict
	}
	startYear, _ := s.defaultYears(req.StartYear, 0)

	runID := core.RunID(core.NewID())
	result, err := s.model.RunNthYear(c.Request.Context(),
		req.YearN, startYear, req.UseFullPopulation, req.UseFullSample,
		req.UserMods, req.Behavior, returnDict)
	if err != nil {
		s.renderError(c, err)
		return
	}

	resp := gin.H{
		"run_id":       runID,
		"reform_hash":  core.NewReformHash(req.UserMods.Canonical()).String(),
		"year":         result.Year,
		"completed_at": core.Now().Time(),
	}
	if result.Dict != nil {
		resp["results"] = result.Dict
	} else {
		resp["results"] = result.Tables
	}
	c.JSON(http.StatusOK, resp)
}

type runYearsRequest struct {
	NumYears          int                `json:"num_years"`
	StartYear         int                `json:"start_year"`
	UseFullPopulation bool               `json:"use_full_population"`
	UseFullSample     bool               `json:"use_full_sample"`
	UserMods          policy.UserMods    `json:"user_mods"`
	Behavior          policy.Assumptions `json:"behavior"`
}

func (s *Server) handleRunYears(c *gin.Context) {
	var req runYearsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startYear, numYears := s.defaultYears(req.StartYear, req.NumYears)

	runID := core.RunID(core.NewID())
	results, err := s.model.RunYears(c.Request.Context(),
		numYears, startYear, req.UseFullPopulation, req.UseFullSample,
		req.UserMods, req.Behavior)
	if err != nil {
		s.renderError(c, err)
		return
	}

	years := make([]*tbi.DictResultSet, len(results))
	for i, res := range results {
		years[i] = res.Dict
	}
	c.JSON(http.StatusOK, gin.H{
		"run_id":       runID,
		"reform_hash":  core.NewReformHash(req.UserMods.Canonical()).String(),
		"start_year":   startYear,
		"num_years":    numYears,
		"years":        years,
		"completed_at": core.Now().Time(),
	})
}

// handleExportRun runs one year in tabular shape and writes the result set to
// an .xlsx workbook under the configured export directory.
func (s *Server) handleExportRun(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	startYear, _ := s.defaultYears(req.StartYear, 0)

	runID := core.RunID(core.NewID())
	result, err := s.model.RunNthYear(c.Request.Context(),
		req.YearN, startYear, req.UseFullPopulation, req.UseFullSample,
		req.UserMods, req.Behavior, false)
	if err != nil {
		s.renderError(c, err)
		return
	}

	if err := os.MkdirAll(s.cfg.Paths.ExportDir, 0o755); err != nil {
		s.renderError(c, fmt.Errorf("creating export directory: %w", err))
		return
	}
	path := filepath.Join(s.cfg.Paths.ExportDir,
		fmt.Sprintf("run_%d_%s.xlsx", result.Year, runID))
	if err := s.exporter.Export(path, result.Year, result.Tables); err != nil {
		s.renderError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":       runID,
		"reform_hash":  core.NewReformHash(req.UserMods.Canonical()).String(),
		"year":         result.Year,
		"path":         path,
		"completed_at": core.Now().Time(),
	})
}

// renderError maps application error codes onto HTTP statuses.
func (s *Server) renderError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errors.GetCode(err) {
	case errors.CodeContractViolation, errors.CodeInvalidInput, errors.CodeYearRange:
		status = http.StatusBadRequest
	case errors.CodeSchemaViolation:
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
