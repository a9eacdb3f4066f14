package handlers

import (
	"procurement-transparency/internal/middleware"
	"procurement-transparency/internal/service"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects *service.ProjectService
	stats    *service.StatisticsService
}

func NewProjectHandler(projects *service.ProjectService, stats *service.StatisticsService) *ProjectHandler {
	return &ProjectHandler{projects: projects, stats: stats}
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	f := service.ProjectFilter{
		Ministry:   c.Query("ministry"),
		Status:     c.Query("status"),
		FiscalYear: c.Query("fiscal_year"),
		Search:     c.Query("search"),
	}

	var err error
	if f.MinAmount, err = queryFloat(c, "min_amount"); err != nil {
		handleError(c, err)
		return
	}
	if f.MaxAmount, err = queryFloat(c, "max_amount"); err != nil {
		handleError(c, err)
		return
	}
	if f.Limit, err = queryInt(c, "limit", 0); err != nil {
		handleError(c, err)
		return
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		handleError(c, err)
		return
	}

	items, err := h.projects.ListProjects(c.Request.Context(), f)
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, items)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	p, err := h.projects.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, p)
}

// GET /api/projects/:id/progress
func (h *ProjectHandler) Progress(c *gin.Context) {
	v, err := h.projects.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// PATCH /api/projects/:id/progress
func (h *ProjectHandler) UpdateProgress(c *gin.Context) {
	var in service.UpdateProgressInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.projects.UpdateProgress(c.Request.Context(), c.Param("id"), in, middleware.CurrentUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/projects/:id/statistics
func (h *ProjectHandler) Statistics(c *gin.Context) {
	v, err := h.stats.ProjectStatistics(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/projects/stats/overview
func (h *ProjectHandler) Overview(c *gin.Context) {
	v, err := h.stats.Overview(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/projects/filters/options
func (h *ProjectHandler) FilterOptions(c *gin.Context) {
	v, err := h.projects.FilterOptions(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, v)
}

// GET /api/ministries
func (h *ProjectHandler) Ministries(c *gin.Context) {
	names, err := h.projects.ListMinistries(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}
	success(c, names)
}
