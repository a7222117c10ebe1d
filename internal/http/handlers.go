// Package http exposes the shell-facing REST API. Every operation
// answers HTTP 200 with the uniform ok/error envelope; non-200 codes
// are reserved for transport-level problems like malformed JSON.
package http

import (
	"net/http"

	"github.com/Zombiegoblin4/Bastion-Browser/internal/logging"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/privacy"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/shared/types"
	"github.com/Zombiegoblin4/Bastion-Browser/internal/update"
	"github.com/gin-gonic/gin"
)

// Handlers contains all shell API handlers.
type Handlers struct {
	privacy *privacy.Engine
	updates *update.Orchestrator
	version string
	log     *logging.Logger
}

// NewHandlers creates a new handler set.
func NewHandlers(privacyEngine *privacy.Engine, updates *update.Orchestrator, version string, log *logging.Logger) *Handlers {
	return &Handlers{
		privacy: privacyEngine,
		updates: updates,
		version: version,
		log:     log,
	}
}

// Root handles the liveness probe.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Bastion Core",
		"version": h.version,
	})
}

// Health reports component state for the shell's diagnostics page.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": h.version,
		"privacy": gin.H{"config": h.privacy.Config()},
		"update":  gin.H{"status": h.updates.Status()},
	})
}

// GetPrivacyConfig returns the effective privacy config.
func (h *Handlers) GetPrivacyConfig(c *gin.Context) {
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{
		"config": h.privacy.Config(),
	}))
}

// PatchPrivacyConfig merges a sparse flag patch into the privacy
// config and returns the merged result.
func (h *Handlers) PatchPrivacyConfig(c *gin.Context) {
	var patch types.PrivacyConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid privacy config patch: "+err.Error()))
		return
	}
	cfg := h.privacy.PatchConfig(patch)
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{"config": cfg}))
}

// GetPrivacyStats returns the session counters.
func (h *Handlers) GetPrivacyStats(c *gin.Context) {
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{
		"stats": h.privacy.Stats(),
	}))
}

// Intercept answers the shell's pre-request policy query.
func (h *Handlers) Intercept(c *gin.Context) {
	var req types.InterceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid intercept request: "+err.Error()))
		return
	}
	decision := h.privacy.Decide(req)
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{"decision": decision}))
}

// MutateHeaders returns the privacy-adjusted header set for a request
// that passed interception.
func (h *Handlers) MutateHeaders(c *gin.Context) {
	var req types.InterceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid header request: "+err.Error()))
		return
	}
	headers := h.privacy.MutateHeaders(req)
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{"requestHeaders": headers}))
}

// DecidePermission answers a site permission prompt.
func (h *Handlers) DecidePermission(c *gin.Context) {
	var req struct {
		Permission string `json:"permission"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid permission request: "+err.Error()))
		return
	}
	allowed := h.privacy.DecidePermission(req.Permission)
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{"allowed": allowed}))
}

// ClearData wipes the named browsing-data scope.
func (h *Handlers) ClearData(c *gin.Context) {
	var req struct {
		Scope types.ClearDataScope `json:"scope"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid clear-data request: "+err.Error()))
		return
	}
	if err := h.privacy.ClearData(req.Scope); err != nil {
		c.JSON(http.StatusOK, types.Fail(err.Error()))
		return
	}
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{"scope": req.Scope}))
}

// GetUpdateConfig returns the effective update config.
func (h *Handlers) GetUpdateConfig(c *gin.Context) {
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{
		"config": h.updates.Config(),
	}))
}

// PatchUpdateConfig merges a sparse patch into the update config.
func (h *Handlers) PatchUpdateConfig(c *gin.Context) {
	var patch types.UpdateConfigPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, types.Fail("invalid update config patch: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.updates.PatchConfig(patch))
}

// GetUpdateStatus returns the current update status snapshot.
func (h *Handlers) GetUpdateStatus(c *gin.Context) {
	c.JSON(http.StatusOK, types.Ok(map[string]interface{}{
		"status": h.updates.Status(),
	}))
}

// CheckUpdates runs one update cycle. The optional download flag also
// fetches a newer artifact in the same cycle; force re-fetches an
// artifact already on disk.
func (h *Handlers) CheckUpdates(c *gin.Context) {
	var req struct {
		Download bool `json:"download"`
		Force    bool `json:"force"`
	}
	// An empty body means check-only.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.Fail("invalid check request: "+err.Error()))
			return
		}
	}
	c.JSON(http.StatusOK, h.updates.Check(c.Request.Context(), update.CheckOptions{
		Download: req.Download,
		Force:    req.Force,
	}))
}

// DownloadUpdate checks and always downloads a newer artifact. The
// optional force flag re-fetches an artifact already on disk.
func (h *Handlers) DownloadUpdate(c *gin.Context) {
	var req struct {
		Force bool `json:"force"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.Fail("invalid download request: "+err.Error()))
			return
		}
	}
	c.JSON(http.StatusOK, h.updates.Download(c.Request.Context(), req.Force))
}

// InstallUpdate applies the downloaded artifact. On success the
// process exits shortly after the response is written.
func (h *Handlers) InstallUpdate(c *gin.Context) {
	c.JSON(http.StatusOK, h.updates.Install(c.Request.Context()))
}
