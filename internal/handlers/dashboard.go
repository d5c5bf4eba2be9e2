package handlers

import (
	"net/http"

	"smartfarmer_console/internal/models"

	"github.com/gin-gonic/gin"
)

// Response/status constants used across handlers.
const (
	statusOK = "ok"

	errGetView    = "failed to load view"
	errTogglePump = "failed to toggle pump"
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// dashboard serves the HTML page pre-filled with the current view.
func (h *Handler) dashboard(c *gin.Context) {
	v, err := h.services.Monitoring.View(c.Request.Context())
	if err != nil {
		if h.log != nil {
			h.log.Errorw("dashboard_view_failed", "err", err)
		}
		// The page still loads; the stream fills it in.
		v = models.View{}
	}
	c.HTML(http.StatusOK, "dashboard.tmpl", v)
}

// @Summary      Get dashboard view
// @Description  Rendered readouts, gauges, pump presentation and link state.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  models.View
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/view [get]
func (h *Handler) getView(c *gin.Context) {
	v, err := h.services.Monitoring.View(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusServiceUnavailable, errGetView, "view_failed", err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary      Toggle irrigation pump
// @Description  Flips the pump intent immediately and sends the command to the device. The returned view is optimistic; the device's answer arrives on /ws.
// @Tags         pump
// @Produce      json
// @Success      202  {object}  models.View
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/pump/toggle [post]
func (h *Handler) togglePump(c *gin.Context) {
	v, err := h.services.Pump.Toggle(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusServiceUnavailable, errTogglePump, "pump_toggle_failed", err)
		return
	}
	c.JSON(http.StatusAccepted, v)
}
