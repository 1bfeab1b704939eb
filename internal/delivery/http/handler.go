package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smartshop/agent/internal/domain"
	"github.com/smartshop/agent/internal/usecase"
)

// Request bodies cap: a single JPEG frame is the largest thing we accept
const maxFrameBytes = 8 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	sessions  *usecase.SessionRegistry
	forecasts *usecase.ForecastService
	tryOn     *usecase.TryOnService
}

// NewHandler creates a new HTTP handler
func NewHandler(sessions *usecase.SessionRegistry, forecasts *usecase.ForecastService, tryOn *usecase.TryOnService) *Handler {
	return &Handler{
		sessions:  sessions,
		forecasts: forecasts,
		tryOn:     tryOn,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "smartshop-agent",
		"version": "1.0.0",
	})
}

// session resolves the caller's shopping session from the X-Session-ID
// header, creating one when absent, and echoes the id back on the response.
func (h *Handler) session(c *gin.Context) *usecase.Session {
	session, id := h.sessions.Acquire(c.GetHeader("X-Session-ID"))
	c.Header("X-Session-ID", id)
	return session
}

type searchBody struct {
	Query string `json:"query"`
}

// Search handles a natural-language product search
func (h *Handler) Search(c *gin.Context) {
	var body searchBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session := h.session(c)
	if err := session.SubmitSearch(c.Request.Context(), body.Query); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, session.Snapshot())
}

// GetSession returns the current session snapshot
func (h *Handler) GetSession(c *gin.Context) {
	c.JSON(http.StatusOK, h.session(c).Snapshot())
}

// ToggleSelection toggles a product in the comparison selection
func (h *Handler) ToggleSelection(c *gin.Context) {
	session := h.session(c)
	if err := session.ToggleSelection(c.Param("productId")); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session.Snapshot())
}

// ClearSelection empties the comparison selection
func (h *Handler) ClearSelection(c *gin.Context) {
	session := h.session(c)
	session.ClearSelection()
	c.JSON(http.StatusOK, session.Snapshot())
}

// ToggleSaved toggles a product in the saved set. The full product payload
// travels with the request because saved items outlive the search result.
func (h *Handler) ToggleSaved(c *gin.Context) {
	var product domain.Product
	if err := c.ShouldBindJSON(&product); err != nil || product.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}

	session := h.session(c)
	session.ToggleSaved(product)
	c.JSON(http.StatusOK, session.Snapshot())
}

// ToggleAlert toggles a price alert for a product id
func (h *Handler) ToggleAlert(c *gin.Context) {
	session := h.session(c)
	session.ToggleAlert(c.Param("productId"))
	c.JSON(http.StatusOK, session.Snapshot())
}

type compareBody struct {
	Products []domain.Product `json:"products"`
}

// Compare fans out price-trend forecasts for the submitted products and
// returns an id-keyed mapping. Per-product failures arrive as the literal
// fallback string, never as an overall error.
func (h *Handler) Compare(c *gin.Context) {
	var body compareBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(body.Products) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no products to compare"})
		return
	}

	forecasts := h.forecasts.ForecastAll(c.Request.Context(), body.Products)
	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts})
}

type tryOnStartBody struct {
	Product domain.Product `json:"product"`
}

// TryOnStart opens a try-on session for a product
func (h *Handler) TryOnStart(c *gin.Context) {
	var body tryOnStartBody
	if err := c.ShouldBindJSON(&body); err != nil || body.Product.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product payload"})
		return
	}

	if _, err := h.tryOn.Start(c.Request.Context(), body.Product); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.tryOn.Snapshot())
}

// TryOnFrame ingests one JPEG frame from the client's camera
func (h *Handler) TryOnFrame(c *gin.Context) {
	frame, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFrameBytes))
	if err != nil || len(frame) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty frame"})
		return
	}

	if err := h.tryOn.PushFrame(frame); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusAccepted)
}

// TryOnCapture captures the latest frame and runs the stylist analysis
func (h *Handler) TryOnCapture(c *gin.Context) {
	if err := h.tryOn.Capture(c.Request.Context()); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.tryOn.Snapshot())
}

// TryOnRetake discards the analysis and returns to the live preview
func (h *Handler) TryOnRetake(c *gin.Context) {
	if err := h.tryOn.Retake(); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.tryOn.Snapshot())
}

// TryOnClose ends the try-on session and releases the camera stream
func (h *Handler) TryOnClose(c *gin.Context) {
	if err := h.tryOn.Close(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.tryOn.Snapshot())
}

// TryOnState returns the current try-on snapshot
func (h *Handler) TryOnState(c *gin.Context) {
	c.JSON(http.StatusOK, h.tryOn.Snapshot())
}

// statusForError maps the domain error taxonomy onto HTTP statuses
func statusForError(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrUnknownProduct),
		errors.Is(err, domain.ErrNoFrame):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSearchTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, domain.ErrAgentUnreachable),
		errors.Is(err, domain.ErrAgentRejected),
		errors.Is(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrNoActiveTryOn),
		errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTryOnState),
		errors.Is(err, domain.ErrStreamBusy),
		errors.Is(err, domain.ErrStreamClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrCameraUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
