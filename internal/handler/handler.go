package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/domain"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/dto"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/queue"
	"github.com/LuongXuanNhat/Tracking-user-behavior-in-your-website-sub000/internal/service"
)

type Handler struct {
	eventService service.EventServicer
	publisher    queue.QueuePublisher
	realtime     http.Handler
	router       *gin.Engine
	log          *zap.Logger
}

// NewHandler wires the HTTP surface: synchronous ingestion, the async
// collector path, query and the realtime websocket endpoint. publisher and
// realtime may be nil for binaries without a queue or a broker.
func NewHandler(eventService service.EventServicer, publisher queue.QueuePublisher, realtime http.Handler, log *zap.Logger) *Handler {
	h := &Handler{
		eventService: eventService,
		publisher:    publisher,
		realtime:     realtime,
		router:       gin.Default(),
		log:          log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events", h.ingestEvent)
	h.router.POST("/events/batch", h.ingestBatch)
	h.router.GET("/events", h.queryEvents)
	if h.publisher != nil {
		h.router.POST("/collect", h.collectEvent)
	}
	if h.realtime != nil {
		h.router.GET("/realtime", gin.WrapH(h.realtime))
	}
}

// collectEvent handles POST /collect: the fire-and-forget tracker beacon
// path. The event is enqueued raw and validated by the consumer pipeline.
func (h *Handler) collectEvent(c *gin.Context) {
	var input domain.EventInput

	if err := c.ShouldBindJSON(&input); err != nil {
		h.log.Warn("Invalid collect request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := h.publisher.PublishEvent(c.Request.Context(), &input); err != nil {
		h.log.Error("Failed to enqueue event",
			zap.Error(err),
			zap.String("website_id", input.WebsiteID))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// writeError maps domain errors to HTTP responses.
func (h *Handler) writeError(c *gin.Context, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: validationErr.Error(),
		})
		return
	}

	var writeErr *domain.WriteError
	if errors.As(err, &writeErr) {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "write_error",
			Message: writeErr.Error(),
		})
		return
	}

	c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "internal_error",
		Message: err.Error(),
	})
}

// ingestEvent handles POST /events
func (h *Handler) ingestEvent(c *gin.Context) {
	var input domain.EventInput

	if err := c.ShouldBindJSON(&input); err != nil {
		h.log.Warn("Invalid event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	result, err := h.eventService.IngestEvent(c.Request.Context(), &input)
	if err != nil {
		h.log.Error("Failed to ingest event",
			zap.Error(err),
			zap.String("website_id", input.WebsiteID),
			zap.String("event_type", input.EventType))
		h.writeError(c, err)
		return
	}

	h.log.Info("Event ingested",
		zap.String("event_id", result.EventID),
		zap.String("website_id", input.WebsiteID))

	c.JSON(http.StatusCreated, result)
}

// ingestBatch handles POST /events/batch
func (h *Handler) ingestBatch(c *gin.Context) {
	var req dto.IngestBatchRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid batch request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	result := h.eventService.IngestBatch(c.Request.Context(), req.Events)

	h.log.Info("Batch processed",
		zap.Int("processed", len(result.Processed)),
		zap.Int("rejected", len(result.Errors)),
		zap.Int("total", len(req.Events)))

	c.JSON(http.StatusOK, result)
}

// queryEvents handles GET /events
func (h *Handler) queryEvents(c *gin.Context) {
	var req dto.QueryEventsRequest

	if err := c.ShouldBindQuery(&req); err != nil {
		h.log.Warn("Invalid query request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	result, err := h.eventService.QueryEvents(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to query events",
			zap.Error(err),
			zap.String("website_id", req.WebsiteID))
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
