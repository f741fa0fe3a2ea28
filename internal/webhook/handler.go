package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/events"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/metrics"
	"github.com/weiawesome/wes-io-live/thumbnail-service/internal/mq"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/log"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/middleware"
	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/response"
)

// TransportWebhook labels metrics and logs for HTTP push deliveries.
const TransportWebhook = "webhook"

// MaxBodyBytes caps a single delivery. EventGrid batches are at most 1 MB.
const MaxBodyBytes = 1 << 20

// ValidationResponse answers an EventGrid subscription validation handshake.
type ValidationResponse struct {
	ValidationResponse string `json:"validationResponse"`
}

// Handler handles push deliveries: EventGrid events, or S3-style
// notifications as sent by MinIO webhook targets.
type Handler struct {
	dispatcher *mq.Dispatcher
	key        string
}

// NewHandler creates a new webhook handler. An empty key disables the
// shared-secret check.
func NewHandler(dispatcher *mq.Dispatcher, key string) *Handler {
	return &Handler{dispatcher: dispatcher, key: key}
}

// RegisterRoutes registers the health checks and the event endpoint.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)
	r.GET("/healthz", h.Health)

	api := r.Group("/api/v1")
	{
		api.POST("/events", middleware.RequireKey(h.key), h.Events)
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Events handles one EventGrid delivery. A validation event is answered
// with its code. BlobCreated events are processed before responding:
// failures that redelivery cannot fix are acknowledged, others return 500
// so the platform retries.
func (h *Handler) Events(c *gin.Context) {
	ctx := log.WithFields(c.Request.Context(), log.FieldTransport, TransportWebhook)
	l := log.Ctx(ctx)

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		l.Warn().Err(err).Msg("failed to read event delivery")
		response.BadRequest(c, "failed to read request body")
		return
	}

	grid, err := events.ParseEventGrid(body)
	if err != nil {
		metrics.ThumbnailFailures.WithLabelValues(metrics.ReasonMalformed, TransportWebhook).Inc()
		l.Warn().Err(err).Msg("invalid event delivery")
		response.BadRequest(c, err.Error())
		return
	}

	for _, ev := range grid {
		if ev.EventType != events.EventTypeSubscriptionValidation {
			continue
		}
		data, err := ev.Validation()
		if err != nil {
			l.Warn().Err(err).Str(log.FieldEventID, ev.ID).Msg("invalid validation event")
			response.BadRequest(c, err.Error())
			return
		}
		l.Info().Str(log.FieldEventID, ev.ID).Msg("answering subscription validation")
		c.JSON(http.StatusOK, ValidationResponse{ValidationResponse: data.ValidationCode})
		return
	}

	notifications, err := events.Decode(body)
	if err != nil {
		metrics.ThumbnailFailures.WithLabelValues(metrics.ReasonMalformed, TransportWebhook).Inc()
		l.Warn().Err(err).Msg("invalid event delivery")
		response.BadRequest(c, err.Error())
		return
	}

	handled, err := h.dispatcher.DispatchNotifications(ctx, notifications)
	if err != nil {
		l.Error().Err(err).Int("handled", handled).Msg("failed to process event delivery")
		response.InternalError(c, "failed to process events")
		return
	}

	response.Success(c, gin.H{
		"received": len(notifications),
		"handled":  handled,
	})
}
