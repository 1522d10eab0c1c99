package push

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/recruit-api/internal/middleware"
	"github.com/jwalitptl/recruit-api/internal/model"
	"github.com/jwalitptl/recruit-api/internal/push"
	"github.com/jwalitptl/recruit-api/internal/push/hub"
	apperrors "github.com/jwalitptl/recruit-api/pkg/errors"
	"github.com/jwalitptl/recruit-api/pkg/httputil"
)

const defaultHeartbeat = 25 * time.Second

// Windows is the window registry streams attach to.
type Windows interface {
	Register(userID uuid.UUID, windowID string, controlled bool) *hub.Window
	Unregister(userID uuid.UUID, w *hub.Window)
	Notification(userID uuid.UUID, tag string) (push.NotificationOptions, bool)
}

// Agents builds the push agent acting for one user.
type Agents interface {
	Agent(userID uuid.UUID) *push.Agent
}

type Handler struct {
	windows   Windows
	agents    Agents
	heartbeat time.Duration
}

func NewHandler(windows Windows, agents Agents, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = defaultHeartbeat
	}
	return &Handler{windows: windows, agents: agents, heartbeat: heartbeat}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	p := r.Group("/push")
	{
		p.GET("/stream", h.Stream)
		p.POST("/notifications/:tag/click", h.Click)
	}
}

type clickRequest struct {
	URL string `json:"url"`
}

// Stream attaches the caller's window and relays its events until the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	controlled := true
	if raw := c.Query("controlled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			httputil.RespondWithError(c, apperrors.BadRequest("invalid controlled flag", err))
			return
		}
		controlled = v
	}

	w := h.windows.Register(userID, c.Query("window_id"), controlled)
	defer h.windows.Unregister(userID, w)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("ready", gin.H{"window_id": w.ID()})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Done():
			return
		case ev := <-w.Events():
			c.SSEvent(ev.Name, ev.Data)
		case <-ticker.C:
			_, _ = io.WriteString(c.Writer, ": ping\n\n")
		}
		c.Writer.Flush()
	}
}

// Click handles activation of a shown notification. The target comes from the
// notification itself; the body url is used when the notification is no longer known.
func (h *Handler) Click(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req clickRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithBindError(c, err)
			return
		}
	}

	tag := c.Param("tag")
	evt := push.ClickEvent{Tag: tag, Data: model.PushData{URL: req.URL}}
	if opts, ok := h.windows.Notification(userID, tag); ok {
		evt.Data = opts.Data
	} else if req.URL == "" {
		httputil.RespondWithError(c, apperrors.NotFound("notification", nil))
		return
	}

	if err := h.agents.Agent(userID).OnNotificationClick(c.Request.Context(), evt); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	claims, ok := middleware.Claims(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
		return uuid.Nil, false
	}
	return claims.UserID, true
}
