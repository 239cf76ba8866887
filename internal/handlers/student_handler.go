package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/classpulse/feedback-service/internal/models"
	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	sessionService    services.SessionService
	submissionService services.SubmissionService
	hub               *realtime.Hub
	upgrader          websocket.Upgrader
}

func NewStudentHandler(sessionService services.SessionService, submissionService services.SubmissionService, hub *realtime.Hub, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler:       NewBaseHandler(logger),
		sessionService:    sessionService,
		submissionService: submissionService,
		hub:               hub,
		upgrader: websocket.Upgrader{
			// Students join from phones on the classroom network; origins
			// are not restricted, same as the HTTP surface.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Join resolves a join code to a session for a connecting student.
func (h *StudentHandler) Join(c *gin.Context) {
	session, err := h.sessionService.JoinByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *StudentHandler) ActiveQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	active, err := h.sessionService.ActiveQuestions(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": active})
}

func (h *StudentHandler) Submit(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}
	questionID := h.parseIDParam(c, "question_id")
	if questionID == 0 {
		return
	}

	var req services.SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), sessionID, questionID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// joinMessage is the only inbound websocket message students send; anything
// else is ignored.
type joinMessage struct {
	Type string `json:"type"`
	Name string `json:"name"`
}

// WebSocket upgrades the connection, registers it with the hub, pushes the
// current active-question snapshot and then reads join messages until the
// student disconnects.
func (h *StudentHandler) WebSocket(c *gin.Context) {
	sessionID := h.parseIDParam(c, "session_id")
	if sessionID == 0 {
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", "session_id", sessionID, "error", err)
		return
	}

	wrapped := realtime.WrapConn(conn)
	connID := h.hub.Register(sessionID, wrapped)
	defer func() {
		h.hub.Unregister(sessionID, connID)
		_ = conn.Close()
	}()

	// Late joiners need the current state without waiting for the next
	// admin action.
	if active, err := h.sessionService.ActiveQuestions(c.Request.Context(), sessionID); err == nil {
		_ = wrapped.WriteJSON(models.ActiveQuestionsEvent(sessionID, active))
	}

	for {
		var msg joinMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "join" && msg.Name != "" {
			h.hub.Rename(sessionID, connID, msg.Name)
		}
	}
}
