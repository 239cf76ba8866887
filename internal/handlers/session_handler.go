package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	exportService  services.ExportService
	hub            *realtime.Hub

	modelsBaseURL string
	modelsAPIKey  string
	httpClient    *http.Client
}

func NewSessionHandler(sessionService services.SessionService, exportService services.ExportService, hub *realtime.Hub, modelsBaseURL, modelsAPIKey string, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		exportService:  exportService,
		hub:            hub,
		modelsBaseURL:  modelsBaseURL,
		modelsAPIKey:   modelsAPIKey,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	session, err := h.sessionService.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions, err := h.sessionService.List(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}

// GetSessionByCode looks a session up by its join code. The route shares the
// :id segment with the numeric session routes.
func (h *SessionHandler) GetSessionByCode(c *gin.Context) {
	session, err := h.sessionService.GetByCode(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *SessionHandler) EndSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.sessionService.End(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Session ended"})
}

func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Session deleted"})
}

// ActivateQuestion launches one question into the session. The question id
// arrives as a query parameter.
func (h *SessionHandler) ActivateQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	questionID, err := strconv.ParseUint(c.Query("question_id"), 10, 32)
	if err != nil || questionID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid question_id"})
		return
	}

	instance, err := h.sessionService.LaunchQuestion(c.Request.Context(), id, uint(questionID))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instance)
}

func (h *SessionHandler) CloseQuestion(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	instanceID := h.parseIDParam(c, "sq_id")
	if instanceID == 0 {
		return
	}

	if err := h.sessionService.CloseQuestion(c.Request.Context(), id, instanceID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Question closed"})
}

func (h *SessionHandler) CloseAllQuestions(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	if err := h.sessionService.CloseAll(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "All questions closed"})
}

func (h *SessionHandler) LaunchCollection(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	collectionID := h.parseIDParam(c, "collection_id")
	if collectionID == 0 {
		return
	}

	instances, err := h.sessionService.LaunchCollection(c.Request.Context(), id, collectionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"launched": len(instances), "instances": instances})
}

func (h *SessionHandler) GetResults(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	results, err := h.sessionService.FetchResults(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *SessionHandler) GetConnectedUsers(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	c.JSON(http.StatusOK, gin.H{"connected_users": h.hub.ConnectedNames(id)})
}

func (h *SessionHandler) ExportCSV(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	data, err := h.exportService.CSV(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("session_%d_results.csv", id)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", data)
}

func (h *SessionHandler) ExportXLSX(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	file, err := h.exportService.XLSX(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := file.Write(&buf); err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("session_%d_results.xlsx", id)
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// ListModels proxies the grading provider's model catalog so the admin UI can
// offer a picker. Any failure degrades to an empty list.
func (h *SessionHandler) ListModels(c *gin.Context) {
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, h.modelsBaseURL+"/models", nil)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	if h.modelsAPIKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.modelsAPIKey)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn("Model catalog fetch failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}
	defer resp.Body.Close()

	var catalog map[string]any
	if resp.StatusCode != http.StatusOK || json.NewDecoder(resp.Body).Decode(&catalog) != nil {
		h.logger.Warn("Model catalog fetch failed", "status", resp.StatusCode)
		c.JSON(http.StatusOK, gin.H{"data": []any{}})
		return
	}

	c.JSON(http.StatusOK, catalog)
}
