package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classpulse/feedback-service/internal/realtime"
	"github.com/classpulse/feedback-service/internal/services"
	"github.com/classpulse/feedback-service/internal/utils"
)

type HandlerManager struct {
	authHandler       *AuthHandler
	questionHandler   *QuestionHandler
	collectionHandler *CollectionHandler
	sessionHandler    *SessionHandler
	studentHandler    *StudentHandler

	serviceManager services.ServiceManager
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	hub *realtime.Hub,
	modelsBaseURL string,
	modelsAPIKey string,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:       NewAuthHandler(serviceManager.Auth(), logger),
		questionHandler:   NewQuestionHandler(serviceManager.Question(), logger),
		collectionHandler: NewCollectionHandler(serviceManager.Collection(), logger),
		sessionHandler:    NewSessionHandler(serviceManager.Session(), serviceManager.Export(), hub, modelsBaseURL, modelsAPIKey, logger),
		studentHandler:    NewStudentHandler(serviceManager.Session(), serviceManager.Submission(), hub, logger),
		serviceManager:    serviceManager,
	}
}

// SetupRoutes wires every route. Admin routes sit behind bearer-token auth
// except login; the student surface is unauthenticated.
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	admin := router.Group("/api/admin")
	admin.POST("/login", hm.authHandler.Login)

	authed := admin.Group("")
	authed.Use(AuthMiddleware(hm.serviceManager.Auth()))
	{
		authed.GET("/questions", hm.questionHandler.ListQuestions)
		authed.POST("/questions", hm.questionHandler.CreateQuestion)
		authed.PUT("/questions/:id", hm.questionHandler.UpdateQuestion)
		authed.DELETE("/questions/:id", hm.questionHandler.DeleteQuestion)

		authed.GET("/collections", hm.collectionHandler.ListCollections)
		authed.POST("/collections", hm.collectionHandler.CreateCollection)
		authed.PUT("/collections/:id", hm.collectionHandler.RenameCollection)
		authed.DELETE("/collections/:id", hm.collectionHandler.DeleteCollection)

		authed.GET("/sessions", hm.sessionHandler.ListSessions)
		authed.POST("/sessions", hm.sessionHandler.CreateSession)
		// Same param slot as the :id session routes; gin requires one
		// wildcard name per segment. Codes are never numeric-only ids.
		authed.GET("/sessions/:id", hm.sessionHandler.GetSessionByCode)
		authed.GET("/models", hm.sessionHandler.ListModels)

		authed.PUT("/sessions/:id/end", hm.sessionHandler.EndSession)
		authed.DELETE("/sessions/:id", hm.sessionHandler.DeleteSession)
		authed.POST("/sessions/:id/activate-question", hm.sessionHandler.ActivateQuestion)
		authed.PUT("/sessions/:id/question/:sq_id/close", hm.sessionHandler.CloseQuestion)
		authed.PUT("/sessions/:id/close-all-questions", hm.sessionHandler.CloseAllQuestions)
		authed.POST("/sessions/:id/launch-collection/:collection_id", hm.sessionHandler.LaunchCollection)
		authed.GET("/sessions/:id/results", hm.sessionHandler.GetResults)
		authed.GET("/sessions/:id/connected-users", hm.sessionHandler.GetConnectedUsers)
		authed.GET("/sessions/:id/export-csv", hm.sessionHandler.ExportCSV)
		authed.GET("/sessions/:id/export-xlsx", hm.sessionHandler.ExportXLSX)
	}

	student := router.Group("/api/student")
	{
		student.POST("/join/:code", hm.studentHandler.Join)
		student.GET("/session/:id/active-questions", hm.studentHandler.ActiveQuestions)
		student.POST("/session/:id/question/:question_id/submit", hm.studentHandler.Submit)
		student.GET("/ws/:session_id", hm.studentHandler.WebSocket)
	}
}
