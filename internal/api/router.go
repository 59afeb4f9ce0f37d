package api

import (
	"goalmentor/internal/auth"
	"goalmentor/internal/config"
	"goalmentor/internal/mentor"

	"github.com/gin-gonic/gin"
)

// Deps bundles everything the handlers need. Engines that carry no session
// state (categorizer, decomposer, prioritizer) are shared; the gate and
// autonomy controller are built per request around the session's store.
type Deps struct {
	Cfg      *config.Config
	Users    *auth.UserStore
	Sessions *auth.SessionStore
	Registry *mentor.Registry
	Oracle   mentor.Oracle
}

func SetupRouter(d *Deps) *gin.Engine {
	r := gin.Default()
	subpath := d.Cfg.Server.Subpath // e.g. "/mentor" or any custom path, always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(d.Cfg))

		// Setup: only if no users
		group.POST("/setup", SetupHandler(d))

		// Auth
		group.POST("/auth/login", LoginHandler(d))
		group.POST("/auth/logout", auth.AuthMiddleware(d.Cfg, d.Sessions), LogoutHandler(d))
		group.GET("/auth/me", auth.AuthMiddleware(d.Cfg, d.Sessions), MeHandler(d))

		authed := group.Group("", auth.AuthMiddleware(d.Cfg, d.Sessions))

		// --- Thought dump categorization + review gate ---
		authed.POST("/categorize", CategorizeHandler(d))
		authed.GET("/review", GetReviewHandler(d))
		authed.POST("/review/commit", CommitReviewHandler(d))
		authed.POST("/review/discard", DiscardReviewHandler(d))

		// --- Goal decomposition ---
		authed.POST("/decompose", DecomposeHandler(d))
		authed.POST("/goals/accept", AcceptGoalHandler(d))
		authed.GET("/goals", ListGoalsHandler(d))
		authed.DELETE("/goals", ClearGoalsHandler(d))

		// --- Flat dashboard ---
		authed.GET("/tasks", ListTasksHandler(d))
		authed.POST("/tasks", AddTaskHandler(d))
		authed.PUT("/tasks/:id/started", TaskStartedHandler(d))
		authed.PUT("/tasks/:id/done", TaskDoneHandler(d))
		authed.PUT("/tasks/:id/subtasks/:subId/done", SubtaskDoneHandler(d))
		authed.DELETE("/tasks/:id", DeleteTaskHandler(d))
		authed.POST("/tasks/clean", CleanTasksHandler(d))
		authed.GET("/tasks/top", TopTasksHandler(d))

		// --- Autonomy, progress, feedback, reflections ---
		authed.GET("/autonomy", GetAutonomyHandler(d))
		authed.PUT("/autonomy", SetAutonomyHandler(d))
		authed.GET("/progress", ProgressHandler(d))
		authed.POST("/feedback", AddFeedbackHandler(d))
		authed.GET("/feedback", ListFeedbackHandler(d))
		authed.DELETE("/feedback", ClearFeedbackHandler(d))
		authed.POST("/reflections", AddReflectionHandler(d))
		authed.GET("/reflections", ListReflectionsHandler(d))
		authed.GET("/suggestions", SuggestionsHandler(d))

		// --- Celebration feed ---
		group.GET("/ws/events", WSEventsHandler(d))
	}
	return r
}
