package api

import (
	"errors"
	"net/http"
	"time"

	"goalmentor/internal/mentor"

	"github.com/gin-gonic/gin"
)

// oracleError maps mentor sentinel errors onto HTTP statuses: bad input is
// the client's fault, an unreachable oracle is a 503, a garbled oracle
// answer is a 502.
func oracleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, mentor.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Input is empty"}})
	case errors.Is(err, mentor.ErrOracleUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{"message": "AI model is unavailable, try again later"}})
	case errors.Is(err, mentor.ErrMalformedResponse):
		c.JSON(http.StatusBadGateway, gin.H{"error": gin.H{"message": "AI model returned an unusable response"}})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": err.Error()}})
	}
}

// --- Categorization + review gate ---

type CategorizeRequest struct {
	Thoughts string `json:"thoughts"`
}

// POST /categorize
func CategorizeHandler(d *Deps) gin.HandlerFunc {
	cat := mentor.NewCategorizer(d.Oracle)
	return func(c *gin.Context) {
		var req CategorizeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		store := sessionStore(d, c)
		res, err := cat.Categorize(c.Request.Context(), req.Thoughts, store.Feedback(mentor.FeedbackCategorization))
		if err != nil {
			oracleError(c, err)
			return
		}
		pr := mentor.NewPendingReview(res)
		store.SetPendingReview(pr)
		c.JSON(http.StatusOK, pr)
	}
}

// GET /review
func GetReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		pr := sessionStore(d, c).PendingReview()
		if pr == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": "No pending review"}})
			return
		}
		c.JSON(http.StatusOK, pr)
	}
}

type CommitReviewRequest struct {
	Decisions []mentor.Decision `json:"decisions"`
}

// POST /review/commit
func CommitReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CommitReviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		store := sessionStore(d, c)
		gate := mentor.NewGate(store, mentor.NewController(store, d.Oracle))
		tasks, err := gate.Commit(c.Request.Context(), req.Decisions)
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"accepted": tasks})
	}
}

// POST /review/discard
func DiscardReviewHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionStore(d, c)
		mentor.NewGate(store, nil).Discard()
		c.JSON(http.StatusOK, gin.H{"message": "Review discarded"})
	}
}

// --- Goal decomposition ---

type DecomposeRequest struct {
	Goal     string `json:"goal"`
	Category string `json:"category"`
}

// POST /decompose
func DecomposeHandler(d *Deps) gin.HandlerFunc {
	dec := mentor.NewDecomposer(d.Oracle)
	return func(c *gin.Context) {
		var req DecomposeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		cat, ok := mentor.ParseCategory(req.Category)
		if !ok {
			cat = mentor.CategoryPersonal
		}
		store := sessionStore(d, c)
		res, err := dec.Decompose(c.Request.Context(), req.Goal, cat, store.Feedback(mentor.FeedbackDecomposition))
		if err != nil {
			oracleError(c, err)
			return
		}
		store.SetLastCandidate(res)
		c.JSON(http.StatusOK, gin.H{
			"goal":      res.Goal,
			"state":     res.State,
			"failures":  res.Failures,
			"message":   res.Message,
			"rationale": res.Goal.Rationale.Render(),
		})
	}
}

// POST /goals/accept
func AcceptGoalHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		store := sessionStore(d, c)
		gate := mentor.NewGate(store, mentor.NewController(store, d.Oracle))
		g, err := gate.CommitGoal(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, g)
	}
}

// GET /goals
func ListGoalsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		goals := sessionStore(d, c).Goals()
		out := make([]gin.H, 0, len(goals))
		for _, g := range goals {
			subgoals := make([]gin.H, 0, len(g.Subgoals))
			for _, sg := range g.Subgoals {
				subgoals = append(subgoals, gin.H{
					"id":                sg.ID,
					"title":             sg.Title,
					"level":             sg.Level,
					"status":            sg.Status(),
					"estimated_minutes": sg.EstimatedMinutes(),
					"tasks":             sg.Tasks,
				})
			}
			out = append(out, gin.H{
				"id":                 g.ID,
				"title":              g.Title,
				"description":        g.Description,
				"category":           g.Category,
				"confidence":         g.Confidence,
				"rationale":          g.Rationale.Render(),
				"created_at":         g.CreatedAt,
				"subgoals":           subgoals,
				"total_tasks":        g.TotalTasks(),
				"completed_tasks":    g.CompletedTasks(),
				"completion_percent": g.CompletionPercent(),
				"estimated_minutes":  g.EstimatedMinutes(),
			})
		}
		c.JSON(http.StatusOK, gin.H{"goals": out})
	}
}

// DELETE /goals
func ClearGoalsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionStore(d, c).ClearGoals()
		c.JSON(http.StatusOK, gin.H{"message": "Goals cleared"})
	}
}

// --- Flat dashboard ---

// GET /tasks
func ListTasksHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tasks": sessionStore(d, c).Tasks()})
	}
}

type AddTaskRequest struct {
	Category string `json:"category"`
	Text     string `json:"text"`
}

// POST /tasks (manual entry, bypasses the review gate)
func AddTaskHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddTaskRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		cat, ok := mentor.ParseCategory(req.Category)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown category"}})
			return
		}
		t, err := sessionStore(d, c).AddTask(cat, req.Text, mentor.ProvenanceManual)
		if err != nil {
			oracleError(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

type toggleRequest struct {
	Value bool `json:"value"`
}

// PUT /tasks/:id/started
func TaskStartedHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if err := sessionStore(d, c).SetTaskStarted(c.Param("id"), req.Value); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Updated"})
	}
}

// PUT /tasks/:id/done
func TaskDoneHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		celebrations, err := sessionStore(d, c).SetTaskDone(c.Param("id"), req.Value)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"celebrations": celebrations})
	}
}

// PUT /tasks/:id/subtasks/:subId/done
func SubtaskDoneHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req toggleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if err := sessionStore(d, c).SetSubtaskDone(c.Param("id"), c.Param("subId"), req.Value); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Updated"})
	}
}

// DELETE /tasks/:id
func DeleteTaskHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sessionStore(d, c).DeleteTask(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"message": err.Error()}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Deleted"})
	}
}

// POST /tasks/clean
func CleanTasksHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		removed, celebrations := sessionStore(d, c).CleanCompleted()
		c.JSON(http.StatusOK, gin.H{"removed": removed, "celebrations": celebrations})
	}
}

// GET /tasks/top
func TopTasksHandler(d *Deps) gin.HandlerFunc {
	pri := mentor.NewPrioritizer(d.Oracle)
	return func(c *gin.Context) {
		top, err := pri.TopTasks(c.Request.Context(), sessionStore(d, c).Tasks())
		if err != nil {
			oracleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"top": top})
	}
}

// --- Autonomy ---

// GET /autonomy
func GetAutonomyHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"enabled": sessionStore(d, c).Autonomy()})
	}
}

type SetAutonomyRequest struct {
	Enabled bool `json:"enabled"`
}

// PUT /autonomy
func SetAutonomyHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SetAutonomyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		store := sessionStore(d, c)
		removed := mentor.NewController(store, d.Oracle).SetEnabled(req.Enabled)
		c.JSON(http.StatusOK, gin.H{"enabled": req.Enabled, "purged_subtasks": removed})
	}
}

// --- Progress, feedback, reflections, suggestions ---

// GET /progress
func ProgressHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, sessionStore(d, c).Progress())
	}
}

type FeedbackRequest struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

func parseFeedbackKind(s string) (mentor.FeedbackKind, bool) {
	switch mentor.FeedbackKind(s) {
	case mentor.FeedbackCategorization, mentor.FeedbackDecomposition:
		return mentor.FeedbackKind(s), true
	}
	return "", false
}

// POST /feedback
func AddFeedbackHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req FeedbackRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		kind, ok := parseFeedbackKind(req.Kind)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown feedback kind"}})
			return
		}
		if err := sessionStore(d, c).AddFeedback(kind, req.Text); err != nil {
			oracleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Feedback stored"})
	}
}

// GET /feedback?kind=categorization
func ListFeedbackHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseFeedbackKind(c.Query("kind"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown feedback kind"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"feedback": sessionStore(d, c).Feedback(kind)})
	}
}

// DELETE /feedback?kind=categorization
func ClearFeedbackHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind, ok := parseFeedbackKind(c.Query("kind"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Unknown feedback kind"}})
			return
		}
		sessionStore(d, c).ClearFeedback(kind)
		c.JSON(http.StatusOK, gin.H{"message": "Feedback cleared"})
	}
}

type ReflectionRequest struct {
	Task string `json:"task"`
	Text string `json:"text"`
}

// POST /reflections
func AddReflectionHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ReflectionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"message": "Invalid request"}})
			return
		}
		if err := sessionStore(d, c).AddReflection(req.Task, req.Text); err != nil {
			oracleError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Reflection stored"})
	}
}

// GET /reflections
func ListReflectionsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reflections": sessionStore(d, c).Reflections()})
	}
}

// GET /suggestions
func SuggestionsHandler(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := mentor.Suggest(sessionStore(d, c).Tasks(), time.Now())
		c.JSON(http.StatusOK, gin.H{"suggestions": out})
	}
}
