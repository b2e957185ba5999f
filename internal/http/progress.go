package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/services"
)

type chapterRequest struct {
	ChapterID *uint `json:"chapter_id"`
}

type positionRequest struct {
	Position *float64 `json:"position" binding:"required"`
}

// ProgressController exposes the listening-progress operations of the
// logged-in user.
type ProgressController struct {
	progress *services.ProgressTracker
}

func NewProgressController(progress *services.ProgressTracker) *ProgressController {
	return &ProgressController{progress: progress}
}

// bindChapter reads an optional chapter id; an empty body means none.
func bindChapter(c *gin.Context) (*uint, bool) {
	var req chapterRequest
	if c.Request.ContentLength == 0 {
		return nil, true
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, true
		}
		respondBadRequest(c, "invalid request body")
		return nil, false
	}
	return req.ChapterID, true
}

// Start marks the book currently_reading, demoting any other
// POST /api/books/:id/start
func (pc *ProgressController) Start(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := bindChapter(c)
	if !ok {
		return
	}

	record, err := pc.progress.Activate(c.Request.Context(), actorFrom(c), id, chapterID)
	if err != nil {
		respondDomainError(c, err, "start book")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Save marks the book saved for later
// POST /api/books/:id/save
func (pc *ProgressController) Save(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	chapterID, ok := bindChapter(c)
	if !ok {
		return
	}

	record, err := pc.progress.Defer(c.Request.Context(), actorFrom(c), id, chapterID)
	if err != nil {
		respondDomainError(c, err, "save book")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Finish marks the book finished. Finishing a book the user never saved or
// started changes nothing and reports outcome "no_record".
// POST /api/books/:id/finish
func (pc *ProgressController) Finish(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	outcome, err := pc.progress.Finish(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondDomainError(c, err, "finish book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome.String()})
}

// Position stores the playback position in seconds
// PUT /api/books/:id/position
func (pc *ProgressController) Position(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "position is required")
		return
	}

	stored, err := pc.progress.UpdatePosition(c.Request.Context(), actorFrom(c), id, *req.Position)
	if err != nil {
		respondDomainError(c, err, "update position")
		return
	}
	c.JSON(http.StatusOK, gin.H{"position": stored})
}

// Resume returns the chapter playback resumes from, or null
// GET /api/books/:id/resume
func (pc *ProgressController) Resume(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	chapter, err := pc.progress.ResumePointer(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondDomainError(c, err, "resume pointer")
		return
	}
	c.JSON(http.StatusOK, gin.H{"chapter": chapter})
}

// GET /api/me/shelf
func (pc *ProgressController) Shelf(c *gin.Context) {
	shelf, err := pc.progress.ListByStatus(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondDomainError(c, err, "shelf")
		return
	}
	c.JSON(http.StatusOK, shelf)
}

// GET /api/me/dashboard
func (pc *ProgressController) Dashboard(c *gin.Context) {
	dashboard, err := pc.progress.Dashboard(c.Request.Context(), actorFrom(c))
	if err != nil {
		respondDomainError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
