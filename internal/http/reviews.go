package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/services"
)

type reviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type ReviewsController struct {
	reviews *services.ReviewLedger
}

func NewReviewsController(reviews *services.ReviewLedger) *ReviewsController {
	return &ReviewsController{reviews: reviews}
}

// ListReviews returns the book's reviews with the rating summary
// GET /api/books/:id/reviews
func (rc *ReviewsController) ListReviews(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	list, err := rc.reviews.ListReviews(ctx, id)
	if err != nil {
		respondDomainError(c, err, "list reviews")
		return
	}
	summary, err := rc.reviews.RatingSummary(ctx, id)
	if err != nil {
		respondDomainError(c, err, "rating summary")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": list, "rating": summary})
}

// AddReview records the caller's one review of the book
// POST /api/books/:id/reviews
func (rc *ReviewsController) AddReview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	review, err := rc.reviews.AddReview(c.Request.Context(), actorFrom(c), id, req.Rating, req.Comment)
	if err != nil {
		respondDomainError(c, err, "add review")
		return
	}
	c.JSON(http.StatusCreated, review)
}
