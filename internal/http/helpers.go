package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/auth"
	"github.com/mrlokans/audioshelf/internal/domainerr"
	"github.com/mrlokans/audioshelf/internal/services"
)

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // per-field validation messages
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data    any   `json:"data"`
	Total   int64 `json:"total"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	HasMore bool  `json:"has_more"`
}

// actorFrom builds the service actor from the authenticated session user.
func actorFrom(c *gin.Context) services.Actor {
	return services.Actor{
		UserID:   auth.GetUserID(c),
		Username: auth.GetUsername(c),
		Admin:    auth.IsAdmin(c),
	}
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: string(domainerr.KindInvalidInput)})
}

// respondDomainError maps a service error to its HTTP status. Internal
// errors are logged but not exposed to the client.
func respondDomainError(c *gin.Context, err error, context string) {
	var de *domainerr.Error
	if !errors.As(err, &de) || de.Kind == domainerr.KindInternal {
		log.Printf("Internal error (%s): %v", context, err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  string(domainerr.KindInternal),
		})
		return
	}
	c.JSON(de.Kind.HTTPStatus(), ErrorResponse{
		Error:   de.Message,
		Code:    string(de.Kind),
		Details: de.Details,
	})
}

// parseIDParam extracts an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// queryInt returns a non-negative integer query parameter or def.
func queryInt(c *gin.Context, name string, def int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil || v < 0 {
		return def
	}
	return v
}
