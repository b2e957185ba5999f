package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/audioshelf/internal/audit"
	auditrepo "github.com/mrlokans/audioshelf/internal/database/audit"
	"github.com/mrlokans/audioshelf/internal/entities"
)

const maxAuditPageSize = 100

type AuditController struct {
	auditService *audit.Service
}

func NewAuditController(auditService *audit.Service) *AuditController {
	return &AuditController{auditService: auditService}
}

// GetAuditEvents returns paginated audit events as JSON
// GET /api/admin/audit?type=&entity_type=&entity_id=&user_id=&limit=&offset=
func (ac *AuditController) GetAuditEvents(c *gin.Context) {
	limit := queryInt(c, "limit", 25)
	if limit < 1 || limit > maxAuditPageSize {
		limit = 25
	}
	offset := queryInt(c, "offset", 0)

	filter := auditrepo.Filter{
		EventType:  entities.AuditEventType(c.Query("type")),
		EntityType: c.Query("entity_type"),
	}
	if v, err := strconv.ParseUint(c.Query("entity_id"), 10, 32); err == nil {
		filter.EntityID = uint(v)
	}
	if v, err := strconv.ParseUint(c.Query("user_id"), 10, 32); err == nil {
		filter.UserID = uint(v)
	}

	events, total, err := ac.auditService.ListEvents(filter, limit, offset)
	if err != nil {
		respondDomainError(c, err, "list audit events")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
