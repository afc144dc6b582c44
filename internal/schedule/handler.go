package schedule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/events"
)

type Handler struct{ svc *Service }

// RegisterRoutes: シフトの変更系は物件横断の影響があるため ADMIN のみ。
func RegisterRoutes(r gin.IRoutes, svc *Service, hub *events.Hub) {
	h := &Handler{svc: svc}
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	r.GET("/schedules/sse", events.Stream(hub, events.TopicSchedules))
	r.POST("/schedules", adminOnly, h.Create)
	r.GET("/schedules", h.List)
	r.GET("/schedules/available-links", h.AvailableLinks)
	r.GET("/schedules/:id", h.Get)
	r.PUT("/schedules/:id", adminOnly, h.Update)
	r.DELETE("/schedules/:id", adminOnly, h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument,
			"name, entry_time, exit_time, weekdays and property_area_id are required"))
		return
	}
	ident, _ := auth.FromContext(c)

	id, err := h.svc.Create(c.Request.Context(), ident, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"schedule_id": id})
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListActive(c.Request.Context())
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(out), "data": out})
}

func (h *Handler) AvailableLinks(c *gin.Context) {
	scheduleID, _ := strconv.ParseInt(c.Query("schedule_id"), 10, 64)

	out, err := h.svc.ListAvailableLinks(c.Request.Context(), scheduleID)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": len(out), "data": out})
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	s, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument,
			"name, entry_time, exit_time, weekdays and property_area_id are required"))
		return
	}
	ident, _ := auth.FromContext(c)

	if err := h.svc.Update(c.Request.Context(), ident, id, req); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ident, _ := auth.FromContext(c)

	if err := h.svc.Delete(c.Request.Context(), ident, id); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ---------- helpers ----------

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid id"))
		return 0, false
	}
	return id, true
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var msg string
	var code Code = CodeInternal
	if api, ok := err.(*APIError); ok {
		code, msg = api.Code, api.Message
	} else {
		msg = "internal error"
	}
	return errorBody(code, msg)
}
