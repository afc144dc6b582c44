package area

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/events"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service, hub *events.Hub) {
	h := &Handler{svc: svc}
	writers := auth.RequireRole(auth.RoleAdmin, auth.RolePropertyAdmin)

	r.GET("/areas/sse", events.Stream(hub, events.TopicAreas))
	r.POST("/areas", writers, h.Create)
	r.GET("/areas", h.List)
	r.GET("/areas/:id", h.Get)
	r.PUT("/areas/:id", writers, h.Update)
	r.DELETE("/areas/:id", writers, h.Delete)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "name and property_id are required"))
		return
	}
	ident, _ := auth.FromContext(c)

	out, err := h.svc.Create(c.Request.Context(), ident, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": out})
}

func (h *Handler) List(c *gin.Context) {
	ident, _ := auth.FromContext(c)
	propertyID, _ := strconv.ParseInt(c.Query("property_id"), 10, 64)

	out, err := h.svc.ListActive(c.Request.Context(), ident, propertyID)
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
	ident, _ := auth.FromContext(c)

	a, err := h.svc.GetByLinkID(c.Request.Context(), ident, id)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": a})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdateAreaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "name and property_id are required"))
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
