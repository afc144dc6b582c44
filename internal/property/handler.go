package property

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TEMPO-backend/internal/platform/auth"
	"TEMPO-backend/internal/platform/events"
)

type Handler struct{ svc *Service }

// RegisterRoutes: 認証必須グループに登録する。物件の変更系は ADMIN のみ。
func RegisterRoutes(r gin.IRoutes, svc *Service, hub *events.Hub) {
	h := &Handler{svc: svc}
	adminOnly := auth.RequireRole(auth.RoleAdmin)

	r.GET("/properties/sse", events.Stream(hub, events.TopicProperties))
	r.POST("/properties", adminOnly, h.Create)
	r.GET("/properties", h.List)
	r.GET("/properties/:id", h.Get)
	r.PUT("/properties/:id", adminOnly, h.Update)
	r.DELETE("/properties/:id/full", adminOnly, h.DeleteFull)
	r.DELETE("/properties/:id/only", adminOnly, h.DeleteOnly)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "name and address are required"))
		return
	}
	ident, _ := auth.FromContext(c)

	id, err := h.svc.Create(c.Request.Context(), ident, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"property_id": id})
}

func (h *Handler) List(c *gin.Context) {
	out, err := h.svc.ListActive(c.Request.Context())
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
	p, err := h.svc.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req UpdatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "name and address are required"))
		return
	}
	ident, _ := auth.FromContext(c)

	if err := h.svc.Update(c.Request.Context(), ident, id, req); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

func (h *Handler) DeleteFull(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ident, _ := auth.FromContext(c)

	if err := h.svc.DeleteFull(c.Request.Context(), ident, id); err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) DeleteOnly(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ident, _ := auth.FromContext(c)

	if err := h.svc.DeleteOnly(c.Request.Context(), ident, id); err != nil {
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
