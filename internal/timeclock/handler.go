package timeclock

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TEMPO-backend/internal/platform/events"
)

type Handler struct{ svc *Service }

// RegisterKioskRoutes: 端末（リーダー）向け。認証なし。
// PIN自体が従業員の識別なので、端末ネットワークの分離が前提。
func RegisterKioskRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}
	r.POST("/checkin", h.CheckIn)
	r.POST("/checkin/photo", h.AttachPhoto)
	r.GET("/time", h.ServerTime)
}

// RegisterAdminRoutes: 管理画面向けの履歴参照。認証必須側のグループに登録する。
func RegisterAdminRoutes(r gin.IRoutes, svc *Service, hub *events.Hub) {
	h := &Handler{svc: svc}
	r.GET("/attendances", h.ListHistory)
	r.GET("/attendances/sse", events.Stream(hub, events.TopicAttendances))
}

// POST /checkin
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing pin"))
		return
	}

	res, err := h.svc.CheckIn(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// POST /checkin/photo
func (h *Handler) AttachPhoto(c *gin.Context) {
	var req AttachPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing fields"))
		return
	}

	res, err := h.svc.AttachPhoto(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /time
func (h *Handler) ServerTime(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.ServerTime(c.Request.Context()))
}

// GET /attendances
func (h *Handler) ListHistory(c *gin.Context) {
	q := HistoryQuery{
		Limit:  parseIntDefault(c.Query("limit"), DefaultPageLimit),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Sort:   c.DefaultQuery("sort", DefaultSort),
	}
	if v := c.Query("employee_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			q.EmployeeID = &id
		}
	}
	if v := c.Query("on"); v != "" {
		q.On = &v
	}
	if v := c.Query("from"); v != "" {
		q.From = &v
	}
	if v := c.Query("to"); v != "" {
		q.To = &v
	}

	rows, total, err := h.svc.ListHistory(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "data": rows})
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
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
