package area

type CreateAreaRequest struct {
	Name       string `json:"name" binding:"required"`
	PropertyID int64  `json:"property_id" binding:"required"`
}

type UpdateAreaRequest struct {
	Name       string `json:"name" binding:"required"`
	PropertyID int64  `json:"property_id" binding:"required"`
}

// AreaResponse はリンク（property_areas）視点の行。一覧・SSE 通知の共通形。
type AreaResponse struct {
	AreaID         int64  `json:"area_id"`
	Name           string `json:"name"`
	PropertyAreaID int64  `json:"property_area_id"`
	PropertyID     int64  `json:"property_id"`
	PropertyName   string `json:"property_name"`
	Active         bool   `json:"active"`
}
