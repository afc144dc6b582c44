package property

type CreatePropertyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type UpdatePropertyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address" binding:"required"`
}

type PropertyResponse struct {
	PropertyID int64  `json:"property_id"`
	Name       string `json:"name"`
	Address    string `json:"address"`
	Active     bool   `json:"active"`
}
