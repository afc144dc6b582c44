package employee

type CreateEmployeeRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	EmployeeNumber string `json:"employee_number"`
	PropertyAreaID int64  `json:"property_area_id" binding:"required"`
}

type UpdateEmployeeRequest struct {
	FirstName      string `json:"first_name" binding:"required"`
	LastName       string `json:"last_name" binding:"required"`
	EmployeeNumber string `json:"employee_number"`
	PropertyAreaID int64  `json:"property_area_id" binding:"required"`
}

type EmployeeResponse struct {
	EmployeeID     int64   `json:"employee_id"`
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	EmployeeNumber *string `json:"employee_number"`
	PIN            string  `json:"pin"`
	PropertyAreaID *int64  `json:"property_area_id"`
	PropertyName   string  `json:"property_name,omitempty"`
	AreaName       string  `json:"area_name,omitempty"`
	Active         bool    `json:"active"`
}

// AreaLinkOption は従業員の配置先候補（物件×エリアのリンク）
type AreaLinkOption struct {
	PropertyAreaID int64  `json:"property_area_id"`
	PropertyID     int64  `json:"property_id"`
	PropertyName   string `json:"property_name"`
	AreaName       string `json:"area_name"`
}
