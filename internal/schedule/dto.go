package schedule

type CreateScheduleRequest struct {
	Name             string `json:"name" binding:"required"`
	EntryTime        string `json:"entry_time" binding:"required"`
	ExitTime         string `json:"exit_time" binding:"required"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
	ScheduleType     string `json:"schedule_type"`
	Weekdays         []int  `json:"weekdays" binding:"required"`
	PropertyAreaID   int64  `json:"property_area_id" binding:"required"`
}

type UpdateScheduleRequest struct {
	Name             string `json:"name" binding:"required"`
	EntryTime        string `json:"entry_time" binding:"required"`
	ExitTime         string `json:"exit_time" binding:"required"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
	ScheduleType     string `json:"schedule_type"`
	Weekdays         []int  `json:"weekdays" binding:"required"`
	PropertyAreaID   int64  `json:"property_area_id" binding:"required"`
}

type ScheduleResponse struct {
	ScheduleID       int64  `json:"schedule_id"`
	Name             string `json:"name"`
	EntryTime        string `json:"entry_time"`
	ExitTime         string `json:"exit_time"`
	ToleranceMinutes int    `json:"tolerance_minutes"`
	ScheduleType     string `json:"schedule_type"`
	Weekdays         []int  `json:"weekdays"`
	PropertyAreaID   int64  `json:"property_area_id"`
	PropertyName     string `json:"property_name,omitempty"`
	AreaName         string `json:"area_name,omitempty"`
	Active           bool   `json:"active"`
}

// LinkOption はシフトを張れる物件×エリアのリンク候補
type LinkOption struct {
	PropertyAreaID int64  `json:"property_area_id"`
	PropertyID     int64  `json:"property_id"`
	PropertyName   string `json:"property_name"`
	AreaName       string `json:"area_name"`
}
