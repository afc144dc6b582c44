package timeclock

import "time"

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04:05"
)

type CheckInRequest struct {
	PIN string `json:"pin" binding:"required"`
}

// CheckInResponse: 端末に返す打刻結果。
// Punctuality は ENTRY のときだけ入る（EXIT では null）。
type CheckInResponse struct {
	AttendanceID int64   `json:"attendance_id"`
	DisplayName  string  `json:"display_name"`
	Kind         string  `json:"kind"`
	Punctuality  *string `json:"punctuality"`
}

type AttachPhotoRequest struct {
	AttendanceID int64  `json:"attendance_id" binding:"required"`
	ImageBase64  string `json:"image_base64" binding:"required"`
}

type AttachPhotoResponse struct {
	AttendanceID int64  `json:"attendance_id"`
	PhotoRef     string `json:"photo_ref"`
}

// ServerTimeResponse: キオスク側の時計合わせ用
type ServerTimeResponse struct {
	Timestamp int64     `json:"timestamp"`
	ISO       time.Time `json:"iso"`
	Date      string    `json:"date"`
	Clock     string    `json:"clock"`
}
