package timeclock

import "database/sql"

// 打刻種別
const (
	KindEntry = "ENTRY"
	KindExit  = "EXIT"
)

// 入場判定
const (
	OnTime = "ON_TIME"
	Late   = "LATE"
)

// EmployeeSchedule: PIN 解決時に JOIN で一括取得する打刻対象。
// 有効なシフトまで辿れない従業員はそもそも解決されない。
type EmployeeSchedule struct {
	EmployeeID       int64
	DisplayName      string
	EmployeeNumber   sql.NullString
	PropertyAreaID   int64
	PropertyName     string
	AreaName         string
	EntryTime        string // "HH:MM:SS"
	ExitTime         string // "HH:MM:SS"
	ToleranceMinutes int
}

// Record: 当日分の打刻行（時刻昇順で読む）
type Record struct {
	Kind      string
	ClockedAt string // "HH:MM:SS"
}
