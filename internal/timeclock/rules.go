package timeclock

import (
	"fmt"
	"time"
)

// 判定ロジックは全部ここの純関数。now は引数で渡す（共有時計を持たない）。

// ClassifyKind: 当日の既存打刻から今回の種別を決める。
//   - 0件           → ENTRY
//   - ENTRY 1件     → EXIT
//   - EXIT 1件      → ALREADY_EXITED（再入場は扱わない。1日1入1出まで）
//   - 2件以上       → DAY_COMPLETE
func ClassifyKind(records []Record) (string, *APIError) {
	switch {
	case len(records) == 0:
		return KindEntry, nil
	case len(records) == 1 && records[0].Kind == KindEntry:
		return KindExit, nil
	case len(records) == 1 && records[0].Kind == KindExit:
		return "", errAlreadyExited()
	default:
		return "", errDayComplete()
	}
}

// WithinEntryWindow: シフト退勤時刻より前かどうか。
// 境界は「退勤時刻ちょうど」で閉じる: now == 退勤時刻 の入場は不可。
func WithinEntryWindow(exitClock string, now time.Time) (bool, *APIError) {
	cutoff, err := atClock(now, exitClock)
	if err != nil {
		return false, ErrInternal(fmt.Sprintf("schedule has malformed exit time %q", exitClock))
	}
	return now.Before(cutoff), nil
}

// EvaluatePunctuality: 入場の遅刻判定。締切は 予定入場時刻+猶予分 で、
// 締切ちょうどは ON_TIME（境界は含む）。
func EvaluatePunctuality(entryClock string, toleranceMinutes int, now time.Time) (string, *APIError) {
	expected, err := atClock(now, entryClock)
	if err != nil {
		return "", ErrInternal(fmt.Sprintf("schedule has malformed entry time %q", entryClock))
	}
	deadline := expected.Add(time.Duration(toleranceMinutes) * time.Minute)
	if now.After(deadline) {
		return Late, nil
	}
	return OnTime, nil
}

// atClock: now と同じ暦日の "HH:MM:SS" 時点を作る
func atClock(now time.Time, clock string) (time.Time, error) {
	t, err := time.ParseInLocation(ClockLayout, clock, now.Location())
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(now.Year(), now.Month(), now.Day(),
		t.Hour(), t.Minute(), t.Second(), 0, now.Location()), nil
}
