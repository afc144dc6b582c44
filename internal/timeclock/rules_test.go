package timeclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hms string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", "2026-08-31 "+hms)
	if err != nil {
		panic(err)
	}
	return t
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		wantKind string
		wantCode Code
	}{
		{"no records is entry", nil, KindEntry, ""},
		{"entry only is exit", []Record{{Kind: KindEntry, ClockedAt: "09:01:00"}}, KindExit, ""},
		{"exit only is rejected", []Record{{Kind: KindExit, ClockedAt: "18:00:00"}}, "", CodeAlreadyExited},
		{"entry and exit is complete", []Record{
			{Kind: KindEntry, ClockedAt: "09:01:00"},
			{Kind: KindExit, ClockedAt: "18:00:00"},
		}, "", CodeDayComplete},
		{"three records is complete", []Record{
			{Kind: KindEntry, ClockedAt: "09:01:00"},
			{Kind: KindExit, ClockedAt: "12:00:00"},
			{Kind: KindEntry, ClockedAt: "13:00:00"},
		}, "", CodeDayComplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, apiErr := ClassifyKind(tt.records)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				return
			}
			require.Nil(t, apiErr)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestEvaluatePunctualityBoundary(t *testing.T) {
	// 予定 09:00:00、猶予 15分 → 締切 09:15:00 は含む
	tests := []struct {
		now  string
		want string
	}{
		{"08:45:00", OnTime},
		{"09:00:00", OnTime},
		{"09:15:00", OnTime},
		{"09:15:01", Late},
		{"11:30:00", Late},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			got, apiErr := EvaluatePunctuality("09:00:00", 15, at(tt.now))
			require.Nil(t, apiErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluatePunctualityZeroTolerance(t *testing.T) {
	got, apiErr := EvaluatePunctuality("09:00:00", 0, at("09:00:00"))
	require.Nil(t, apiErr)
	assert.Equal(t, OnTime, got)

	got, apiErr = EvaluatePunctuality("09:00:00", 0, at("09:00:01"))
	require.Nil(t, apiErr)
	assert.Equal(t, Late, got)
}

func TestWithinEntryWindowBoundary(t *testing.T) {
	// 退勤 18:00:00 ちょうどで閉じる（その瞬間の入場は不可）
	tests := []struct {
		now  string
		want bool
	}{
		{"17:59:59", true},
		{"18:00:00", false},
		{"18:00:01", false},
	}
	for _, tt := range tests {
		t.Run(tt.now, func(t *testing.T) {
			got, apiErr := WithinEntryWindow("18:00:00", at(tt.now))
			require.Nil(t, apiErr)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMalformedScheduleTimes(t *testing.T) {
	_, apiErr := WithinEntryWindow("not-a-time", at("09:00:00"))
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeInternal, apiErr.Code)

	_, apiErr = EvaluatePunctuality("25:99:00", 15, at("09:00:00"))
	require.NotNil(t, apiErr)
	assert.Equal(t, CodeInternal, apiErr.Code)
}
