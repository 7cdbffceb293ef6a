package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestamp_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"rfc3339", `"2024-05-01T10:00:00Z"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"offset", `"2024-05-01T12:00:00+02:00"`, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"zoneless micros", `"2024-01-02T03:04:05.123456"`, time.Date(2024, 1, 2, 3, 4, 5, 123456000, time.UTC)},
		{"zoneless seconds", `"2024-01-02T03:04:05"`, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"space separator", `"2024-01-02 03:04:05"`, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &ts))
			assert.True(t, tt.want.Equal(ts.Time), "got %s", ts.Time)
		})
	}
}

func TestTimestamp_NullAndInvalid(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	assert.True(t, ts.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))
	assert.Error(t, json.Unmarshal([]byte(`12`), &ts))
}

func TestTimestamp_MarshalJSON(t *testing.T) {
	ts := NewTimestamp(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	data, err := json.Marshal(&UpdateApplicationRequest{Status: StatusSubmitted, SubmittedAt: &ts})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"submitted","submitted_at":"2024-05-01T10:00:00Z"}`, string(data))
}

func TestZonelessTimestamps_Decode(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"id":"u-1","email":"a@b.co","created_at":"2024-01-02T03:04:05.123456"}`), &u))
	assert.Equal(t, 2024, u.CreatedAt.Year())

	var apps []Application
	require.NoError(t, json.Unmarshal([]byte(`[{"id":"a1","job_url":"https://ex.com","status":"pending",
		"created_at":"2024-01-02T03:04:05.123456","submitted_at":null}]`), &apps))
	require.Len(t, apps, 1)
	assert.Equal(t, time.January, apps[0].CreatedAt.Month())
	assert.Nil(t, apps[0].SubmittedAt)

	var p Profile
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Jane","created_at":"2024-01-02T03:04:05","updated_at":"2024-01-03T03:04:05.5"}`), &p))
	assert.Equal(t, 3, p.UpdatedAt.Day())
}
