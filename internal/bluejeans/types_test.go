package bluejeans

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  ID
	}{
		{name: "number", input: `1234567890`, want: "1234567890"},
		{name: "string", input: `"1234567890"`, want: "1234567890"},
		{name: "opaque string", input: `"abc-def"`, want: "abc-def"},
		{name: "null", input: `null`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestID_UnmarshalJSON_Invalid(t *testing.T) {
	var id ID
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &id))
}

func TestID_MarshalJSON(t *testing.T) {
	tests := []struct {
		id   ID
		want string
	}{
		{id: "42", want: `42`},
		{id: "-7", want: `-7`},
		{id: "0", want: `0`},
		{id: "abc", want: `"abc"`},
		{id: "0123", want: `"0123"`},
		{id: "-0", want: `"-0"`},
		{id: "+1", want: `"+1"`},
		{id: "99999999999999999999", want: `"99999999999999999999"`},
		{id: "", want: `""`},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			b, err := json.Marshal(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(b))
		})
	}
}

func TestID_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "number", input: `1234567890`},
		{name: "opaque string", input: `"abc-def"`},
		{name: "leading zeros", input: `"0123"`},
		{name: "beyond int64", input: `99999999999999999999`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			require.NoError(t, json.Unmarshal([]byte(tt.input), &id))

			b, err := json.Marshal(id)
			require.NoError(t, err)
			require.True(t, json.Valid(b))

			var again ID
			require.NoError(t, json.Unmarshal(b, &again))
			assert.Equal(t, id, again)
		})
	}
}

func TestDefaultMeetingSettings(t *testing.T) {
	now := time.Date(2024, 5, 6, 7, 8, 9, 400_000_000, time.UTC)
	s := DefaultMeetingSettings(now, "")

	assert.Equal(t, int64(1800*1000), s.End-s.Start)
	assert.Equal(t, time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC).UnixMilli(), s.Start)
	assert.Equal(t, DefaultTimezone, s.Timezone)
	assert.Equal(t, DefaultMeetingTitle, s.Title)
	assert.Nil(t, s.AdvancedMeetingOptions)
}

func TestParseExpiryMode(t *testing.T) {
	mode, err := ParseExpiryMode("")
	require.NoError(t, err)
	assert.Equal(t, ExpiryModeLegacy, mode)

	mode, err = ParseExpiryMode("lifetime")
	require.NoError(t, err)
	assert.Equal(t, ExpiryModeLifetime, mode)

	_, err = ParseExpiryMode("forever")
	assert.Error(t, err)
}

func TestAPIError(t *testing.T) {
	err := &APIError{Op: OpGetUser, Method: "GET", Path: "/v1/x", StatusCode: 404}
	assert.Contains(t, err.Error(), "404")
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(&APIError{StatusCode: 500}))
}
