package bluejeans

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
	_ "time/tzdata"
)

// ID is a BlueJeans identifier. The API emits some identifiers as JSON numbers
// and others as strings; both decode into ID.
type ID string

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits identifiers in canonical int64 form as JSON numbers and
// everything else, including leading zeros and out of range digits, as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if id.isInteger() {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String returns the identifier as a string.
func (id ID) String() string {
	return string(id)
}

func (id ID) isInteger() bool {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return err == nil && strconv.FormatInt(n, 10) == string(id)
}

// UserFields lists the user attributes requested from the enterprise user search.
var UserFields = []string{"username", "firstName", "middleName", "lastName", "email"}

// User is a read-only projection of a BlueJeans enterprise user.
type User struct {
	ID         ID     `json:"id"`
	URI        string `json:"uri"`
	Username   string `json:"username"`
	FirstName  string `json:"firstName"`
	MiddleName string `json:"middleName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
}

// userSearchResponse is the body of GET /v1/enterprise/{id}/users.
type userSearchResponse struct {
	Count int    `json:"count"`
	Users []User `json:"users"`
}

// AdvancedMeetingOptions holds scheduled meeting flags.
type AdvancedMeetingOptions struct {
	// ModeratorLess lets any participant start the meeting without the owner.
	ModeratorLess bool `json:"moderatorLess"`
}

// MeetingSettings is the payload used to create a scheduled meeting.
// Start and End are epoch milliseconds.
type MeetingSettings struct {
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	Start                  int64                   `json:"start"`
	End                    int64                   `json:"end"`
	Timezone               string                  `json:"timezone"`
	EndPointType           string                  `json:"endPointType"`
	EndPointVersion        string                  `json:"endPointVersion"`
	AdvancedMeetingOptions *AdvancedMeetingOptions `json:"advancedMeetingOptions,omitempty"`
}

// Meeting is a scheduled meeting resource.
type Meeting struct {
	ID                     ID                      `json:"id,omitempty"`
	NumericMeetingID       ID                      `json:"numericMeetingId,omitempty"`
	Title                  string                  `json:"title"`
	Description            string                  `json:"description"`
	Start                  int64                   `json:"start"`
	End                    int64                   `json:"end"`
	Timezone               string                  `json:"timezone"`
	EndPointType           string                  `json:"endPointType,omitempty"`
	EndPointVersion        string                  `json:"endPointVersion,omitempty"`
	AdvancedMeetingOptions *AdvancedMeetingOptions `json:"advancedMeetingOptions,omitempty"`
}

// StartTime returns the meeting start as a time.Time.
func (m *Meeting) StartTime() time.Time {
	return time.UnixMilli(m.Start)
}

// EndTime returns the meeting end as a time.Time.
func (m *Meeting) EndTime() time.Time {
	return time.UnixMilli(m.End)
}

// Duration returns the scheduled length of the meeting.
func (m *Meeting) Duration() time.Duration {
	return time.Duration(m.End-m.Start) * time.Millisecond
}

// DefaultMeetingSettings returns a 30 minute "Remote Office Hours" meeting
// starting at now, rounded to the second.
func DefaultMeetingSettings(now time.Time, timezone string) MeetingSettings {
	if timezone == "" {
		timezone = DefaultTimezone
	}
	start := now.Round(time.Second).Unix() * 1000

	return MeetingSettings{
		Title:           DefaultMeetingTitle,
		Description:     "",
		Start:           start,
		End:             start + DefaultMeetingLength.Milliseconds(),
		Timezone:        timezone,
		EndPointType:    DefaultEndPointType,
		EndPointVersion: DefaultEndPointVersion,
	}
}
