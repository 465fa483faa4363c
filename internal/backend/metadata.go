package backend

import (
	"encoding/json"
	"fmt"

	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
)

// Metadata keys written by SaveUserMeeting.
const (
	KeyUserID           = "user_id"
	KeyMeetingID        = "meeting_id"
	KeyNumericMeetingID = "numeric_meeting_id"
	KeyMeetingURL       = "meeting_url"
	KeyHostMeetingURL   = "host_meeting_url"
)

// Metadata is the host-owned record of a provisioned meeting. Keys the adapter
// does not know about are kept in Extra and written back unchanged.
type Metadata struct {
	UserID           bluejeans.ID
	MeetingID        bluejeans.ID
	NumericMeetingID bluejeans.ID
	MeetingURL       string
	HostMeetingURL   string

	Extra map[string]json.RawMessage
}

// Provisioned reports whether a meeting has already been created for the record.
func (m Metadata) Provisioned() bool {
	return m.MeetingID != ""
}

// Clone returns a deep copy.
func (m Metadata) Clone() Metadata {
	out := m
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// MarshalJSON flattens known fields and Extra into one object.
func (m Metadata) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(m.Extra)+5)
	for k, v := range m.Extra {
		obj[k] = v
	}
	if m.UserID != "" {
		obj[KeyUserID] = m.UserID
	}
	if m.MeetingID != "" {
		obj[KeyMeetingID] = m.MeetingID
	}
	if m.NumericMeetingID != "" {
		obj[KeyNumericMeetingID] = m.NumericMeetingID
	}
	if m.MeetingURL != "" {
		obj[KeyMeetingURL] = m.MeetingURL
	}
	if m.HostMeetingURL != "" {
		obj[KeyHostMeetingURL] = m.HostMeetingURL
	}
	return json.Marshal(obj)
}

// UnmarshalJSON splits a metadata object into known fields and Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid backend metadata: %w", err)
	}

	*m = Metadata{}
	ids := map[string]*bluejeans.ID{
		KeyUserID:           &m.UserID,
		KeyMeetingID:        &m.MeetingID,
		KeyNumericMeetingID: &m.NumericMeetingID,
	}
	urls := map[string]*string{
		KeyMeetingURL:     &m.MeetingURL,
		KeyHostMeetingURL: &m.HostMeetingURL,
	}

	for k, v := range raw {
		if dst, ok := ids[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			continue
		}
		if dst, ok := urls[k]; ok {
			if err := json.Unmarshal(v, dst); err != nil {
				return fmt.Errorf("invalid %s: %w", k, err)
			}
			continue
		}
		if m.Extra == nil {
			m.Extra = make(map[string]json.RawMessage)
		}
		m.Extra[k] = v
	}
	return nil
}
