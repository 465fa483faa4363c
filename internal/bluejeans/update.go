package bluejeans

import (
	"errors"
	"fmt"
	"time"
)

// MeetingUpdate is a partial change to a scheduled meeting. Nil fields are
// left as they are.
type MeetingUpdate struct {
	Title         *string
	Description   *string
	Start         *time.Time
	Length        *time.Duration
	Timezone      *string
	ModeratorLess *bool
}

// IsEmpty reports whether the update changes nothing.
func (u MeetingUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Start == nil &&
		u.Length == nil && u.Timezone == nil && u.ModeratorLess == nil
}

// Apply copies the set fields onto m. Moving the start keeps the current
// length unless Length is also set.
func (u MeetingUpdate) Apply(m *Meeting) error {
	if m == nil {
		return errors.New("meeting is required")
	}
	if u.Length != nil && *u.Length <= 0 {
		return fmt.Errorf("meeting length must be positive, got %s", *u.Length)
	}
	if u.Timezone != nil {
		if _, err := time.LoadLocation(*u.Timezone); err != nil || *u.Timezone == "" {
			return fmt.Errorf("unknown timezone %q", *u.Timezone)
		}
	}

	length := m.Duration()
	if u.Length != nil {
		length = *u.Length
	}

	if u.Title != nil {
		m.Title = *u.Title
	}
	if u.Description != nil {
		m.Description = *u.Description
	}
	if u.Timezone != nil {
		m.Timezone = *u.Timezone
	}
	if u.ModeratorLess != nil {
		if m.AdvancedMeetingOptions == nil {
			m.AdvancedMeetingOptions = &AdvancedMeetingOptions{}
		}
		m.AdvancedMeetingOptions.ModeratorLess = *u.ModeratorLess
	}
	if u.Start != nil {
		m.Start = u.Start.Round(time.Second).UnixMilli()
	}
	m.End = m.Start + length.Milliseconds()
	return nil
}
