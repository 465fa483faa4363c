package backend

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/instrumentation"
	"github.com/teemow/ohq-bluejeans/internal/logging"
)

const (
	Name         = bluejeans.ProviderName
	FriendlyName = "BlueJeans"

	DefaultMeetingBaseURL  = "https://bluejeans.com"
	DefaultPortalHost      = "umich.bluejeans.com"
	DefaultInternalDocsURL = "https://documentation.its.umich.edu/node/1830"
)

// Config is the host configuration of the BlueJeans backend.
type Config struct {
	// Enabled is true when "bluejeans" appears in the host's enabled backends
	Enabled bool

	DocsURL          string
	TelephoneNum     string
	IntlTelephoneURL string

	// Timezone of created meetings (default: America/Detroit)
	Timezone string

	// MeetingBaseURL prefixes the numeric meeting id in join URLs
	MeetingBaseURL string

	// PortalHost is named in the "no account" message
	PortalHost string

	// InternalDocsURL is linked from the description of created meetings
	InternalDocsURL string
}

func (c Config) withDefaults() Config {
	if c.Timezone == "" {
		c.Timezone = bluejeans.DefaultTimezone
	}
	if c.MeetingBaseURL == "" {
		c.MeetingBaseURL = DefaultMeetingBaseURL
	}
	c.MeetingBaseURL = strings.TrimRight(c.MeetingBaseURL, "/")
	if c.PortalHost == "" {
		c.PortalHost = DefaultPortalHost
	}
	if c.InternalDocsURL == "" {
		c.InternalDocsURL = DefaultInternalDocsURL
	}
	return c
}

// PublicData is the capability descriptor shown to queue users.
type PublicData struct {
	Name             string `json:"name"`
	FriendlyName     string `json:"friendly_name"`
	Enabled          bool   `json:"enabled"`
	DocsURL          string `json:"docs_url"`
	TelephoneNum     string `json:"telephone_num"`
	IntlTelephoneURL string `json:"intl_telephone_url"`
}

// Assignee is the queue member a meeting is provisioned for.
type Assignee interface {
	GetEmail() string
}

// User is a minimal Assignee.
type User struct {
	Email string `json:"email"`
}

// GetEmail returns the user's email.
func (u User) GetEmail() string {
	return u.Email
}

// Provider is the subset of the BlueJeans client used to provision meetings.
type Provider interface {
	GetUser(ctx context.Context, email string) (*bluejeans.User, error)
	CreateMeeting(ctx context.Context, userID bluejeans.ID, settings *bluejeans.MeetingSettings) (*bluejeans.Meeting, error)
}

// ProvisionRecorder receives the outcome of each SaveUserMeeting call.
// *instrumentation.Metrics satisfies it.
type ProvisionRecorder interface {
	RecordProvision(ctx context.Context, provider, result string)
}

// Backend binds the office hours queue to one BlueJeans account.
type Backend struct {
	config   Config
	provider Provider
	logger   *slog.Logger
	metrics  ProvisionRecorder
	now      func() time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics sets the provision recorder.
func WithMetrics(m ProvisionRecorder) Option {
	return func(b *Backend) {
		b.metrics = m
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

// New creates a backend over the given provider.
func New(config Config, provider Provider, opts ...Option) *Backend {
	b := &Backend{
		config:   config.withDefaults(),
		provider: provider,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(logging.Provider(Name))
	return b
}

// Config returns the effective configuration.
func (b *Backend) Config() Config {
	return b.config
}

// PublicData returns the capability descriptor. It performs no I/O.
func (b *Backend) PublicData() PublicData {
	return PublicData{
		Name:             Name,
		FriendlyName:     FriendlyName,
		Enabled:          b.config.Enabled,
		DocsURL:          b.config.DocsURL,
		TelephoneNum:     b.config.TelephoneNum,
		IntlTelephoneURL: b.config.IntlTelephoneURL,
	}
}

// IsAuthorized reports whether the assignee may use this backend.
// BlueJeans needs no per-user authorization.
func (b *Backend) IsAuthorized(Assignee) bool {
	return true
}

// MeetingURL returns the join URL for a numeric meeting id.
func (b *Backend) MeetingURL(numericMeetingID bluejeans.ID) string {
	return b.config.MeetingBaseURL + "/" + numericMeetingID.String()
}

// MeetingSettings returns the settings used for newly provisioned meetings.
func (b *Backend) MeetingSettings() bluejeans.MeetingSettings {
	settings := bluejeans.DefaultMeetingSettings(b.now(), b.config.Timezone)
	settings.Description = "This meeting was created by the Remote Office Hours Queue application. See " +
		b.config.InternalDocsURL
	settings.AdvancedMeetingOptions = &bluejeans.AdvancedMeetingOptions{ModeratorLess: true}
	return settings
}

// SaveUserMeeting makes sure the assignee has a meeting. Metadata that is
// already provisioned is returned unchanged without contacting BlueJeans.
// An assignee without a BlueJeans account yields a *ValidationError and the
// record stays unprovisioned.
func (b *Backend) SaveUserMeeting(ctx context.Context, metadata Metadata, assignee Assignee) (Metadata, error) {
	if metadata.Provisioned() {
		b.recordProvision(ctx, instrumentation.ProvisionExisting)
		return metadata, nil
	}

	if assignee == nil {
		return metadata, ErrNoAssignee
	}

	email := assignee.GetEmail()
	logger := b.logger.With(logging.UserHash(email))

	user, err := b.provider.GetUser(ctx, email)
	if err != nil {
		b.recordProvision(ctx, instrumentation.ProvisionError)
		return metadata, fmt.Errorf("failed to look up bluejeans user: %w", err)
	}
	if user == nil {
		b.recordProvision(ctx, instrumentation.ProvisionNoAccount)
		logger.InfoContext(ctx, "assignee has no bluejeans account")
		return metadata, newNoAccountError(email, b.config.PortalHost)
	}

	settings := b.MeetingSettings()
	meeting, err := b.provider.CreateMeeting(ctx, user.ID, &settings)
	if err != nil {
		b.recordProvision(ctx, instrumentation.ProvisionError)
		return metadata, fmt.Errorf("failed to create bluejeans meeting: %w", err)
	}
	if meeting == nil || meeting.ID == "" {
		b.recordProvision(ctx, instrumentation.ProvisionError)
		logger.ErrorContext(ctx, "created meeting has no id")
		return metadata, ErrMeetingWithoutID
	}

	out := metadata.Clone()
	url := b.MeetingURL(meeting.NumericMeetingID)
	out.UserID = user.ID
	out.MeetingID = meeting.ID
	out.NumericMeetingID = meeting.NumericMeetingID
	out.MeetingURL = url
	out.HostMeetingURL = url

	b.recordProvision(ctx, instrumentation.ProvisionCreated)
	logger.InfoContext(ctx, "meeting provisioned", logging.MeetingID(meeting.ID.String()))
	return out, nil
}

func (b *Backend) recordProvision(ctx context.Context, result string) {
	if b.metrics != nil {
		b.metrics.RecordProvision(ctx, Name, result)
	}
}
