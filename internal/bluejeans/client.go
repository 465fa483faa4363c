package bluejeans

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/ohq-bluejeans/internal/instrumentation"
	"github.com/teemow/ohq-bluejeans/internal/logging"
)

const (
	// ProviderName identifies this backend in metrics, spans and public data.
	ProviderName = "bluejeans"

	// DefaultBaseURL is the production BlueJeans API.
	DefaultBaseURL = "https://api.bluejeans.com"

	// DefaultTimezone is used for meetings when none is configured.
	DefaultTimezone = "America/Detroit"

	DefaultMeetingTitle    = "Remote Office Hours"
	DefaultEndPointType    = "WEB_APP"
	DefaultEndPointVersion = "2.10"
	DefaultMeetingLength   = 30 * time.Minute

	// DefaultHTTPTimeout bounds a single API round trip.
	DefaultHTTPTimeout = 30 * time.Second

	// maxResponseBytes caps how much of a response body is read.
	maxResponseBytes = 1 << 20

	requestIDHeader = "X-Request-Id"
)

// Operation names used for spans, metrics and APIError.Op.
const (
	OpToken         = "token"
	OpGetUser       = "get_user"
	OpCreateMeeting = "create_meeting"
	OpReadMeeting   = "read_meeting"
	OpUpdateMeeting = "update_meeting"
	OpDeleteMeeting = "delete_meeting"
)

// MetricsRecorder receives per-request and per-refresh measurements.
// *instrumentation.Metrics satisfies it.
type MetricsRecorder interface {
	RecordProviderRequest(ctx context.Context, provider, operation, status string, duration time.Duration)
	RecordTokenRefresh(ctx context.Context, provider, result string)
}

// Client talks to the BlueJeans REST API on behalf of one enterprise account.
// It is safe for concurrent use.
type Client struct {
	baseURL      string
	clientID     string
	clientSecret string
	timezone     string
	expiryMode   ExpiryMode

	httpClient *http.Client
	logger     *slog.Logger
	metrics    MetricsRecorder
	now        func() time.Time

	// mu serializes the check-refresh-store sequence in session.
	mu           sync.Mutex
	accessToken  string
	expires      time.Time
	enterpriseID string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// WithHTTPClient sets the HTTP client used for every request, including token refresh.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithTimezone sets the timezone of default meetings.
func WithTimezone(tz string) Option {
	return func(c *Client) {
		if tz != "" {
			c.timezone = tz
		}
	}
}

// WithTokenExpiryMode selects how token lifetimes are interpreted.
func WithTokenExpiryMode(mode ExpiryMode) Option {
	return func(c *Client) {
		if mode != "" {
			c.expiryMode = mode
		}
	}
}

// NewClient creates a client for the given application credentials.
// No network I/O happens until the first request.
func NewClient(clientID, clientSecret string, opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		timezone:     DefaultTimezone,
		expiryMode:   ExpiryModeLegacy,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Timeout:   DefaultHTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	c.logger = c.logger.With(logging.Provider(ProviderName))
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timezone returns the timezone used for default meetings.
func (c *Client) Timezone() string {
	return c.timezone
}

// GetUser looks up the enterprise user with the given email.
// A 404 or an empty result returns (nil, nil).
func (c *Client) GetUser(ctx context.Context, email string) (*User, error) {
	sess, err := c.session(ctx)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("emailId", email)
	for _, f := range UserFields {
		query.Add("fields", f)
	}

	path := fmt.Sprintf("/v1/enterprise/%s/users", url.PathEscape(sess.enterpriseID))

	var resp userSearchResponse
	if err := c.send(ctx, sess, OpGetUser, http.MethodGet, path, query, nil, &resp); err != nil {
		if IsNotFound(err) {
			c.logger.DebugContext(ctx, "user not found", logging.UserHash(email))
			return nil, nil
		}
		return nil, err
	}

	switch {
	case resp.Count > 1 || len(resp.Users) > 1:
		return nil, &AmbiguousUserError{Email: email, Count: max(resp.Count, len(resp.Users))}
	case resp.Count == 0 && len(resp.Users) == 0:
		return nil, nil
	case len(resp.Users) == 0:
		return nil, fmt.Errorf("%w: count %d", ErrEmptyUserList, resp.Count)
	}

	user := resp.Users[0]
	return &user, nil
}

// CreateMeeting schedules a meeting owned by userID. A nil settings value
// creates the default 30 minute meeting starting now.
func (c *Client) CreateMeeting(ctx context.Context, userID ID, settings *MeetingSettings) (*Meeting, error) {
	if settings == nil {
		def := DefaultMeetingSettings(c.now(), c.timezone)
		settings = &def
	}

	path := fmt.Sprintf("/v1/user/%s/scheduled_meeting", url.PathEscape(userID.String()))

	var meeting Meeting
	if err := c.do(ctx, OpCreateMeeting, http.MethodPost, path, nil, settings, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// ReadMeeting fetches a scheduled meeting.
func (c *Client) ReadMeeting(ctx context.Context, userID, meetingID ID) (*Meeting, error) {
	var meeting Meeting
	if err := c.do(ctx, OpReadMeeting, http.MethodGet, meetingPath(userID, meetingID), nil, nil, &meeting); err != nil {
		return nil, err
	}
	return &meeting, nil
}

// UpdateMeeting replaces a scheduled meeting with the given representation.
func (c *Client) UpdateMeeting(ctx context.Context, userID, meetingID ID, meeting *Meeting) (*Meeting, error) {
	if meeting == nil {
		return nil, fmt.Errorf("meeting is required")
	}

	var updated Meeting
	if err := c.do(ctx, OpUpdateMeeting, http.MethodPut, meetingPath(userID, meetingID), nil, meeting, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteMeeting removes a scheduled meeting.
func (c *Client) DeleteMeeting(ctx context.Context, userID, meetingID ID) error {
	return c.do(ctx, OpDeleteMeeting, http.MethodDelete, meetingPath(userID, meetingID), nil, nil, nil)
}

func meetingPath(userID, meetingID ID) string {
	return fmt.Sprintf("/v1/user/%s/scheduled_meeting/%s",
		url.PathEscape(userID.String()), url.PathEscape(meetingID.String()))
}

// do ensures a session and sends one authorized request.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	sess, err := c.session(ctx)
	if err != nil {
		return err
	}
	return c.send(ctx, sess, op, method, path, query, body, out)
}

func (c *Client) send(ctx context.Context, sess sessionState, op, method, path string, query url.Values, body, out any) (err error) {
	ctx, span := instrumentation.StartProviderSpan(ctx, ProviderName, op)
	defer span.End()

	start := c.now()
	status := instrumentation.StatusSuccess
	defer func() {
		if err != nil {
			status = instrumentation.StatusError
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		if c.metrics != nil {
			c.metrics.RecordProviderRequest(ctx, ProviderName, op, status, c.now().Sub(start))
		}
	}()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+sess.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call bluejeans %s: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int(instrumentation.SpanAttrHTTPStatus, resp.StatusCode))

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			Op:         op,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
		c.logger.DebugContext(ctx, "bluejeans request failed",
			logging.Operation(op),
			slog.Int("status_code", resp.StatusCode),
			slog.String("request_id", req.Header.Get(requestIDHeader)))
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}
