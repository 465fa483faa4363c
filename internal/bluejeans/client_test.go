package bluejeans

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-process stand-in for the BlueJeans API.
type fakeAPI struct {
	t *testing.T

	tokenCalls   atomic.Int32
	apiCalls     atomic.Int32
	tokenStatus  int
	enterprise   any
	expiresIn    int
	usersHandler http.HandlerFunc

	mu       sync.Mutex
	meetings map[string]Meeting
	lastForm map[string][]string
	lastAuth string
	lastReq  *http.Request
	lastBody []byte
}

func newFakeAPI(t *testing.T) (*fakeAPI, *httptest.Server) {
	t.Helper()
	f := &fakeAPI{
		t:           t,
		tokenStatus: http.StatusOK,
		enterprise:  12345,
		expiresIn:   3600,
		meetings:    map[string]Meeting{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth2/token", f.handleToken)
	mux.HandleFunc("GET /v1/enterprise/{enterprise}/users", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if f.usersHandler != nil {
			f.usersHandler(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"count": 1,
			"users": []map[string]any{{"id": 42, "username": "jdoe", "email": r.URL.Query().Get("emailId")}},
		})
	})
	mux.HandleFunc("POST /v1/user/{user}/scheduled_meeting", func(w http.ResponseWriter, r *http.Request) {
		body := f.record(r)
		var m Meeting
		require.NoError(t, json.Unmarshal(body, &m))
		m.ID = "9001"
		m.NumericMeetingID = "1234567890"
		f.mu.Lock()
		f.meetings[string(m.ID)] = m
		f.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]any{
			"id":               9001,
			"numericMeetingId": "1234567890",
			"title":            m.Title,
			"description":      m.Description,
			"start":            m.Start,
			"end":              m.End,
			"timezone":         m.Timezone,
		})
	})
	mux.HandleFunc("/v1/user/{user}/scheduled_meeting/{meeting}", func(w http.ResponseWriter, r *http.Request) {
		body := f.record(r)
		id := r.PathValue("meeting")
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.meetings[id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
			return
		}
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, m)
		case http.MethodPut:
			var upd Meeting
			require.NoError(t, json.Unmarshal(body, &upd))
			upd.ID = m.ID
			upd.NumericMeetingID = m.NumericMeetingID
			f.meetings[id] = upd
			writeJSON(w, http.StatusOK, upd)
		case http.MethodDelete:
			delete(f.meetings, id)
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) handleToken(w http.ResponseWriter, r *http.Request) {
	n := f.tokenCalls.Add(1)
	require.NoError(f.t, r.ParseForm())
	f.mu.Lock()
	f.lastForm = r.PostForm
	f.mu.Unlock()

	if f.tokenStatus != http.StatusOK {
		writeJSON(w, f.tokenStatus, map[string]any{"error": "invalid_client"})
		return
	}

	scope := map[string]any{}
	if f.enterprise != nil {
		scope["enterprise"] = f.enterprise
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": fmt.Sprintf("token-%d", n),
		"expires_in":   f.expiresIn,
		"scope":        scope,
	})
}

func (f *fakeAPI) record(r *http.Request) []byte {
	f.apiCalls.Add(1)
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.lastAuth = r.Header.Get("Authorization")
	f.lastReq = r
	f.lastBody = body
	f.mu.Unlock()
	return body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestClient(srv *httptest.Server, opts ...Option) *Client {
	base := []Option{WithBaseURL(srv.URL), WithHTTPClient(srv.Client())}
	return NewClient("app-id", "app-secret", append(base, opts...)...)
}

func TestEnsureSession_SendsClientCredentials(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(srv)

	token, err := c.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "12345", c.EnterpriseID())

	assert.Equal(t, "client_credentials", f.lastForm["grant_type"][0])
	assert.Equal(t, "app-id", f.lastForm["client_id"][0])
	assert.Equal(t, "app-secret", f.lastForm["client_secret"][0])
}

func TestEnsureSession_LifetimeModeReusesToken(t *testing.T) {
	f, srv := newFakeAPI(t)
	clock := &fixedClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	c := newTestClient(srv, WithClock(clock.Now), WithTokenExpiryMode(ExpiryModeLifetime))

	ctx := context.Background()
	first, err := c.EnsureSession(ctx)
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	second, err := c.EnsureSession(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.tokenCalls.Load())

	// 3600s lifetime minus 60s skew
	clock.Advance(50 * time.Minute)
	third, err := c.EnsureSession(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
	assert.Equal(t, int32(2), f.tokenCalls.Load())
}

func TestEnsureSession_LegacyModeRefreshesEveryCall(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(srv)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := c.EnsureSession(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), f.tokenCalls.Load())
}

func TestEnsureSession_TokenEndpointError(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.tokenStatus = http.StatusUnauthorized
	c := newTestClient(srv)

	_, err := c.EnsureSession(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, OpToken, apiErr.Op)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "invalid_client")
}

func TestEnsureSession_MissingEnterprise(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.enterprise = nil
	c := newTestClient(srv)

	_, err := c.EnsureSession(context.Background())
	assert.ErrorIs(t, err, ErrMissingEnterprise)
}

func TestEnsureSession_ConcurrentCallersShareRefresh(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(srv, WithTokenExpiryMode(ExpiryModeLifetime))

	var wg sync.WaitGroup
	tokens := make([]string, 10)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := c.EnsureSession(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), f.tokenCalls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "token-1", tok)
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantUser  bool
		wantErrAs any
		wantErrIs error
	}{
		{
			name:     "single match",
			wantUser: true,
		},
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusNotFound, map[string]any{})
			},
		},
		{
			name: "zero results",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"count": 0, "users": []any{}})
			},
		},
		{
			name: "ambiguous",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{
					"count": 2,
					"users": []map[string]any{{"id": 1}, {"id": 2}},
				})
			},
			wantErrAs: new(*AmbiguousUserError),
		},
		{
			name: "ambiguous count without users",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"count": 2, "users": []any{}})
			},
			wantErrAs: new(*AmbiguousUserError),
		},
		{
			name: "single count without users",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"count": 1, "users": []any{}})
			},
			wantErrIs: ErrEmptyUserList,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "boom"})
			},
			wantErrAs: new(*APIError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeAPI(t)
			f.usersHandler = tt.handler
			c := newTestClient(srv)

			user, err := c.GetUser(context.Background(), "jdoe@example.edu")
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
				assert.Nil(t, user)
				return
			}
			if tt.wantErrAs != nil {
				require.Error(t, err)
				assert.ErrorAs(t, err, tt.wantErrAs)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			if !tt.wantUser {
				assert.Nil(t, user)
				return
			}
			require.NotNil(t, user)
			assert.Equal(t, ID("42"), user.ID)
			assert.Equal(t, "jdoe@example.edu", user.Email)
		})
	}
}

func TestGetUser_RequestShape(t *testing.T) {
	f, srv := newFakeAPI(t)
	c := newTestClient(srv)

	_, err := c.GetUser(context.Background(), "jdoe@example.edu")
	require.NoError(t, err)

	assert.Equal(t, "/v1/enterprise/12345/users", f.lastReq.URL.Path)
	assert.Equal(t, "jdoe@example.edu", f.lastReq.URL.Query().Get("emailId"))
	assert.Equal(t, UserFields, f.lastReq.URL.Query()["fields"])
	assert.Equal(t, "Bearer token-1", f.lastAuth)
	assert.NotEmpty(t, f.lastReq.Header.Get("X-Request-Id"))
	assert.Equal(t, "application/json", f.lastReq.Header.Get("Accept"))
}

func TestCreateMeeting_Defaults(t *testing.T) {
	f, srv := newFakeAPI(t)
	now := time.Date(2024, 3, 1, 9, 30, 0, 600_000_000, time.UTC)
	c := newTestClient(srv, WithClock(func() time.Time { return now }))

	meeting, err := c.CreateMeeting(context.Background(), "42", nil)
	require.NoError(t, err)

	assert.Equal(t, ID("9001"), meeting.ID)
	assert.Equal(t, ID("1234567890"), meeting.NumericMeetingID)
	assert.Equal(t, "/v1/user/42/scheduled_meeting", f.lastReq.URL.Path)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.lastBody, &sent))
	assert.Equal(t, DefaultMeetingTitle, sent["title"])
	assert.Equal(t, "", sent["description"])
	assert.Equal(t, DefaultTimezone, sent["timezone"])
	assert.Equal(t, "WEB_APP", sent["endPointType"])
	assert.Equal(t, "2.10", sent["endPointVersion"])
	assert.Equal(t, float64(now.Round(time.Second).UnixMilli()), sent["start"])
	assert.Equal(t, 30*time.Minute, meeting.Duration())
}

func TestMeetingCRUD(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(srv)
	ctx := context.Background()

	settings := DefaultMeetingSettings(time.Now(), "UTC")
	settings.AdvancedMeetingOptions = &AdvancedMeetingOptions{ModeratorLess: true}
	created, err := c.CreateMeeting(ctx, "42", &settings)
	require.NoError(t, err)

	got, err := c.ReadMeeting(ctx, "42", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "UTC", got.Timezone)
	require.NotNil(t, got.AdvancedMeetingOptions)
	assert.True(t, got.AdvancedMeetingOptions.ModeratorLess)

	got.Title = "Rescheduled"
	updated, err := c.UpdateMeeting(ctx, "42", created.ID, got)
	require.NoError(t, err)
	assert.Equal(t, "Rescheduled", updated.Title)

	require.NoError(t, c.DeleteMeeting(ctx, "42", created.ID))

	_, err = c.ReadMeeting(ctx, "42", created.ID)
	assert.True(t, IsNotFound(err))
}

func TestUpdateMeeting_NilMeeting(t *testing.T) {
	_, srv := newFakeAPI(t)
	c := newTestClient(srv)

	_, err := c.UpdateMeeting(context.Background(), "42", "9001", nil)
	assert.Error(t, err)
}

type recordingMetrics struct {
	mu       sync.Mutex
	requests []string
	refresh  []string
}

func (r *recordingMetrics) RecordProviderRequest(_ context.Context, _, operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, operation+":"+status)
}

func (r *recordingMetrics) RecordTokenRefresh(_ context.Context, _, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refresh = append(r.refresh, result)
}

func TestClient_RecordsMetrics(t *testing.T) {
	f, srv := newFakeAPI(t)
	f.usersHandler = func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{})
	}
	m := &recordingMetrics{}
	c := newTestClient(srv, WithMetrics(m))

	_, err := c.GetUser(context.Background(), "jdoe@example.edu")
	require.Error(t, err)

	assert.Equal(t, []string{"get_user:error"}, m.requests)
	assert.Equal(t, []string{"success"}, m.refresh)
}
