package resources

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/store"
)

func newTestServerContext(t *testing.T, records store.Store) *server.ServerContext {
	t.Helper()
	client := bluejeans.NewClient("id", "secret", bluejeans.WithBaseURL("http://127.0.0.1:0"))
	b := backend.New(backend.Config{Enabled: true, DocsURL: "https://docs.example"}, client)
	sc, err := server.NewServerContext(context.Background(), server.Config{
		Client:      client,
		Backend:     b,
		Provisioner: store.NewProvisioner(b, client, records, store.NewMemoryLocker(), nil),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, mimeJSON, tc.MIMEType)
	return tc.Text
}

func TestRegisterBackendResources(t *testing.T) {
	sc := newTestServerContext(t, store.NewMemoryStore())
	assert.Error(t, RegisterBackendResources(nil, sc))

	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))
	assert.NoError(t, RegisterBackendResources(s, sc))
}

func TestHandleBackend(t *testing.T) {
	sc := newTestServerContext(t, store.NewMemoryStore())

	contents, err := handleBackend(context.Background(), readRequest(BackendURI), sc)
	require.NoError(t, err)

	var data backend.PublicData
	require.NoError(t, json.Unmarshal([]byte(text(t, contents)), &data))
	assert.Equal(t, backend.Name, data.Name)
	assert.True(t, data.Enabled)
	assert.Equal(t, "https://docs.example", data.DocsURL)
}

func TestHandleRecord(t *testing.T) {
	records := store.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, records.Put(ctx, "queue-1", backend.Metadata{
		UserID:           "42",
		MeetingID:        "9001",
		NumericMeetingID: "1234567890",
		MeetingURL:       "https://bluejeans.com/1234567890",
		HostMeetingURL:   "https://bluejeans.com/1234567890",
	}))
	sc := newTestServerContext(t, records)

	contents, err := handleRecord(ctx, readRequest(RecordURIPrefix+"queue-1"), sc)
	require.NoError(t, err)

	var md backend.Metadata
	require.NoError(t, json.Unmarshal([]byte(text(t, contents)), &md))
	assert.Equal(t, bluejeans.ID("9001"), md.MeetingID)
	assert.Equal(t, "https://bluejeans.com/1234567890", md.MeetingURL)

	_, err = handleRecord(ctx, readRequest(RecordURIPrefix+"queue-2"), sc)
	assert.ErrorContains(t, err, "not found")

	_, err = handleRecord(ctx, readRequest("other://queue-1"), sc)
	assert.ErrorContains(t, err, "invalid record URI")
}
