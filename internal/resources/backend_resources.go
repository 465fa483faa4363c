package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ohq-bluejeans/internal/server"
)

// Resource URIs
const (
	BackendURI        = "bluejeans://backend"
	RecordURIPrefix   = "bluejeans://records/"
	RecordURITemplate = RecordURIPrefix + "{key}"
)

const mimeJSON = "application/json"

// RegisterBackendResources registers the backend descriptor and the host
// record resources.
func RegisterBackendResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	backendResource := mcp.NewResource(
		BackendURI,
		"BlueJeans Backend",
		mcp.WithResourceDescription("Capability descriptor of the BlueJeans meeting backend"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(backendResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleBackend(ctx, request, sc)
	})

	recordTemplate := mcp.NewResourceTemplate(
		RecordURITemplate,
		"Host Record",
		mcp.WithTemplateDescription("Stored BlueJeans meeting metadata of a host record"),
		mcp.WithTemplateMIMEType(mimeJSON),
	)
	s.AddResourceTemplate(recordTemplate, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleRecord(ctx, request, sc)
	})

	return nil
}

func handleBackend(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.Backend().PublicData())
}

func handleRecord(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	key := strings.TrimPrefix(request.Params.URI, RecordURIPrefix)
	if key == "" || key == request.Params.URI {
		return nil, fmt.Errorf("invalid record URI: %s", request.Params.URI)
	}

	md, ok, err := sc.Provisioner().Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("record %s not found", key)
	}
	return jsonContents(request.Params.URI, md)
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		},
	}, nil
}
