package bluejeans_tools

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ohq-bluejeans/internal/backend"
	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/tools/batch"
	"github.com/teemow/ohq-bluejeans/internal/tools/common"
)

// Tool names
const (
	ToolBackendInfo      = "bluejeans_backend_info"
	ToolGetUser          = "bluejeans_get_user"
	ToolProvisionMeeting = "bluejeans_provision_meeting"
	ToolGetMeeting       = "bluejeans_get_meeting"
	ToolUpdateMeeting    = "bluejeans_update_meeting"
	ToolDeleteMeeting    = "bluejeans_delete_meeting"
	ToolReleaseMeeting   = "bluejeans_release_meeting"
)

// RegisterBlueJeansTools registers all BlueJeans tools with the MCP server.
// Tools that change or delete vendor meetings are only registered when
// readOnly is false.
func RegisterBlueJeansTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	if s == nil || sc == nil {
		return fmt.Errorf("mcp server and server context are required")
	}

	// Backend info (read-only, always available)
	backendInfoTool := mcp.NewTool(ToolBackendInfo,
		mcp.WithDescription("Describe the BlueJeans meeting backend: whether it is enabled, documentation and dial-in numbers"),
	)
	s.AddTool(backendInfoTool, common.InstrumentedToolHandler(ToolBackendInfo, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleBackendInfo(ctx, request, sc)
		}))

	// Get user (read-only, always available)
	getUserTool := mcp.NewTool(ToolGetUser,
		mcp.WithDescription("Look up the BlueJeans enterprise account of one or more email addresses"),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address (string) or array of email addresses"),
		),
	)
	s.AddTool(getUserTool, common.InstrumentedToolHandler(ToolGetUser, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetUser(ctx, request, sc)
		}))

	// Provision meeting (idempotent, always available)
	provisionTool := mcp.NewTool(ToolProvisionMeeting,
		mcp.WithDescription("Make sure a queue record has a BlueJeans meeting owned by the assignee. Returns the stored metadata; an existing meeting is returned unchanged."),
		mcp.WithString("record_key",
			mcp.Required(),
			mcp.Description("Key of the host record the meeting belongs to (e.g. 'queue-42')"),
		),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("Email address of the assignee who owns the meeting"),
		),
	)
	s.AddTool(provisionTool, common.InstrumentedToolHandler(ToolProvisionMeeting, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleProvisionMeeting(ctx, request, sc)
		}))

	// Get meeting (read-only, always available)
	getMeetingTool := mcp.NewTool(ToolGetMeeting,
		append([]mcp.ToolOption{mcp.WithDescription("Get a scheduled BlueJeans meeting, either by record key or by user and meeting id")}, withMeetingRef()...)...,
	)
	s.AddTool(getMeetingTool, common.InstrumentedToolHandler(ToolGetMeeting, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMeeting(ctx, request, sc)
		}))

	if !readOnly {
		registerWriteTools(s, sc)
	}

	return nil
}

func withMeetingRef() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("record_key",
			mcp.Description("Key of a provisioned host record. Takes precedence over user_id and meeting_id."),
		),
		mcp.WithString("user_id",
			mcp.Description("BlueJeans user id owning the meeting"),
		),
		mcp.WithString("meeting_id",
			mcp.Description("BlueJeans scheduled meeting id"),
		),
	}
}

func handleBackendInfo(_ context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	return common.JSONResult(sc.Backend().PublicData())
}

func handleGetUser(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	emails, err := batch.ParseStringOrArray(args["email"], "email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client := sc.Client()

	if len(emails) == 1 {
		user, err := client.GetUser(ctx, emails[0])
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to look up user: %v", err)), nil
		}
		if user == nil {
			return mcp.NewToolResultText(fmt.Sprintf("No BlueJeans account found for %s", emails[0])), nil
		}
		return common.JSONResult(user)
	}

	results := batch.ProcessBatch(ctx, emails, func(ctx context.Context, email string) (any, error) {
		user, err := client.GetUser(ctx, email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			return nil, fmt.Errorf("no BlueJeans account")
		}
		return user, nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleProvisionMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	key, err := common.RequireStringArg(args, "record_key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	email, err := common.RequireStringArg(args, "email")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	md, err := sc.Provisioner().Provision(ctx, key, backend.User{Email: email})
	if err != nil {
		var vErr *backend.ValidationError
		if errors.As(err, &vErr) {
			return mcp.NewToolResultError(vErr.Message), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("Failed to provision meeting: %v", err)), nil
	}

	return common.JSONResult(md)
}

// meetingView is the tool representation of a scheduled meeting.
type meetingView struct {
	*bluejeans.Meeting
	UserID    bluejeans.ID `json:"userId"`
	URL       string       `json:"url,omitempty"`
	StartTime string       `json:"startTime"`
	EndTime   string       `json:"endTime"`
}

func newMeetingView(sc *server.ServerContext, userID bluejeans.ID, m *bluejeans.Meeting) meetingView {
	v := meetingView{
		Meeting:   m,
		UserID:    userID,
		StartTime: m.StartTime().UTC().Format(time.RFC3339),
		EndTime:   m.EndTime().UTC().Format(time.RFC3339),
	}
	if m.NumericMeetingID != "" {
		v.URL = sc.Backend().MeetingURL(m.NumericMeetingID)
	}
	return v
}

// resolveMeeting reads the meeting reference from record_key or from
// user_id and meeting_id.
func resolveMeeting(ctx context.Context, args map[string]interface{}, sc *server.ServerContext) (bluejeans.ID, bluejeans.ID, error) {
	if key := common.GetStringArg(args, "record_key"); key != "" {
		md, ok, err := sc.Provisioner().Get(ctx, key)
		if err != nil {
			return "", "", fmt.Errorf("failed to load record %s: %w", key, err)
		}
		if !ok || !md.Provisioned() {
			return "", "", fmt.Errorf("record %s has no meeting", key)
		}
		return md.UserID, md.MeetingID, nil
	}

	userID, err := common.RequireStringArg(args, "user_id")
	if err != nil {
		return "", "", fmt.Errorf("record_key or user_id and meeting_id are required")
	}
	meetingID, err := common.RequireStringArg(args, "meeting_id")
	if err != nil {
		return "", "", fmt.Errorf("record_key or user_id and meeting_id are required")
	}
	return bluejeans.ID(userID), bluejeans.ID(meetingID), nil
}

func handleGetMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	userID, meetingID, err := resolveMeeting(ctx, request.GetArguments(), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	meeting, err := sc.Client().ReadMeeting(ctx, userID, meetingID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get meeting: %v", err)), nil
	}

	return common.JSONResult(newMeetingView(sc, userID, meeting))
}
