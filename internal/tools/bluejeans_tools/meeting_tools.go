package bluejeans_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/server"
	"github.com/teemow/ohq-bluejeans/internal/store"
	"github.com/teemow/ohq-bluejeans/internal/tools/batch"
	"github.com/teemow/ohq-bluejeans/internal/tools/common"
)

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	// Update meeting
	updateOpts := append(withMeetingRef(),
		mcp.WithString("title",
			mcp.Description("New meeting title"),
		),
		mcp.WithString("description",
			mcp.Description("New meeting description"),
		),
		mcp.WithString("start",
			mcp.Description("New start time in RFC3339 format (e.g. '2024-03-01T09:30:00-05:00'). The duration is kept unless duration_minutes is given."),
		),
		mcp.WithNumber("duration_minutes",
			mcp.Description("New meeting length in minutes"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA timezone of the meeting (e.g. 'America/Detroit')"),
		),
		mcp.WithBoolean("moderator_less",
			mcp.Description("Allow any participant to start the meeting"),
		),
	)
	updateTool := mcp.NewTool(ToolUpdateMeeting,
		append([]mcp.ToolOption{mcp.WithDescription("Update a scheduled BlueJeans meeting. Only the given fields change.")}, updateOpts...)...,
	)
	s.AddTool(updateTool, common.InstrumentedToolHandler(ToolUpdateMeeting, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateMeeting(ctx, request, sc)
		}))

	// Delete meeting
	deleteTool := mcp.NewTool(ToolDeleteMeeting,
		append([]mcp.ToolOption{mcp.WithDescription("Delete a scheduled BlueJeans meeting. The host record is not touched; use bluejeans_release_meeting to drop both.")}, withMeetingRef()...)...,
	)
	s.AddTool(deleteTool, common.InstrumentedToolHandler(ToolDeleteMeeting, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteMeeting(ctx, request, sc)
		}))

	// Release meeting
	releaseTool := mcp.NewTool(ToolReleaseMeeting,
		mcp.WithDescription("Delete the BlueJeans meeting of one or more host records and remove the records"),
		mcp.WithString("record_keys",
			mcp.Required(),
			mcp.Description("Record key (string) or array of record keys to release"),
		),
	)
	s.AddTool(releaseTool, common.InstrumentedToolHandler(ToolReleaseMeeting, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReleaseMeeting(ctx, request, sc)
		}))
}

func handleUpdateMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	userID, meetingID, err := resolveMeeting(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client := sc.Client()
	meeting, err := client.ReadMeeting(ctx, userID, meetingID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get meeting: %v", err)), nil
	}

	if err := applyMeetingChanges(meeting, args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	updated, err := client.UpdateMeeting(ctx, userID, meetingID, meeting)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update meeting: %v", err)), nil
	}

	return common.JSONResult(newMeetingView(sc, userID, updated))
}

// applyMeetingChanges copies the optional update arguments onto m.
func applyMeetingChanges(m *bluejeans.Meeting, args map[string]interface{}) error {
	update, err := meetingUpdateFromArgs(args)
	if err != nil {
		return err
	}
	return update.Apply(m)
}

func meetingUpdateFromArgs(args map[string]interface{}) (bluejeans.MeetingUpdate, error) {
	var u bluejeans.MeetingUpdate

	if title, ok := args["title"].(string); ok && title != "" {
		u.Title = &title
	}
	if description, ok := args["description"].(string); ok {
		u.Description = &description
	}
	if tz, ok := args["timezone"].(string); ok && tz != "" {
		u.Timezone = &tz
	}
	if moderatorLess, ok := args["moderator_less"].(bool); ok {
		u.ModeratorLess = &moderatorLess
	}
	if _, ok := args["duration_minutes"]; ok {
		length := time.Duration(common.GetIntArg(args, "duration_minutes", 0)) * time.Minute
		u.Length = &length
	}
	if startArg, ok := args["start"].(string); ok && startArg != "" {
		start, err := time.Parse(time.RFC3339, startArg)
		if err != nil {
			return u, fmt.Errorf("invalid start time %q: use RFC3339", startArg)
		}
		u.Start = &start
	}
	return u, nil
}

func handleDeleteMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	userID, meetingID, err := resolveMeeting(ctx, request.GetArguments(), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sc.Client().DeleteMeeting(ctx, userID, meetingID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to delete meeting: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Meeting %s deleted", meetingID)), nil
}

func handleReleaseMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	keys, err := batch.ParseStringOrArray(args["record_keys"], "record_keys")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ctx, keys, func(ctx context.Context, key string) (any, error) {
		md, err := sc.Provisioner().Release(ctx, key)
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("record %s not found", key)
		}
		if err != nil {
			return nil, err
		}
		return md, nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
