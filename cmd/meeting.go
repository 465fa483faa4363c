package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/server"
)

// meetingFlags are the editable meeting fields shared by create and update.
type meetingFlags struct {
	title         string
	description   string
	start         string
	length        time.Duration
	timezone      string
	moderatorLess bool
}

func (f *meetingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.title, "title", "", "Meeting title")
	cmd.Flags().StringVar(&f.description, "description", "", "Meeting description")
	cmd.Flags().StringVar(&f.start, "start", "", "Start time in RFC3339 format (e.g. 2024-03-01T09:30:00-05:00)")
	cmd.Flags().DurationVar(&f.length, "duration", bluejeans.DefaultMeetingLength, "Meeting length")
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "IANA timezone of the meeting")
	cmd.Flags().BoolVar(&f.moderatorLess, "moderator-less", false, "Allow any participant to start the meeting")
}

// update returns the fields whose flags were set on cmd.
func (f *meetingFlags) update(cmd *cobra.Command) (bluejeans.MeetingUpdate, error) {
	var u bluejeans.MeetingUpdate
	flags := cmd.Flags()

	if flags.Changed("title") {
		u.Title = &f.title
	}
	if flags.Changed("description") {
		u.Description = &f.description
	}
	if flags.Changed("duration") {
		u.Length = &f.length
	}
	if flags.Changed("timezone") {
		u.Timezone = &f.timezone
	}
	if flags.Changed("moderator-less") {
		u.ModeratorLess = &f.moderatorLess
	}
	if flags.Changed("start") {
		start, err := time.Parse(time.RFC3339, f.start)
		if err != nil {
			return u, fmt.Errorf("invalid --start %q: use RFC3339", f.start)
		}
		u.Start = &start
	}
	return u, nil
}

func newMeetingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meeting",
		Short: "Manage scheduled BlueJeans meetings",
	}
	cmd.AddCommand(newMeetingCreateCmd())
	cmd.AddCommand(newMeetingGetCmd())
	cmd.AddCommand(newMeetingUpdateCmd())
	cmd.AddCommand(newMeetingDeleteCmd())
	return cmd
}

func newMeetingCreateCmd() *cobra.Command {
	var (
		flags  meetingFlags
		email  string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a scheduled meeting",
		Long: `Create a scheduled meeting owned by a BlueJeans user. Without flags the
meeting is a 30 minute "Remote Office Hours" meeting starting now.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (email == "") == (userID == "") {
				return fmt.Errorf("exactly one of --email or --user-id is required")
			}
			update, err := flags.update(cmd)
			if err != nil {
				return err
			}

			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				client := sc.Client()
				owner := bluejeans.ID(userID)
				if email != "" {
					user, err := client.GetUser(ctx, email)
					if err != nil {
						return fmt.Errorf("failed to look up %s: %w", email, err)
					}
					if user == nil {
						return fmt.Errorf("no BlueJeans account found for %s", email)
					}
					owner = user.ID
				}

				settings := bluejeans.DefaultMeetingSettings(time.Now(), client.Timezone())
				if err := applySettingsUpdate(&settings, update); err != nil {
					return err
				}

				meeting, err := client.CreateMeeting(ctx, owner, &settings)
				if err != nil {
					return err
				}
				return printJSON(cmd, meeting)
			})
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&email, "email", "", "Email address of the meeting owner")
	cmd.Flags().StringVar(&userID, "user-id", "", "BlueJeans user id of the meeting owner")
	return cmd
}

// applySettingsUpdate applies u to create settings through the meeting form
// so that create and update validate the same way.
func applySettingsUpdate(s *bluejeans.MeetingSettings, u bluejeans.MeetingUpdate) error {
	m := &bluejeans.Meeting{
		Title:                  s.Title,
		Description:            s.Description,
		Start:                  s.Start,
		End:                    s.End,
		Timezone:               s.Timezone,
		AdvancedMeetingOptions: s.AdvancedMeetingOptions,
	}
	if err := u.Apply(m); err != nil {
		return err
	}
	s.Title = m.Title
	s.Description = m.Description
	s.Start = m.Start
	s.End = m.End
	s.Timezone = m.Timezone
	s.AdvancedMeetingOptions = m.AdvancedMeetingOptions
	return nil
}

func newMeetingGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get USER_ID MEETING_ID",
		Short: "Get a scheduled meeting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				meeting, err := sc.Client().ReadMeeting(ctx, bluejeans.ID(args[0]), bluejeans.ID(args[1]))
				if err != nil {
					return err
				}
				return printJSON(cmd, meeting)
			})
		},
	}
}

func newMeetingUpdateCmd() *cobra.Command {
	var flags meetingFlags

	cmd := &cobra.Command{
		Use:   "update USER_ID MEETING_ID",
		Short: "Update a scheduled meeting",
		Long:  `Update a scheduled meeting. Only the fields whose flags are given change.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			update, err := flags.update(cmd)
			if err != nil {
				return err
			}
			if update.IsEmpty() {
				return fmt.Errorf("nothing to update")
			}

			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				userID, meetingID := bluejeans.ID(args[0]), bluejeans.ID(args[1])
				client := sc.Client()

				meeting, err := client.ReadMeeting(ctx, userID, meetingID)
				if err != nil {
					return err
				}
				if err := update.Apply(meeting); err != nil {
					return err
				}
				updated, err := client.UpdateMeeting(ctx, userID, meetingID, meeting)
				if err != nil {
					return err
				}
				return printJSON(cmd, updated)
			})
		},
	}

	flags.register(cmd)
	return cmd
}

func newMeetingDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete USER_ID MEETING_ID",
		Short: "Delete a scheduled meeting",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithServerContext(cmd, func(ctx context.Context, sc *server.ServerContext) error {
				if err := sc.Client().DeleteMeeting(ctx, bluejeans.ID(args[0]), bluejeans.ID(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Meeting %s deleted\n", args[1])
				return nil
			})
		},
	}
}
