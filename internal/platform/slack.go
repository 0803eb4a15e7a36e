package platform

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

const (
	slackPageSize     = 200
	slackChannelTypes = "public_channel,private_channel,mpim,im"
)

type slackClient struct{}

// conversationAPI is the slice of the Slack Web API the history fetch
// needs. Satisfied by *slack.Client.
type conversationAPI interface {
	GetConversationHistoryContext(ctx context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	GetConversationRepliesContext(ctx context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
}

var _ conversationAPI = (*slack.Client)(nil)

// NewSlackClient creates a SlackClient backed by the Slack Web API. Each
// call builds a per-token API client; tokens belong to users, not to us.
func NewSlackClient() SlackClient {
	return &slackClient{}
}

func (c *slackClient) FetchActivity(ctx context.Context, token string, window Window) (*SlackData, error) {
	api := slack.New(token)

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, c.mapErr(fmt.Errorf("slack auth test: %w", err))
	}

	data := &SlackData{AuthUserID: auth.UserID}

	channels, err := c.listConversations(ctx, api)
	if err != nil {
		return nil, c.mapErr(fmt.Errorf("listing conversations: %w", err))
	}

	for _, ch := range channels {
		if err := c.fetchChannel(ctx, api, ch, window, data); err != nil {
			if err := mapContextErr(err); err == ErrUnavailable {
				return nil, ErrUnavailable
			}
			slog.WarnContext(ctx, "skipping channel", "channel_id", ch.ID, "error", err)
			data.ChannelErrors = append(data.ChannelErrors, fmt.Sprintf("%s: %v", ch.ID, err))
		}
	}

	slog.InfoContext(ctx, "slack fetch complete",
		"channels", len(channels),
		"messages", len(data.Messages),
		"dms", len(data.DMs),
		"threads", len(data.Threads),
		"channel_errors", len(data.ChannelErrors))

	return data, nil
}

func (c *slackClient) listConversations(ctx context.Context, api *slack.Client) ([]slack.Channel, error) {
	var all []slack.Channel
	cursor := ""
	for {
		channels, next, err := api.GetConversationsForUserContext(ctx, &slack.GetConversationsForUserParameters{
			Types:  strings.Split(slackChannelTypes, ","),
			Limit:  slackPageSize,
			Cursor: cursor,
		})
		if err != nil {
			return nil, err
		}
		all = append(all, channels...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// fetchChannel pulls one conversation's history into data. The channel's
// records are buffered locally and merged only once every page succeeded;
// a channel that errors mid-fetch contributes nothing.
func (c *slackClient) fetchChannel(ctx context.Context, api conversationAPI, ch slack.Channel, window Window, data *SlackData) error {
	// Multi-person IMs count as direct messages, same as one-on-one IMs.
	direct := ch.IsIM || ch.IsMpIM

	var messages, dms []SlackMessage
	var threads []SlackThread

	cursor := ""
	for {
		resp, err := api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
			ChannelID: ch.ID,
			Oldest:    slackTS(window.Start),
			Latest:    slackTS(window.End),
			Limit:     slackPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return fmt.Errorf("conversation history: %w", err)
		}

		for _, msg := range resp.Messages {
			rec, ok := toSlackMessage(msg, ch.ID, data.AuthUserID)
			if !ok {
				continue
			}

			if direct {
				dms = append(dms, rec)
			} else if rec.IsSelf {
				messages = append(messages, rec)
			}

			// Thread parents get their replies pulled so discussion depth
			// can be measured.
			if !direct && msg.ReplyCount > 0 && msg.ThreadTimestamp == msg.Timestamp {
				thread, err := c.fetchThread(ctx, api, ch.ID, msg.ThreadTimestamp, data.AuthUserID)
				if err != nil {
					return fmt.Errorf("thread %s: %w", msg.ThreadTimestamp, err)
				}
				threads = append(threads, thread)
			}
		}

		if !resp.HasMore || resp.ResponseMetaData.NextCursor == "" {
			break
		}
		cursor = resp.ResponseMetaData.NextCursor
	}

	data.Messages = append(data.Messages, messages...)
	data.DMs = append(data.DMs, dms...)
	data.Threads = append(data.Threads, threads...)
	return nil
}

func (c *slackClient) fetchThread(ctx context.Context, api conversationAPI, channelID, threadTS, authUserID string) (SlackThread, error) {
	thread := SlackThread{ChannelID: channelID}
	cursor := ""
	for {
		msgs, hasMore, next, err := api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: channelID,
			Timestamp: threadTS,
			Limit:     slackPageSize,
			Cursor:    cursor,
		})
		if err != nil {
			return thread, err
		}
		for _, msg := range msgs {
			if rec, ok := toSlackMessage(msg, channelID, authUserID); ok {
				thread.Messages = append(thread.Messages, rec)
			}
		}
		if !hasMore || next == "" {
			return thread, nil
		}
		cursor = next
	}
}

func (c *slackClient) Profile(ctx context.Context, token string) (*SlackProfile, error) {
	api := slack.New(token)

	auth, err := api.AuthTestContext(ctx)
	if err != nil {
		return nil, c.mapErr(fmt.Errorf("slack auth test: %w", err))
	}

	user, err := api.GetUserInfoContext(ctx, auth.UserID)
	if err != nil {
		return nil, c.mapErr(fmt.Errorf("slack user info: %w", err))
	}

	return &SlackProfile{
		UserID:      user.ID,
		DisplayName: user.Profile.DisplayName,
		RealName:    user.RealName,
		Timezone:    user.TZ,
	}, nil
}

func (c *slackClient) SendDM(ctx context.Context, token, slackUserID, text string) error {
	api := slack.New(token)

	channel, _, _, err := api.OpenConversationContext(ctx, &slack.OpenConversationParameters{
		Users: []string{slackUserID},
	})
	if err != nil {
		return c.mapErr(fmt.Errorf("opening dm: %w", err))
	}

	_, _, err = api.PostMessageContext(ctx, channel.ID, slack.MsgOptionText(text, false))
	if err != nil {
		return c.mapErr(fmt.Errorf("posting message: %w", err))
	}
	return nil
}

func (c *slackClient) mapErr(err error) error {
	msg := err.Error()
	if strings.Contains(msg, "invalid_auth") || strings.Contains(msg, "token_revoked") ||
		strings.Contains(msg, "account_inactive") {
		return ErrCredentialInvalid
	}
	return mapContextErr(err)
}

// toSlackMessage converts an API message, dropping bot and system messages.
func toSlackMessage(msg slack.Message, channelID, authUserID string) (SlackMessage, bool) {
	if msg.BotID != "" || msg.SubType != "" || msg.User == "" {
		return SlackMessage{}, false
	}
	ts, err := parseSlackTS(msg.Timestamp)
	if err != nil {
		return SlackMessage{}, false
	}
	return SlackMessage{
		Timestamp:       ts,
		ChannelID:       channelID,
		UserID:          msg.User,
		Text:            msg.Text,
		ThreadTimestamp: msg.ThreadTimestamp,
		ReplyCount:      msg.ReplyCount,
		IsSelf:          msg.User == authUserID,
	}, true
}

func slackTS(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

func parseSlackTS(ts string) (time.Time, error) {
	f, err := strconv.ParseFloat(ts, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing slack timestamp %q: %w", ts, err)
	}
	sec := int64(f)
	nsec := int64((f - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC(), nil
}
