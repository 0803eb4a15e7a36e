package platform

import (
	"context"
	"errors"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/slack-go/slack"
)

type fakeConversationAPI struct {
	historyFn func(params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error)
	repliesFn func(params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error)
}

func (f *fakeConversationAPI) GetConversationHistoryContext(_ context.Context, params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
	return f.historyFn(params)
}

func (f *fakeConversationAPI) GetConversationRepliesContext(_ context.Context, params *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
	if f.repliesFn != nil {
		return f.repliesFn(params)
	}
	return nil, false, "", nil
}

func conversation(id string, im, mpim bool) slack.Channel {
	var ch slack.Channel
	ch.ID = id
	ch.IsIM = im
	ch.IsMpIM = mpim
	return ch
}

func historyMsg(user, ts string) slack.Message {
	return slack.Message{Msg: slack.Msg{User: user, Timestamp: ts, Text: "hi"}}
}

var _ = Describe("Slack channel fetch", func() {
	var (
		ctx    context.Context
		client *slackClient
		window Window
		data   *SlackData
	)

	BeforeEach(func() {
		ctx = context.Background()
		client = &slackClient{}
		window = Window{
			Start: time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC),
		}
		data = &SlackData{AuthUserID: "U1"}
	})

	It("should merge a fully fetched channel into the shared data", func() {
		api := &fakeConversationAPI{
			historyFn: func(_ *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
				return &slack.GetConversationHistoryResponse{
					Messages: []slack.Message{
						historyMsg("U1", "1755600000.000100"),
						historyMsg("U2", "1755600060.000100"),
					},
				}, nil
			},
		}

		err := client.fetchChannel(ctx, api, conversation("C1", false, false), window, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(data.Messages).To(HaveLen(1))
		Expect(data.Messages[0].IsSelf).To(BeTrue())
	})

	It("should discard already fetched pages when a later page fails", func() {
		calls := 0
		api := &fakeConversationAPI{
			historyFn: func(params *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
				calls++
				if params.Cursor != "" {
					return nil, errors.New("ratelimited")
				}
				resp := &slack.GetConversationHistoryResponse{
					HasMore: true,
					Messages: []slack.Message{
						historyMsg("U1", "1755600000.000100"),
						historyMsg("U1", "1755600060.000100"),
					},
				}
				resp.ResponseMetaData.NextCursor = "page-2"
				return resp, nil
			},
		}

		err := client.fetchChannel(ctx, api, conversation("C1", false, false), window, data)
		Expect(err).To(HaveOccurred())
		Expect(calls).To(Equal(2))
		Expect(data.Messages).To(BeEmpty())
		Expect(data.Threads).To(BeEmpty())
	})

	It("should discard a channel whose thread fetch fails", func() {
		parent := historyMsg("U1", "1755600000.000100")
		parent.ReplyCount = 3
		parent.ThreadTimestamp = parent.Timestamp

		api := &fakeConversationAPI{
			historyFn: func(_ *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
				return &slack.GetConversationHistoryResponse{
					Messages: []slack.Message{historyMsg("U1", "1755599940.000100"), parent},
				}, nil
			},
			repliesFn: func(_ *slack.GetConversationRepliesParameters) ([]slack.Message, bool, string, error) {
				return nil, false, "", fmt.Errorf("thread_not_found")
			},
		}

		err := client.fetchChannel(ctx, api, conversation("C1", false, false), window, data)
		Expect(err).To(HaveOccurred())
		Expect(data.Messages).To(BeEmpty())
		Expect(data.Threads).To(BeEmpty())
	})

	It("should route group DMs to the direct bucket like one-on-one IMs", func() {
		api := &fakeConversationAPI{
			historyFn: func(_ *slack.GetConversationHistoryParameters) (*slack.GetConversationHistoryResponse, error) {
				return &slack.GetConversationHistoryResponse{
					Messages: []slack.Message{
						historyMsg("U1", "1755600000.000100"),
						historyMsg("U2", "1755600060.000100"),
					},
				}, nil
			},
		}

		err := client.fetchChannel(ctx, api, conversation("G1", false, true), window, data)
		Expect(err).NotTo(HaveOccurred())
		Expect(data.DMs).To(HaveLen(2))
		Expect(data.Messages).To(BeEmpty())
	})
})
