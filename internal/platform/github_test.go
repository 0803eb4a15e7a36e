package platform

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("GitHub language repos", func() {
	event := func(repo string, public bool) GitHubEvent {
		return GitHubEvent{
			CreatedAt: time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC),
			Type:      "PushEvent",
			Repo:      repo,
			Public:    public,
		}
	}

	It("should never include private-repo events", func() {
		repos := languageRepos([]GitHubEvent{
			event("acme/site", true),
			event("acme/secret", false),
			event("acme/site", true),
		})

		Expect(repos).To(HaveKey("acme/site"))
		Expect(repos).NotTo(HaveKey("acme/secret"))
		Expect(repos).To(HaveLen(1))
	})

	It("should skip events without a repo", func() {
		repos := languageRepos([]GitHubEvent{event("", true)})
		Expect(repos).To(BeEmpty())
	})
})
