package activity

import (
	"sort"

	"workdiary.app/server/internal/platform"
)

const topLanguages = 10

// GitHub aggregates public activity events into GitHubStats. Commits are
// summed from push-event commit lists, not counted one per push.
func (a *Aggregator) GitHub(data *platform.GitHubData) *GitHubStats {
	stats := &GitHubStats{
		Status:       StatusOK,
		EventsByDay:  make(map[string]map[string]int),
		Repositories: []string{},
		Errors:       data.RepoErrors,
	}

	repos := make(map[string]struct{})
	for _, ev := range data.Events {
		stats.TotalEvents++

		local := ev.CreatedAt.In(a.loc)
		day := dateKey(local)
		if stats.EventsByDay[day] == nil {
			stats.EventsByDay[day] = make(map[string]int)
		}
		stats.EventsByDay[day][ev.Type]++

		switch ev.Type {
		case "PushEvent":
			stats.Commits += ev.CommitCount
		case "PullRequestEvent":
			stats.PullRequests++
		case "PullRequestReviewEvent":
			stats.Reviews++
		case "IssuesEvent":
			stats.Issues++
		case "IssueCommentEvent", "CommitCommentEvent", "PullRequestReviewCommentEvent":
			stats.Comments++
		}

		if ev.Repo != "" {
			repos[ev.Repo] = struct{}{}
		}
	}

	for repo := range repos {
		stats.Repositories = append(stats.Repositories, repo)
	}
	sort.Strings(stats.Repositories)

	stats.Languages = languageDistribution(data.RepoLanguages)

	return stats
}

// languageDistribution sums bytes per language across all touched repos and
// normalizes to descending percentages, keeping the top 10.
func languageDistribution(repoLanguages map[string]map[string]int) []LanguagePercent {
	totals := make(map[string]int)
	grandTotal := 0
	for _, langs := range repoLanguages {
		for lang, bytes := range langs {
			totals[lang] += bytes
			grandTotal += bytes
		}
	}

	if grandTotal == 0 {
		return []LanguagePercent{}
	}

	dist := make([]LanguagePercent, 0, len(totals))
	for lang, bytes := range totals {
		dist = append(dist, LanguagePercent{
			Name:    lang,
			Percent: float64(bytes) / float64(grandTotal) * 100,
		})
	}

	sort.Slice(dist, func(i, j int) bool {
		if dist[i].Percent != dist[j].Percent {
			return dist[i].Percent > dist[j].Percent
		}
		return dist[i].Name < dist[j].Name
	})

	if len(dist) > topLanguages {
		dist = dist[:topLanguages]
	}
	return dist
}
