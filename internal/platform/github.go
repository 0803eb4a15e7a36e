package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/go-github/v68/github"
)

const githubPageSize = 100

type githubClient struct{}

// NewGitHubClient creates a GitHubClient backed by the GitHub REST API.
func NewGitHubClient() GitHubClient {
	return &githubClient{}
}

func (c *githubClient) FetchActivity(ctx context.Context, token string, window Window) (*GitHubData, error) {
	api := github.NewClient(nil).WithAuthToken(token)

	user, _, err := api.Users.Get(ctx, "")
	if err != nil {
		return nil, c.mapErr(fmt.Errorf("github user: %w", err))
	}
	login := user.GetLogin()

	data := &GitHubData{
		Login:         login,
		RepoLanguages: make(map[string]map[string]int),
	}

	opts := &github.ListOptions{PerPage: githubPageSize}
	for {
		events, resp, err := api.Activity.ListEventsPerformedByUser(ctx, login, false, opts)
		if err != nil {
			return nil, c.mapErr(fmt.Errorf("listing events: %w", err))
		}

		done := false
		for _, ev := range events {
			created := ev.GetCreatedAt().Time
			if created.Before(window.Start) {
				// Events arrive newest first; everything past this point is
				// outside the window.
				done = true
				break
			}
			if !created.Before(window.End) {
				continue
			}

			rec := GitHubEvent{
				CreatedAt: created.UTC(),
				Type:      ev.GetType(),
				Repo:      ev.GetRepo().GetName(),
				Public:    ev.GetPublic(),
			}
			if rec.Type == "PushEvent" {
				if payload, err := ev.ParsePayload(); err == nil {
					if push, ok := payload.(*github.PushEvent); ok {
						rec.CommitCount = len(push.Commits)
					}
				}
			}
			data.Events = append(data.Events, rec)
		}

		if done || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	repos := languageRepos(data.Events)
	for repo := range repos {
		owner, name, ok := splitRepo(repo)
		if !ok {
			continue
		}
		langs, _, err := api.Repositories.ListLanguages(ctx, owner, name)
		if err != nil {
			if err := mapContextErr(err); err == ErrUnavailable {
				return nil, ErrUnavailable
			}
			slog.WarnContext(ctx, "skipping repo languages", "repo", repo, "error", err)
			data.RepoErrors = append(data.RepoErrors, fmt.Sprintf("%s: %v", repo, err))
			continue
		}
		data.RepoLanguages[repo] = langs
	}

	slog.InfoContext(ctx, "github fetch complete",
		"events", len(data.Events),
		"repos", len(repos),
		"repo_errors", len(data.RepoErrors))

	return data, nil
}

// languageRepos picks the repos whose language bytes may be fetched.
// Private-repo events stay in the activity counts, but the authed token
// would happily return their languages, so they are filtered out here.
func languageRepos(events []GitHubEvent) map[string]struct{} {
	repos := make(map[string]struct{})
	for _, ev := range events {
		if ev.Public && ev.Repo != "" {
			repos[ev.Repo] = struct{}{}
		}
	}
	return repos
}

func (c *githubClient) mapErr(err error) error {
	var gerr *github.ErrorResponse
	if errors.As(err, &gerr) && gerr.Response != nil {
		switch {
		case gerr.Response.StatusCode == http.StatusUnauthorized:
			return ErrCredentialInvalid
		case gerr.Response.StatusCode >= 500:
			return ErrUnavailable
		}
	}
	return mapContextErr(err)
}

func splitRepo(full string) (owner, name string, ok bool) {
	for i := 0; i < len(full); i++ {
		if full[i] == '/' {
			return full[:i], full[i+1:], full[i+1:] != ""
		}
	}
	return "", "", false
}
