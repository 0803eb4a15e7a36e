package service

import (
	"workdiary.app/server/core/config"
	"workdiary.app/server/internal/activity"
	"workdiary.app/server/internal/insight"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/queue"
	"workdiary.app/server/internal/store"
	"workdiary.app/server/internal/vault"
)

type Services struct {
	stores   *store.Stores
	vault    *vault.Vault
	cfg      config.Config
	agg      *activity.Aggregator
	composer *insight.Composer
	producer queue.Producer

	slack    platform.SlackClient
	calendar platform.CalendarClient
	github   platform.GitHubClient
}

func NewServices(
	stores *store.Stores,
	v *vault.Vault,
	cfg config.Config,
	agg *activity.Aggregator,
	composer *insight.Composer,
	producer queue.Producer,
) *Services {
	return &Services{
		stores:   stores,
		vault:    v,
		cfg:      cfg,
		agg:      agg,
		composer: composer,
		producer: producer,
		slack:    platform.NewSlackClient(),
		calendar: platform.NewCalendarClient(),
		github:   platform.NewGitHubClient(),
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.stores.Sessions(), s.cfg.WorkOS)
}

func (s *Services) Connections() ConnectionService {
	return NewConnectionService(s.stores.Connections(), s.vault, s.cfg.Slack, s.cfg.Google, s.cfg.GitHub)
}

func (s *Services) Activity() ActivityService {
	return NewActivityService(
		s.Connections(),
		s.stores.Snapshots(),
		s.slack,
		s.calendar,
		s.github,
		s.agg,
		s.cfg.Analysis,
	)
}

func (s *Services) Nudges() NudgeService {
	return NewNudgeService(
		s.stores.Users(),
		s.stores.Nudges(),
		s.Activity(),
		s.Connections(),
		s.composer,
		s.slack,
		s.producer,
	)
}
