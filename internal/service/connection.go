package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	oauthgithub "golang.org/x/oauth2/github"
	oauthgoogle "golang.org/x/oauth2/google"

	"workdiary.app/server/common/id"
	"workdiary.app/server/core/config"
	"workdiary.app/server/internal/model"
	"workdiary.app/server/internal/platform"
	"workdiary.app/server/internal/store"
	"workdiary.app/server/internal/vault"
)

var ErrUnsupportedPlatform = errors.New("unsupported platform")

// slackEndpoint is the OAuth v2 endpoint pair; x/oauth2 ships no preset
// for Slack.
var slackEndpoint = oauth2.Endpoint{
	AuthURL:  "https://slack.com/oauth/v2/authorize",
	TokenURL: "https://slack.com/api/oauth.v2.access",
}

// Renew this long before the provider-reported expiry to avoid using a
// token that dies mid-fetch.
const tokenRenewMargin = 2 * time.Minute

// ConnectionService owns the per-platform OAuth connect flow and the
// encrypted tokens it produces. Token is the only way the rest of the
// code obtains a plaintext credential.
type ConnectionService interface {
	AuthURL(p model.Platform, state string) (string, error)
	HandleCallback(ctx context.Context, userID int64, p model.Platform, code string) (*model.Connection, error)
	List(ctx context.Context, userID int64) ([]model.Connection, error)
	Disconnect(ctx context.Context, userID int64, p model.Platform) error
	Token(ctx context.Context, userID int64, p model.Platform) (string, error)
}

type connectionService struct {
	connStore store.ConnectionStore
	vault     *vault.Vault
	slack     config.SlackConfig
	google    config.GoogleConfig
	github    config.GitHubConfig
}

func NewConnectionService(
	connStore store.ConnectionStore,
	v *vault.Vault,
	slack config.SlackConfig,
	google config.GoogleConfig,
	github config.GitHubConfig,
) ConnectionService {
	return &connectionService{
		connStore: connStore,
		vault:     v,
		slack:     slack,
		google:    google,
		github:    github,
	}
}

func (s *connectionService) oauthConfig(p model.Platform) (*oauth2.Config, []oauth2.AuthCodeOption, error) {
	switch p {
	case model.PlatformSlack:
		return &oauth2.Config{
				ClientID:     s.slack.ClientID,
				ClientSecret: s.slack.ClientSecret,
				RedirectURL:  s.slack.RedirectURI,
				Endpoint:     slackEndpoint,
			}, []oauth2.AuthCodeOption{
				oauth2.SetAuthURLParam("user_scope",
					"channels:history,groups:history,im:history,mpim:history,channels:read,groups:read,im:read,mpim:read,users:read,chat:write,im:write"),
			}, nil
	case model.PlatformGoogleCalendar:
		return &oauth2.Config{
				ClientID:     s.google.ClientID,
				ClientSecret: s.google.ClientSecret,
				RedirectURL:  s.google.RedirectURI,
				Endpoint:     oauthgoogle.Endpoint,
				Scopes:       []string{"https://www.googleapis.com/auth/calendar.readonly"},
			}, []oauth2.AuthCodeOption{
				oauth2.AccessTypeOffline,
				oauth2.SetAuthURLParam("prompt", "consent"),
			}, nil
	case model.PlatformGitHub:
		return &oauth2.Config{
			ClientID:     s.github.ClientID,
			ClientSecret: s.github.ClientSecret,
			RedirectURL:  s.github.RedirectURI,
			Endpoint:     oauthgithub.Endpoint,
			Scopes:       []string{"read:user", "repo"},
		}, nil, nil
	default:
		return nil, nil, ErrUnsupportedPlatform
	}
}

func (s *connectionService) AuthURL(p model.Platform, state string) (string, error) {
	cfg, opts, err := s.oauthConfig(p)
	if err != nil {
		return "", err
	}
	return cfg.AuthCodeURL(state, opts...), nil
}

func (s *connectionService) HandleCallback(ctx context.Context, userID int64, p model.Platform, code string) (*model.Connection, error) {
	cfg, _, err := s.oauthConfig(p)
	if err != nil {
		return nil, err
	}

	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code: %w", err)
	}

	accessToken := token.AccessToken
	if p == model.PlatformSlack {
		// Slack's v2 flow nests the user token under authed_user; the
		// top-level token is the bot token we don't want.
		if userToken := slackUserToken(token); userToken != "" {
			accessToken = userToken
		}
	}

	encrypted, err := s.vault.Encrypt(accessToken)
	if err != nil {
		return nil, fmt.Errorf("encrypting token: %w", err)
	}

	conn := &model.Connection{
		ID:       id.New(),
		UserID:   userID,
		Platform: p,
	}
	conn.EncryptedToken = encrypted

	if token.RefreshToken != "" {
		encryptedRefresh, err := s.vault.Encrypt(token.RefreshToken)
		if err != nil {
			return nil, fmt.Errorf("encrypting refresh token: %w", err)
		}
		conn.EncryptedRefresh = encryptedRefresh
	}
	if !token.Expiry.IsZero() {
		expiry := token.Expiry
		conn.TokenExpiresAt = &expiry
	}

	if err := s.connStore.Upsert(ctx, conn); err != nil {
		return nil, fmt.Errorf("storing connection: %w", err)
	}

	slog.InfoContext(ctx, "platform connected", "user_id", userID, "platform", p)
	return conn, nil
}

func (s *connectionService) List(ctx context.Context, userID int64) ([]model.Connection, error) {
	return s.connStore.ListByUser(ctx, userID)
}

func (s *connectionService) Disconnect(ctx context.Context, userID int64, p model.Platform) error {
	conn, err := s.connStore.GetByUserAndPlatform(ctx, userID, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return platform.ErrNotConnected
		}
		return err
	}
	return s.connStore.Delete(ctx, conn.ID)
}

func (s *connectionService) Token(ctx context.Context, userID int64, p model.Platform) (string, error) {
	conn, err := s.connStore.GetByUserAndPlatform(ctx, userID, p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", platform.ErrNotConnected
		}
		return "", err
	}

	accessToken, err := s.vault.Decrypt(conn.EncryptedToken)
	if err != nil {
		return "", fmt.Errorf("decrypting token: %w", err)
	}

	if conn.TokenExpiresAt == nil || time.Until(*conn.TokenExpiresAt) > tokenRenewMargin {
		return accessToken, nil
	}
	if len(conn.EncryptedRefresh) == 0 {
		return "", platform.ErrCredentialInvalid
	}

	return s.refresh(ctx, conn, accessToken)
}

func (s *connectionService) refresh(ctx context.Context, conn *model.Connection, accessToken string) (string, error) {
	cfg, _, err := s.oauthConfig(conn.Platform)
	if err != nil {
		return "", err
	}

	refreshToken, err := s.vault.Decrypt(conn.EncryptedRefresh)
	if err != nil {
		return "", fmt.Errorf("decrypting refresh token: %w", err)
	}

	src := cfg.TokenSource(ctx, &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Expiry:       *conn.TokenExpiresAt,
	})
	token, err := src.Token()
	if err != nil {
		slog.WarnContext(ctx, "token refresh failed", "user_id", conn.UserID, "platform", conn.Platform, "error", err)
		return "", platform.ErrCredentialInvalid
	}

	encrypted, err := s.vault.Encrypt(token.AccessToken)
	if err != nil {
		return "", fmt.Errorf("encrypting refreshed token: %w", err)
	}
	encryptedRefresh := conn.EncryptedRefresh
	if token.RefreshToken != "" && token.RefreshToken != refreshToken {
		encryptedRefresh, err = s.vault.Encrypt(token.RefreshToken)
		if err != nil {
			return "", fmt.Errorf("encrypting rotated refresh token: %w", err)
		}
	}

	var expiry *time.Time
	if !token.Expiry.IsZero() {
		e := token.Expiry
		expiry = &e
	}
	if err := s.connStore.UpdateTokens(ctx, conn.ID, encrypted, encryptedRefresh, expiry); err != nil {
		return "", fmt.Errorf("storing refreshed token: %w", err)
	}

	return token.AccessToken, nil
}

func slackUserToken(token *oauth2.Token) string {
	authed, ok := token.Extra("authed_user").(map[string]any)
	if !ok {
		return ""
	}
	userToken, _ := authed["access_token"].(string)
	return userToken
}
