package account

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"activity_tracker/internal/engine"
	"activity_tracker/internal/model"
	"activity_tracker/internal/repo"
	"activity_tracker/pkg/errs"
)

// Service is the command surface for linked accounts and guild channel
// configuration.
type Service struct {
	accounts repo.AccountStore
	channels repo.ChannelStore
	gateway  engine.Gateway
}

func NewService(accounts repo.AccountStore, channels repo.ChannelStore, gateway engine.Gateway) *Service {
	return &Service{
		accounts: accounts,
		channels: channels,
		gateway:  gateway,
	}
}

// Link creates the account and seeds its cursor with the latest known push
// across the user's public repositories, so the first poll after linking
// does not flood the channel with pre-existing history. A failed seed leaves
// the cursor unset; the trailing window still bounds the first cycle.
func (s *Service) Link(ctx context.Context, githubUsername string, discordUserID string) (model.Account, error) {
	if githubUsername == "" {
		return model.Account{}, errs.ErrNotValidData
	}
	_, err := s.accounts.GetAccountByUsername(ctx, githubUsername)
	if err == nil {
		return model.Account{}, errs.ErrAccountExists
	}
	if !errors.Is(err, errs.ErrAccountNotFound) {
		return model.Account{}, err
	}
	account := model.Account{
		GithubUsername: githubUsername,
		DiscordUserID:  discordUserID,
		Cursor:         s.seedCursor(ctx, githubUsername),
	}
	return s.accounts.CreateAccount(ctx, account)
}

func (s *Service) Unlink(ctx context.Context, githubUsername string) error {
	if githubUsername == "" {
		return errs.ErrNotValidData
	}
	return s.accounts.DeleteAccountByUsername(ctx, githubUsername)
}

func (s *Service) List(ctx context.Context, discordUserID string) ([]model.Account, error) {
	if discordUserID != "" {
		return s.accounts.ListAccountsByUser(ctx, discordUserID)
	}
	return s.accounts.ListAccounts(ctx)
}

func (s *Service) SetChannel(ctx context.Context, guildID string, channelID string) error {
	if guildID == "" || channelID == "" {
		return errs.ErrNotValidData
	}
	return s.channels.UpsertChannel(ctx, guildID, channelID)
}

func (s *Service) seedCursor(ctx context.Context, githubUsername string) *model.Cursor {
	repos, err := s.gateway.ListPublicRepos(ctx, githubUsername)
	if err != nil {
		zap.S().Warnf("catch-up seed for %v failed, linking with unset cursor: %v", githubUsername, err)
		return nil
	}

	now := time.Now().UTC()
	var latest *model.Cursor
	for _, ref := range repos {
		commits, err := s.gateway.FetchRecentCommits(ctx, ref, nil, now)
		if err != nil {
			zap.S().Warnf("catch-up seed fetch for %v failed: %v", ref.FullName(), err)
			continue
		}
		for _, commit := range commits {
			if latest == nil || commit.Timestamp.After(latest.Time) {
				latest = &model.Cursor{SHA: commit.SHA, Time: commit.Timestamp}
			}
		}
	}
	return latest
}
