package repo

import (
	"context"

	"activity_tracker/internal/model"
)

type AccountStore interface {
	ListAccounts(ctx context.Context) ([]model.Account, error)
	ListAccountsByUser(ctx context.Context, discordUserID string) ([]model.Account, error)
	GetAccountByUsername(ctx context.Context, githubUsername string) (model.Account, error)
	CreateAccount(ctx context.Context, account model.Account) (model.Account, error)
	DeleteAccountByUsername(ctx context.Context, githubUsername string) error
	UpdateCursor(ctx context.Context, accountID int, cursor model.Cursor) error
}

type ChannelStore interface {
	// GetChannel returns the configured channel for the guild, or "" when
	// no explicit configuration exists.
	GetChannel(ctx context.Context, guildID string) (string, error)
	UpsertChannel(ctx context.Context, guildID string, channelID string) error
}
