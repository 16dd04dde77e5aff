package gorm

import (
	"context"
	"errors"
	"fmt"

	gormio "gorm.io/gorm"
	"gorm.io/gorm/clause"

	"activity_tracker/internal/model"
	"activity_tracker/pkg/errs"
)

type GormAccountRepo struct {
	gorm *gormio.DB
}

func NewGormAccountRepo(gorm *gormio.DB) *GormAccountRepo {
	return &GormAccountRepo{gorm: gorm}
}

func (r *GormAccountRepo) ListAccounts(ctx context.Context) ([]model.Account, error) {
	items, err := gormio.G[Account](r.gorm).
		Order("id").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts: %v", errs.ErrPersistenceFailed, err)
	}
	return toModelAccounts(items), nil
}

func (r *GormAccountRepo) ListAccountsByUser(ctx context.Context, discordUserID string) ([]model.Account, error) {
	items, err := gormio.G[Account](r.gorm).
		Where("discord_user_id = ?", discordUserID).
		Order("id").
		Find(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list accounts for user %s: %v", errs.ErrPersistenceFailed, discordUserID, err)
	}
	return toModelAccounts(items), nil
}

func (r *GormAccountRepo) GetAccountByUsername(ctx context.Context, githubUsername string) (model.Account, error) {
	item, err := gormio.G[Account](r.gorm).
		Where("github_username = ?", githubUsername).
		First(ctx)
	if err != nil {
		if errors.Is(err, gormio.ErrRecordNotFound) {
			return model.Account{}, errs.ErrAccountNotFound
		}
		return model.Account{}, fmt.Errorf("%w: get account %s: %v", errs.ErrPersistenceFailed, githubUsername, err)
	}
	return toModelAccount(item), nil
}

func (r *GormAccountRepo) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	dao := toDAOAccount(account)
	err := r.gorm.WithContext(ctx).Transaction(func(tx *gormio.DB) error {
		return gormio.G[Account](tx).Create(ctx, &dao)
	})
	if err != nil {
		return model.Account{}, fmt.Errorf("%w: create account %s: %v", errs.ErrPersistenceFailed, account.GithubUsername, err)
	}
	return toModelAccount(dao), nil
}

func (r *GormAccountRepo) DeleteAccountByUsername(ctx context.Context, githubUsername string) error {
	var rows int
	err := r.gorm.WithContext(ctx).Transaction(func(tx *gormio.DB) error {
		var err error
		rows, err = gormio.G[Account](tx).
			Where("github_username = ?", githubUsername).
			Delete(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: delete account %s: %v", errs.ErrPersistenceFailed, githubUsername, err)
	}
	if rows == 0 {
		return errs.ErrAccountNotFound
	}
	return nil
}

func (r *GormAccountRepo) UpdateCursor(ctx context.Context, accountID int, cursor model.Cursor) error {
	var rows int
	err := r.gorm.WithContext(ctx).Transaction(func(tx *gormio.DB) error {
		var err error
		rows, err = gormio.G[Account](tx).
			Where("id = ?", accountID).
			Updates(ctx, Account{
				CursorSHA:  ptrString(cursor.SHA),
				CursorTime: &cursor.Time,
			})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: update cursor for account %d: %v", errs.ErrPersistenceFailed, accountID, err)
	}
	if rows == 0 {
		return errs.ErrAccountNotFound
	}
	return nil
}

type GormChannelRepo struct {
	gorm *gormio.DB
}

func NewGormChannelRepo(gorm *gormio.DB) *GormChannelRepo {
	return &GormChannelRepo{gorm: gorm}
}

func (r *GormChannelRepo) GetChannel(ctx context.Context, guildID string) (string, error) {
	item, err := gormio.G[GuildChannel](r.gorm).
		Where("guild_id = ?", guildID).
		First(ctx)
	if err != nil {
		if errors.Is(err, gormio.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: get channel for guild %s: %v", errs.ErrPersistenceFailed, guildID, err)
	}
	return item.ChannelID, nil
}

// UpsertChannel keeps one row per guild, last write wins. INSERT ... ON
// CONFLICT makes concurrent writers race safely on the primary key.
func (r *GormChannelRepo) UpsertChannel(ctx context.Context, guildID string, channelID string) error {
	row := GuildChannel{GuildID: guildID, ChannelID: channelID}
	err := r.gorm.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("%w: set channel for guild %s: %v", errs.ErrPersistenceFailed, guildID, err)
	}
	return nil
}

func toModelAccounts(items []Account) []model.Account {
	accounts := make([]model.Account, 0, len(items))
	for _, item := range items {
		accounts = append(accounts, toModelAccount(item))
	}
	return accounts
}

func toModelAccount(item Account) model.Account {
	account := model.Account{
		ID:             item.ID,
		GithubUsername: item.GithubUsername,
		CreatedAt:      item.CreatedAt,
	}
	if item.DiscordUserID != nil {
		account.DiscordUserID = *item.DiscordUserID
	}
	if item.CursorSHA != nil && item.CursorTime != nil {
		account.Cursor = &model.Cursor{SHA: *item.CursorSHA, Time: *item.CursorTime}
	}
	return account
}

func toDAOAccount(account model.Account) Account {
	dao := Account{
		ID:             account.ID,
		GithubUsername: account.GithubUsername,
		DiscordUserID:  ptrString(account.DiscordUserID),
	}
	if account.Cursor != nil {
		dao.CursorSHA = ptrString(account.Cursor.SHA)
		cursorTime := account.Cursor.Time
		dao.CursorTime = &cursorTime
	}
	return dao
}

func ptrString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
