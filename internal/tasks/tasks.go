package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"

	"activity_tracker/internal/engine"
	"activity_tracker/internal/model"
	"activity_tracker/internal/notification"
	"activity_tracker/internal/repo"
	"activity_tracker/pkg/dto"
)

// FallbackChannel is the well-known channel the relay resolves by name when
// a guild has no explicit channel configuration.
const FallbackChannel = "github-activity"

type SweepConfig struct {
	GuildID         string
	FallbackChannel string
}

// GetSyncAccountsFunc builds the per-tick sweep. Accounts are processed
// strictly sequentially: the store access pattern stays simple and upstream
// request concurrency stays bounded. For each account the new cursor is
// persisted before delivery is attempted; a failed cursor write suppresses
// delivery so nothing is announced that was not durably recorded, and the
// unwritten cursor makes the same commits reselect next tick.
func GetSyncAccountsFunc(cfg SweepConfig, accounts repo.AccountStore, channels repo.ChannelStore, syncEngine *engine.SyncEngine, deliverer notification.Deliverer) func(ctx context.Context) {
	return func(ctx context.Context) {
		cycleTime := time.Now().UTC()

		accs, err := accounts.ListAccounts(ctx)
		if err != nil {
			zap.S().Warnf("list accounts failed, skipping cycle: %v", err)
			return
		}
		if len(accs) == 0 {
			return
		}

		channelID := resolveChannel(ctx, channels, cfg)

		for _, account := range accs {
			if ctx.Err() != nil {
				return
			}
			syncOne(ctx, account, cycleTime, channelID, accounts, syncEngine, deliverer)
		}
	}
}

func syncOne(ctx context.Context, account model.Account, cycleTime time.Time, channelID string, accounts repo.AccountStore, syncEngine *engine.SyncEngine, deliverer notification.Deliverer) {
	result := syncEngine.SyncAccount(ctx, account, cycleTime)

	if cursorChanged(account.Cursor, result.NewCursor) {
		if err := accounts.UpdateCursor(ctx, account.ID, *result.NewCursor); err != nil {
			zap.S().Warnf("cursor write for %v failed, holding delivery this cycle: %v", account.GithubUsername, err)
			return
		}
	}

	for _, commit := range result.Selected {
		note := dto.NewCommitNotification(account.GithubUsername, commit)
		if err := deliverer.Deliver(ctx, channelID, note); err != nil {
			zap.S().Warnf("deliver commit %v for %v failed: %v", commit.SHA, account.GithubUsername, err)
		}
	}
}

func resolveChannel(ctx context.Context, channels repo.ChannelStore, cfg SweepConfig) string {
	configured, err := channels.GetChannel(ctx, cfg.GuildID)
	if err != nil {
		zap.S().Warnf("channel config lookup for guild %v failed: %v", cfg.GuildID, err)
	}
	if configured != "" {
		return configured
	}
	if cfg.FallbackChannel != "" {
		return cfg.FallbackChannel
	}
	return FallbackChannel
}

func cursorChanged(current *model.Cursor, next *model.Cursor) bool {
	if next == nil {
		return false
	}
	if current == nil {
		return true
	}
	return current.SHA != next.SHA || !current.Time.Equal(next.Time)
}
