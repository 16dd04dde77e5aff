package engine

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"activity_tracker/internal/model"
)

// Gateway is the upstream surface the engine syncs against. Both methods
// report soft failures as errors; the engine logs and degrades instead of
// propagating them.
type Gateway interface {
	ListPublicRepos(ctx context.Context, username string) ([]model.RepoRef, error)
	FetchRecentCommits(ctx context.Context, repo model.RepoRef, cursor *model.Cursor, cycleTime time.Time) ([]model.CommitRecord, error)
}

// SyncEngine computes one account's incremental sync: which commits are new
// since the cursor, conflated to at most one per repository, and the cursor
// to persist afterwards. It never touches the store or the deliverer, so a
// cycle with no qualifying activity has no side effects at all.
type SyncEngine struct {
	gateway    Gateway
	fetchLimit int
}

func NewSyncEngine(gateway Gateway, fetchLimit int) *SyncEngine {
	if fetchLimit <= 0 {
		fetchLimit = 1
	}
	return &SyncEngine{gateway: gateway, fetchLimit: fetchLimit}
}

func (e *SyncEngine) SyncAccount(ctx context.Context, account model.Account, cycleTime time.Time) model.SyncResult {
	noop := model.SyncResult{
		AccountID: account.ID,
		Selected:  map[model.RepoRef]model.CommitRecord{},
		NewCursor: account.Cursor,
	}

	repos, err := e.gateway.ListPublicRepos(ctx, account.GithubUsername)
	if err != nil {
		zap.S().Warnf("discovery for %v failed, skipping account this cycle: %v", account.GithubUsername, err)
		return noop
	}
	if len(repos) == 0 {
		return noop
	}

	collected := e.fetchAll(ctx, repos, account.Cursor, cycleTime)
	if len(collected) == 0 {
		return noop
	}

	selected := conflate(collected)

	newCursor := account.Cursor
	for _, commit := range selected {
		if newCursor == nil || commit.Timestamp.After(newCursor.Time) {
			newCursor = &model.Cursor{SHA: commit.SHA, Time: commit.Timestamp}
		}
	}

	return model.SyncResult{
		AccountID: account.ID,
		Selected:  selected,
		NewCursor: newCursor,
	}
}

// fetchAll runs the per-repo fetches with bounded parallelism and joins
// before returning; conflation must see the complete cycle, not a stream.
func (e *SyncEngine) fetchAll(ctx context.Context, repos []model.RepoRef, cursor *model.Cursor, cycleTime time.Time) []model.CommitRecord {
	var mu sync.Mutex
	var collected []model.CommitRecord

	g, groupCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.fetchLimit)
	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			commits, err := e.gateway.FetchRecentCommits(groupCtx, repo, cursor, cycleTime)
			if err != nil {
				zap.S().Warnf("fetch commits for %v failed, skipping repo this cycle: %v", repo.FullName(), err)
				return nil
			}
			if len(commits) == 0 {
				return nil
			}
			mu.Lock()
			collected = append(collected, commits...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
	return collected
}

// conflate keeps only the newest commit per repository. Multiple pushes to
// the same repo inside one poll window surface as a single notification.
func conflate(commits []model.CommitRecord) map[model.RepoRef]model.CommitRecord {
	selected := make(map[model.RepoRef]model.CommitRecord, len(commits))
	for _, commit := range commits {
		current, ok := selected[commit.Repo]
		if !ok || commit.Timestamp.After(current.Timestamp) {
			selected[commit.Repo] = commit
		}
	}
	return selected
}
