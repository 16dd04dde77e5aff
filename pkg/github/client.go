package github

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"activity_tracker/internal/model"
	"activity_tracker/pkg/errs"
)

const (
	// CommitWindow is the trailing look-back beyond which commits are
	// treated as stale and never notified.
	CommitWindow = 7 * 24 * time.Hour

	listPageSize   = 100
	commitPageSize = 10
)

// Client is the single pooled GitHub client for the service. All calls are
// authenticated with the service credential and ride a rate-limit-aware
// transport, so 403-secondary-limit responses sleep instead of burning quota.
type Client struct {
	gh             *github.Client
	requestTimeout time.Duration
}

func NewClient(token string, requestTimeout time.Duration) (*Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("build rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &Client{
		gh:             github.NewClient(httpClient),
		requestTimeout: requestTimeout,
	}, nil
}

// ListPublicRepos lists the public, non-archived repositories owned by
// username. Any transport or non-2xx failure comes back wrapped in
// ErrDiscoveryFailed; callers skip the account for the cycle.
func (c *Client) ListPublicRepos(ctx context.Context, username string) ([]model.RepoRef, error) {
	opts := &github.RepositoryListByUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: listPageSize},
	}
	var refs []model.RepoRef
	for {
		repos, resp, err := c.listReposPage(ctx, username, opts)
		if err != nil {
			return nil, fmt.Errorf("%w: list repos for %s: %v", errs.ErrDiscoveryFailed, username, err)
		}
		for _, r := range repos {
			if r.GetPrivate() || r.GetArchived() {
				continue
			}
			owner := r.GetOwner().GetLogin()
			if owner == "" {
				owner = username
			}
			refs = append(refs, model.RepoRef{Owner: owner, Name: r.GetName()})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return refs, nil
}

// FetchRecentCommits returns the new commits for repo, newest first. It reads
// a single bounded page, stops at the cursor commit (everything older was
// already seen), and drops commits outside the trailing window or not strictly
// newer than the cursor. A commit sharing the cursor's timestamp counts as
// already seen: the cursor only ever advances on strictly newer timestamps, so
// keeping a tied commit would reselect it every cycle. Failures come back
// wrapped in ErrFetchFailed so one repo never blocks its siblings.
func (c *Client) FetchRecentCommits(ctx context.Context, repo model.RepoRef, cursor *model.Cursor, cycleTime time.Time) ([]model.CommitRecord, error) {
	commits, err := c.listCommitsPage(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("%w: list commits for %s: %v", errs.ErrFetchFailed, repo.FullName(), err)
	}

	windowStart := cycleTime.Add(-CommitWindow)
	var records []model.CommitRecord
	for _, rc := range commits {
		sha := rc.GetSHA()
		if sha == "" {
			continue
		}
		if cursor != nil && sha == cursor.SHA {
			break
		}
		ts := commitTime(rc)
		if ts.IsZero() || ts.Before(windowStart) {
			continue
		}
		if cursor != nil && !ts.After(cursor.Time) {
			continue
		}
		records = append(records, model.CommitRecord{
			Repo:       repo,
			SHA:        sha,
			AuthorName: authorName(rc),
			Message:    rc.GetCommit().GetMessage(),
			Timestamp:  ts,
			URL:        commitURL(rc),
		})
	}
	return records, nil
}

func (c *Client) listReposPage(ctx context.Context, username string, opts *github.RepositoryListByUserOptions) ([]*github.Repository, *github.Response, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	return c.gh.Repositories.ListByUser(callCtx, username, opts)
}

func (c *Client) listCommitsPage(ctx context.Context, repo model.RepoRef) ([]*github.RepositoryCommit, error) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()
	commits, _, err := c.gh.Repositories.ListCommits(callCtx, repo.Owner, repo.Name, &github.CommitsListOptions{
		ListOptions: github.ListOptions{PerPage: commitPageSize},
	})
	return commits, err
}

func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.requestTimeout)
}

func commitTime(commit *github.RepositoryCommit) time.Time {
	inner := commit.GetCommit()
	if inner == nil {
		return time.Time{}
	}
	if t := inner.GetCommitter().GetDate(); !t.IsZero() {
		return t.Time
	}
	if t := inner.GetAuthor().GetDate(); !t.IsZero() {
		return t.Time
	}
	return time.Time{}
}

func authorName(commit *github.RepositoryCommit) string {
	if name := commit.GetCommit().GetAuthor().GetName(); name != "" {
		return name
	}
	return commit.GetAuthor().GetLogin()
}

func commitURL(commit *github.RepositoryCommit) string {
	if link := commit.GetHTMLURL(); link != "" {
		return link
	}
	if link := commit.GetURL(); link != "" {
		return link
	}
	return commit.GetCommit().GetURL()
}
