package model

import "time"

// Cursor marks the most recent commit already processed for an account.
// The commit time rides along so recency comparisons do not need another
// upstream round trip.
type Cursor struct {
	SHA  string
	Time time.Time
}

type Account struct {
	ID             int
	GithubUsername string
	DiscordUserID  string
	Cursor         *Cursor
	CreatedAt      time.Time
}

type GuildChannel struct {
	GuildID   string
	ChannelID string
	UpdatedAt time.Time
}

type RepoRef struct {
	Owner string
	Name  string
}

func (r RepoRef) FullName() string {
	return r.Owner + "/" + r.Name
}

type CommitRecord struct {
	Repo       RepoRef
	SHA        string
	AuthorName string
	Message    string
	Timestamp  time.Time
	URL        string
}

// SyncResult is what one sync cycle produced for one account: at most one
// commit per repository, and the cursor the caller should persist. NewCursor
// equals the account's current cursor when nothing qualified.
type SyncResult struct {
	AccountID int
	Selected  map[RepoRef]CommitRecord
	NewCursor *Cursor
}
