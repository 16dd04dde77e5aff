package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity_tracker/internal/model"
	"activity_tracker/pkg/errs"
)

type stubGateway struct {
	repos         []model.RepoRef
	commitsByRepo map[model.RepoRef][]model.CommitRecord
	discoveryErr  error
}

func (s *stubGateway) ListPublicRepos(ctx context.Context, username string) ([]model.RepoRef, error) {
	if s.discoveryErr != nil {
		return nil, s.discoveryErr
	}
	return s.repos, nil
}

func (s *stubGateway) FetchRecentCommits(ctx context.Context, repo model.RepoRef, cursor *model.Cursor, cycleTime time.Time) ([]model.CommitRecord, error) {
	return s.commitsByRepo[repo], nil
}

type memAccountStore struct {
	nextID   int
	accounts map[string]model.Account
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{nextID: 1, accounts: map[string]model.Account{}}
}

func (m *memAccountStore) ListAccounts(ctx context.Context) ([]model.Account, error) {
	out := make([]model.Account, 0, len(m.accounts))
	for _, a := range m.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (m *memAccountStore) ListAccountsByUser(ctx context.Context, discordUserID string) ([]model.Account, error) {
	var out []model.Account
	for _, a := range m.accounts {
		if a.DiscordUserID == discordUserID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAccountStore) GetAccountByUsername(ctx context.Context, githubUsername string) (model.Account, error) {
	a, ok := m.accounts[githubUsername]
	if !ok {
		return model.Account{}, errs.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccountStore) CreateAccount(ctx context.Context, account model.Account) (model.Account, error) {
	account.ID = m.nextID
	m.nextID++
	m.accounts[account.GithubUsername] = account
	return account, nil
}

func (m *memAccountStore) DeleteAccountByUsername(ctx context.Context, githubUsername string) error {
	if _, ok := m.accounts[githubUsername]; !ok {
		return errs.ErrAccountNotFound
	}
	delete(m.accounts, githubUsername)
	return nil
}

func (m *memAccountStore) UpdateCursor(ctx context.Context, accountID int, cursor model.Cursor) error {
	for username, a := range m.accounts {
		if a.ID == accountID {
			a.Cursor = &cursor
			m.accounts[username] = a
			return nil
		}
	}
	return errs.ErrAccountNotFound
}

type memChannelStore struct {
	channels map[string]string
}

func (m *memChannelStore) GetChannel(ctx context.Context, guildID string) (string, error) {
	return m.channels[guildID], nil
}

func (m *memChannelStore) UpsertChannel(ctx context.Context, guildID string, channelID string) error {
	m.channels[guildID] = channelID
	return nil
}

func newTestService(gw *stubGateway) (*Service, *memAccountStore, *memChannelStore) {
	accounts := newMemAccountStore()
	channels := &memChannelStore{channels: map[string]string{}}
	return NewService(accounts, channels, gw), accounts, channels
}

func TestLink_SeedsCursorWithLatestPush(t *testing.T) {
	repoA := model.RepoRef{Owner: "alice", Name: "a"}
	repoB := model.RepoRef{Owner: "alice", Name: "b"}
	now := time.Now().UTC()

	gw := &stubGateway{
		repos: []model.RepoRef{repoA, repoB},
		commitsByRepo: map[model.RepoRef][]model.CommitRecord{
			repoA: {{Repo: repoA, SHA: "a1", Timestamp: now.Add(-2 * time.Hour)}},
			repoB: {{Repo: repoB, SHA: "b1", Timestamp: now.Add(-1 * time.Hour)}},
		},
	}
	service, accounts, _ := newTestService(gw)

	created, err := service.Link(context.Background(), "alice", "discord-1")
	require.NoError(t, err)
	require.NotNil(t, created.Cursor)
	assert.Equal(t, "b1", created.Cursor.SHA)

	stored, err := accounts.GetAccountByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored.Cursor)
	assert.Equal(t, "b1", stored.Cursor.SHA)
}

func TestLink_SeedFailureLeavesCursorUnset(t *testing.T) {
	gw := &stubGateway{discoveryErr: errs.ErrDiscoveryFailed}
	service, _, _ := newTestService(gw)

	created, err := service.Link(context.Background(), "alice", "")
	require.NoError(t, err)
	assert.Nil(t, created.Cursor)
}

func TestLink_RejectsDuplicateUsername(t *testing.T) {
	service, accounts, _ := newTestService(&stubGateway{})

	_, err := service.Link(context.Background(), "alice", "discord-1")
	require.NoError(t, err)

	_, err = service.Link(context.Background(), "alice", "discord-2")
	assert.ErrorIs(t, err, errs.ErrAccountExists)

	stored, err := accounts.GetAccountByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "discord-1", stored.DiscordUserID)
}

func TestLink_RejectsEmptyUsername(t *testing.T) {
	service, _, _ := newTestService(&stubGateway{})

	_, err := service.Link(context.Background(), "", "discord-1")
	assert.ErrorIs(t, err, errs.ErrNotValidData)
}

func TestUnlink(t *testing.T) {
	service, _, _ := newTestService(&stubGateway{})

	_, err := service.Link(context.Background(), "alice", "")
	require.NoError(t, err)

	require.NoError(t, service.Unlink(context.Background(), "alice"))
	assert.ErrorIs(t, service.Unlink(context.Background(), "alice"), errs.ErrAccountNotFound)
}

func TestList_FiltersByDiscordUser(t *testing.T) {
	service, _, _ := newTestService(&stubGateway{})

	_, err := service.Link(context.Background(), "alice", "discord-1")
	require.NoError(t, err)
	_, err = service.Link(context.Background(), "bob", "discord-2")
	require.NoError(t, err)

	all, err := service.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	filtered, err := service.List(context.Background(), "discord-2")
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "bob", filtered[0].GithubUsername)
}

func TestSetChannel_LastWriteWins(t *testing.T) {
	service, _, channels := newTestService(&stubGateway{})

	require.NoError(t, service.SetChannel(context.Background(), "guild-1", "chan-1"))
	require.NoError(t, service.SetChannel(context.Background(), "guild-1", "chan-2"))
	assert.Equal(t, "chan-2", channels.channels["guild-1"])

	assert.ErrorIs(t, service.SetChannel(context.Background(), "guild-1", ""), errs.ErrNotValidData)
	assert.ErrorIs(t, service.SetChannel(context.Background(), "", "chan-1"), errs.ErrNotValidData)
}
