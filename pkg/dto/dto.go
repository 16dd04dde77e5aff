package dto

import (
	"fmt"
	"strings"
	"time"

	"activity_tracker/internal/model"
)

type CommitNotification struct {
	Repo     string    `json:"repo"`
	Author   string    `json:"author"`
	Message  string    `json:"message"`
	URL      string    `json:"url"`
	PushedAt time.Time `json:"pushed_at"`
	Text     string    `json:"text"`
}

func NewCommitNotification(githubUsername string, commit model.CommitRecord) *CommitNotification {
	link := normalizeGitHubLink(commit.URL)
	return &CommitNotification{
		Repo:     commit.Repo.FullName(),
		Author:   commit.AuthorName,
		Message:  commit.Message,
		URL:      link,
		PushedAt: commit.Timestamp,
		Text:     FormatCommitLine(githubUsername, commit),
	}
}

// FormatCommitLine renders the single human-readable line posted per commit.
func FormatCommitLine(githubUsername string, commit model.CommitRecord) string {
	return fmt.Sprintf("%s pushed to %s: %s (%s)",
		githubUsername,
		commit.Repo.FullName(),
		firstLine(commit.Message),
		normalizeGitHubLink(commit.URL),
	)
}

func firstLine(message string) string {
	trimmed := strings.TrimSpace(message)
	if idx := strings.IndexByte(trimmed, '\n'); idx >= 0 {
		return strings.TrimSpace(trimmed[:idx])
	}
	return trimmed
}

func normalizeGitHubLink(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	normalized := strings.Replace(trimmed, "api.github.com/repos/", "github.com/", 1)
	normalized = strings.Replace(normalized, "/commits/", "/commit/", 1)
	return normalized
}
