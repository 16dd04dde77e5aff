package gorm

import (
	"time"

	gormio "gorm.io/gorm"
)

type Account struct {
	ID             int        `gorm:"column:id;primaryKey;autoIncrement"`
	GithubUsername string     `gorm:"column:github_username;unique;not null"`
	DiscordUserID  *string    `gorm:"column:discord_user_id"`
	CursorSHA      *string    `gorm:"column:cursor_sha"`
	CursorTime     *time.Time `gorm:"column:cursor_time"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}

type GuildChannel struct {
	GuildID   string    `gorm:"column:guild_id;primaryKey"`
	ChannelID string    `gorm:"column:channel_id;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func Migrate(db *gormio.DB) error {
	return db.AutoMigrate(&Account{}, &GuildChannel{})
}
