package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suPer8Hu/ai-chat/internal/chat"
	"github.com/suPer8Hu/ai-chat/internal/models"
	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	tests := map[string]string{
		"sqlite:ai_chat.db":                                 "sqlite",
		"file:test?mode=memory":                             "sqlite",
		"postgres://u:p@localhost:5432/chat":                "postgres",
		"postgresql://u:p@localhost:5432/chat":              "postgres",
		"app:apppass@tcp(127.0.0.1:3306)/ai_chat?parseTime": "mysql",
	}
	for dsn, want := range tests {
		t.Run(want+" "+dsn, func(t *testing.T) {
			assert.Equal(t, want, Dialector(dsn).Name())
		})
	}
}

func TestConnectAndMigrate_Idempotent(t *testing.T) {
	gdb, err := Connect("file:dbtest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	require.NoError(t, Migrate(gdb))
	require.NoError(t, Migrate(gdb))

	for _, m := range []any{&models.User{}, &chat.Conversation{}, &chat.Message{}} {
		assert.True(t, gdb.Migrator().HasTable(m))
	}

	repo := chat.NewRepo(gdb)
	_, err = repo.CreateConversation(context.Background(), "c1", "", 1)
	require.NoError(t, err)
}

func TestConnect_TranslatesDuplicateKey(t *testing.T) {
	gdb, err := Connect("file:dbduptest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(gdb))

	first := &chat.Conversation{ConversationID: "c1", UserID: 1, Name: "a"}
	require.NoError(t, gdb.Create(first).Error)
	err = gdb.Create(&chat.Conversation{ConversationID: "c1", UserID: 2, Name: "b"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreateConversation_ConcurrentStartIsConflict(t *testing.T) {
	gdb, err := Connect("file:dbracetest?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	require.NoError(t, Migrate(gdb))

	// another start commits the same id between the existence check and the insert
	injected := false
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register("test:concurrent_start", func(tx *gorm.DB) {
		if injected || tx.Statement.Table != "chat_conversations" {
			return
		}
		injected = true
		now := time.Now()
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO chat_conversations (conversation_id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
			"c1", 2, "theirs", now, now)
	}))

	_, err = chat.NewRepo(gdb).CreateConversation(context.Background(), "c1", "", 1)
	assert.True(t, injected)
	assert.ErrorIs(t, err, chat.ErrConversationExists)
	assert.NotErrorIs(t, err, chat.ErrPersistence)
}
