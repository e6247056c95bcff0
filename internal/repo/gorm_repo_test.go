package repo

import (
	"context"
	"testing"
	"time"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupTestDB はテスト用のインメモリSQLiteを作成します
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenSQLite(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	u := models.User{Username: username, Email: username + "@example.com", PasswordHash: "x"}
	require.NoError(t, NewGormUserRepo(db).CreateUser(context.Background(), &u))
	return u
}

func createRoom(t *testing.T, db *gorm.DB, host models.User, topic, name, desc string) models.Room {
	t.Helper()
	ctx := context.Background()
	tp, _, err := NewGormTopicRepo(db).GetOrCreateTopic(ctx, topic)
	require.NoError(t, err)
	room := models.Room{HostID: &host.ID, TopicID: &tp.ID, Name: name, Description: desc}
	require.NoError(t, NewGormRoomRepo(db).CreateRoom(ctx, &room))
	return room
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%Go%", likePattern("Go"))
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, "%%", likePattern(""))
}

func TestUserRepo(t *testing.T) {
	db := setupTestDB(t)
	users := NewGormUserRepo(db)
	ctx := context.Background()

	alice := createUser(t, db, "alice")

	t.Run("get by id and username", func(t *testing.T) {
		got, err := users.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)

		got, err = users.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := users.GetUser(ctx, 9999)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = users.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		dup := models.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"}
		assert.ErrorIs(t, users.CreateUser(ctx, &dup), ErrDuplicate)
	})

	t.Run("exists ignores case and the excluded id", func(t *testing.T) {
		ok, err := users.ExistsUsername(ctx, "ALICE", 0)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = users.ExistsUsername(ctx, "alice", alice.ID)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = users.ExistsEmail(ctx, "Alice@Example.com", 0)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("update", func(t *testing.T) {
		alice.Bio = "hello"
		require.NoError(t, users.UpdateUser(ctx, &alice))
		got, err := users.GetUser(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "hello", got.Bio)
	})
}

func TestTopicRepo_GetOrCreate(t *testing.T) {
	db := setupTestDB(t)
	topics := NewGormTopicRepo(db)
	ctx := context.Background()

	first, created, err := topics.GetOrCreateTopic(ctx, "Music")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := topics.GetOrCreateTopic(ctx, "Music")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	var n int64
	require.NoError(t, db.Model(&models.Topic{}).Where("name = ?", "Music").Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// 完全一致なので大文字小文字が違えば別トピック
	other, created, err := topics.GetOrCreateTopic(ctx, "music")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestTopicRepo_ListAndSearch(t *testing.T) {
	db := setupTestDB(t)
	topics := NewGormTopicRepo(db)
	ctx := context.Background()

	for _, name := range []string{"Python", "Go", "Django", "Golang tips"} {
		_, _, err := topics.GetOrCreateTopic(ctx, name)
		require.NoError(t, err)
	}

	firstThree, err := topics.ListTopics(ctx, 3)
	require.NoError(t, err)
	require.Len(t, firstThree, 3)
	assert.Equal(t, "Python", firstThree[0].Name)

	all, err := topics.ListTopics(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	found, err := topics.SearchTopics(ctx, "GO")
	require.NoError(t, err)
	names := make([]string, 0, len(found))
	for _, tp := range found {
		names = append(names, tp.Name)
	}
	assert.ElementsMatch(t, []string{"Django", "Go", "Golang tips"}, names)
}

func TestRoomRepo_Search(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewGormRoomRepo(db)
	ctx := context.Background()
	host := createUser(t, db, "host")

	createRoom(t, db, host, "Python", "Snakes", "all about pythons")
	createRoom(t, db, host, "Music", "Jazz night", "bring your sax")
	createRoom(t, db, host, "Cooking", "Dinner", "what about PYTHON recipes?")
	createRoom(t, db, host, "Art", "50% off", "discounts")

	cases := []struct {
		q    string
		want int64
	}{
		{"", 4},
		{"python", 2}, // トピック名と説明
		{"JAZZ", 1},   // ルーム名
		{"music", 1},  // トピック名
		{"%", 1},      // ワイルドカードはエスケープされる
		{"nothing", 0},
	}
	for _, tc := range cases {
		n, err := rooms.CountRooms(ctx, tc.q)
		require.NoError(t, err)
		assert.Equal(t, tc.want, n, "q=%q", tc.q)

		list, err := rooms.SearchRooms(ctx, tc.q, 0, 10)
		require.NoError(t, err)
		assert.Len(t, list, int(tc.want), "q=%q", tc.q)
	}

	page, err := rooms.SearchRooms(ctx, "", 3, 3)
	require.NoError(t, err)
	require.Len(t, page, 1)
	// 新しい順なので最後のページは最初に作ったルーム
	assert.Equal(t, "Snakes", page[0].Name)
	require.NotNil(t, page[0].Topic)
	assert.Equal(t, "Python", page[0].Topic.Name)
	require.NotNil(t, page[0].Host)
	assert.Equal(t, "host", page[0].Host.Username)
}

func TestSearch_NonASCII(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewGormRoomRepo(db)
	topics := NewGormTopicRepo(db)
	msgs := NewGormMessageRepo(db)
	ctx := context.Background()
	host := createUser(t, db, "host")

	room := createRoom(t, db, host, "Musik", "Übungsraum", "")
	createRoom(t, db, host, "Ökologie", "Wald", "")
	require.NoError(t, msgs.CreateMessage(ctx, &models.Message{UserID: host.ID, RoomID: room.ID, Body: "hallo"}))

	for _, q := range []string{"Übungsraum", "Üb", "übungsraum", "ÜBUNGSRAUM", "MUSIK", "Ökologie"} {
		n, err := rooms.CountRooms(ctx, q)
		require.NoError(t, err)
		list, err := rooms.SearchRooms(ctx, q, 0, 10)
		require.NoError(t, err)
		// SQLiteのLIKEはASCII以外の大文字小文字を同一視しない
		want := int64(1)
		if q == "übungsraum" {
			want = 0
		}
		assert.Equal(t, want, n, "q=%q", q)
		assert.Len(t, list, int(want), "q=%q", q)
	}

	found, err := topics.SearchTopics(ctx, "Ökologie")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ökologie", found[0].Name)

	found, err = topics.SearchTopics(ctx, "ökologie")
	require.NoError(t, err)
	assert.Empty(t, found)

	byTopic, err := msgs.ListMessagesByTopic(ctx, "musik", 3)
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	assert.Equal(t, "hallo", byTopic[0].Body)
}

func TestRoomRepo_UpdateDeleteParticipants(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewGormRoomRepo(db)
	msgs := NewGormMessageRepo(db)
	ctx := context.Background()

	host := createUser(t, db, "host")
	guest := createUser(t, db, "guest")
	room := createRoom(t, db, host, "Go", "Gophers", "")

	t.Run("add participant is idempotent", func(t *testing.T) {
		require.NoError(t, rooms.AddParticipant(ctx, room.ID, guest))
		require.NoError(t, rooms.AddParticipant(ctx, room.ID, guest))
		users, err := rooms.ListParticipants(ctx, room.ID)
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, guest.ID, users[0].ID)
	})

	t.Run("update in place", func(t *testing.T) {
		before, err := rooms.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		before.Name = "Gophers united"
		before.Description = "new"
		require.NoError(t, rooms.UpdateRoom(ctx, &before))

		after, err := rooms.GetRoom(ctx, room.ID)
		require.NoError(t, err)
		assert.Equal(t, "Gophers united", after.Name)
		assert.Equal(t, "new", after.Description)
		assert.True(t, after.UpdatedAt.After(before.CreatedAt))
	})

	t.Run("delete removes messages and participants", func(t *testing.T) {
		m := models.Message{UserID: guest.ID, RoomID: room.ID, Body: "hi"}
		require.NoError(t, msgs.CreateMessage(ctx, &m))

		require.NoError(t, rooms.DeleteRoom(ctx, room.ID))

		_, err := rooms.GetRoom(ctx, room.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = msgs.GetMessage(ctx, m.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		users, err := rooms.ListParticipants(ctx, room.ID)
		require.NoError(t, err)
		assert.Empty(t, users)

		assert.ErrorIs(t, rooms.DeleteRoom(ctx, room.ID), ErrNotFound)
	})
}

func TestRoomRepo_ByHost(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewGormRoomRepo(db)
	ctx := context.Background()

	a := createUser(t, db, "a")
	b := createUser(t, db, "b")
	createRoom(t, db, a, "T", "a1", "")
	createRoom(t, db, a, "T", "a2", "")
	createRoom(t, db, b, "T", "b1", "")

	n, err := rooms.CountRoomsByHost(ctx, a.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	list, err := rooms.ListRoomsByHost(ctx, a.ID, 0, 3)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestMessageRepo(t *testing.T) {
	db := setupTestDB(t)
	msgs := NewGormMessageRepo(db)
	ctx := context.Background()

	u := createUser(t, db, "writer")
	music := createRoom(t, db, u, "Music", "Jazz", "")
	code := createRoom(t, db, u, "Code", "Go", "")

	post := func(room models.Room, body string) models.Message {
		m := models.Message{UserID: u.ID, RoomID: room.ID, Body: body}
		require.NoError(t, msgs.CreateMessage(ctx, &m))
		return m
	}
	first := post(music, "one")
	post(code, "two")
	last := post(music, "three")

	byRoom, err := msgs.ListMessagesByRoom(ctx, music.ID)
	require.NoError(t, err)
	require.Len(t, byRoom, 2)
	assert.Equal(t, last.ID, byRoom[0].ID, "newest first")
	assert.Equal(t, "writer", byRoom[0].User.Username)

	byTopic, err := msgs.ListMessagesByTopic(ctx, "MUS", 3)
	require.NoError(t, err)
	require.Len(t, byTopic, 2)
	assert.Equal(t, "Music", byTopic[0].Room.TopicName())

	limited, err := msgs.ListMessagesByTopic(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := msgs.ListAllMessages(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, last.ID, all[0].ID)

	byUser, err := msgs.ListMessagesByUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, byUser, 3)

	require.NoError(t, msgs.DeleteMessage(ctx, first.ID))
	_, err = msgs.GetMessage(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, msgs.DeleteMessage(ctx, first.ID), ErrNotFound)
}
