package repo

import (
	"context"
	"errors"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
)

var (
	// ErrNotFound は対象のレコードが存在しない場合に返されます
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate は一意制約に違反した場合に返されます
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepo interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uint) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	// ExistsUsername / ExistsEmail はexceptIDのユーザーを除外して重複を確認します
	ExistsUsername(ctx context.Context, username string, exceptID uint) (bool, error)
	ExistsEmail(ctx context.Context, email string, exceptID uint) (bool, error)
	UpdateUser(ctx context.Context, user *models.User) error
}

type TopicRepo interface {
	// GetOrCreateTopic は名前が一致するトピックを返し、なければ作成します
	GetOrCreateTopic(ctx context.Context, name string) (models.Topic, bool, error)
	ListTopics(ctx context.Context, limit int) ([]models.Topic, error)
	SearchTopics(ctx context.Context, q string) ([]models.Topic, error)
}

type RoomRepo interface {
	CreateRoom(ctx context.Context, room *models.Room) error
	GetRoom(ctx context.Context, id uint) (models.Room, error)
	UpdateRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id uint) error

	// CountRooms / SearchRooms はトピック名・ルーム名・説明のいずれかにqを含むルームを対象にします
	CountRooms(ctx context.Context, q string) (int64, error)
	SearchRooms(ctx context.Context, q string, offset, limit int) ([]models.Room, error)
	CountRoomsByHost(ctx context.Context, hostID uint) (int64, error)
	ListRoomsByHost(ctx context.Context, hostID uint, offset, limit int) ([]models.Room, error)

	AddParticipant(ctx context.Context, roomID uint, user models.User) error
	ListParticipants(ctx context.Context, roomID uint) ([]models.User, error)
}

type MessageRepo interface {
	CreateMessage(ctx context.Context, msg *models.Message) error
	GetMessage(ctx context.Context, id uint) (models.Message, error)
	DeleteMessage(ctx context.Context, id uint) error

	ListMessagesByRoom(ctx context.Context, roomID uint) ([]models.Message, error)
	ListMessagesByUser(ctx context.Context, userID uint) ([]models.Message, error)
	// ListMessagesByTopic はルームのトピック名にqを含むメッセージを新しい順にlimit件返します
	ListMessagesByTopic(ctx context.Context, q string, limit int) ([]models.Message, error)
	ListAllMessages(ctx context.Context) ([]models.Message, error)
}

// SessionRepo はログインセッションを保存します
type SessionRepo interface {
	CreateSession(ctx context.Context, s models.Session) error
	GetSession(ctx context.Context, id string) (models.Session, bool, error)
	DeleteSession(ctx context.Context, id string) error
	TouchSession(ctx context.Context, id string, ttlSec int) error
}

// AvatarRepo はアバター画像を保存/取得します
type AvatarRepo interface {
	SaveAvatar(ctx context.Context, userID uint, avatar models.Avatar) error
	GetAvatar(ctx context.Context, userID uint) (models.Avatar, bool, error)
}
