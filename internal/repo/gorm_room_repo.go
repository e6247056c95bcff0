package repo

import (
	"context"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRoomRepo struct{ db *gorm.DB }

func NewGormRoomRepo(db *gorm.DB) *GormRoomRepo {
	return &GormRoomRepo{db: db}
}

const roomOrder = "rooms.updated_at DESC, rooms.created_at DESC, rooms.id DESC"

// matchingRooms はトピック名・ルーム名・説明のOR部分一致で絞り込みます
func matchingRooms(q string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Joins("LEFT JOIN topics ON topics.id = rooms.topic_id")
		if q == "" {
			return db
		}
		p := likePattern(q)
		return db.Where(
			ilike("topics.name")+" OR "+ilike("rooms.name")+" OR "+ilike("rooms.description"),
			p, p, p,
		)
	}
}

func (r *GormRoomRepo) CreateRoom(ctx context.Context, room *models.Room) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(room).Error)
}

func (r *GormRoomRepo) GetRoom(ctx context.Context, id uint) (models.Room, error) {
	var room models.Room
	err := r.db.WithContext(ctx).
		Preload("Host").
		Preload("Topic").
		First(&room, id).Error
	return room, translate(err)
}

func (r *GormRoomRepo) UpdateRoom(ctx context.Context, room *models.Room) error {
	res := r.db.WithContext(ctx).
		Model(&models.Room{ID: room.ID}).
		Updates(map[string]any{
			"name":        room.Name,
			"description": room.Description,
			"topic_id":    room.TopicID,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteRoom はルームとそのメッセージ・参加者の紐付けをまとめて削除します
func (r *GormRoomRepo) DeleteRoom(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("room_id = ?", id).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM room_participants WHERE room_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Room{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRoomRepo) CountRooms(ctx context.Context, q string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Scopes(matchingRooms(q)).Count(&n).Error
	return n, err
}

func (r *GormRoomRepo) SearchRooms(ctx context.Context, q string, offset, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Select("rooms.*").
		Scopes(matchingRooms(q)).
		Preload("Host").
		Preload("Topic").
		Order(roomOrder).
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

func (r *GormRoomRepo) CountRoomsByHost(ctx context.Context, hostID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Room{}).Where("host_id = ?", hostID).Count(&n).Error
	return n, err
}

func (r *GormRoomRepo) ListRoomsByHost(ctx context.Context, hostID uint, offset, limit int) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Where("host_id = ?", hostID).
		Preload("Host").
		Preload("Topic").
		Order(roomOrder).
		Offset(offset).
		Limit(limit).
		Find(&rooms).Error
	return rooms, err
}

// AddParticipant は参加者を追加します。既に参加済みなら何もしません
func (r *GormRoomRepo) AddParticipant(ctx context.Context, roomID uint, user models.User) error {
	return r.db.WithContext(ctx).Exec(
		"INSERT INTO room_participants (room_id, user_id) VALUES (?, ?) ON CONFLICT DO NOTHING",
		roomID, user.ID,
	).Error
}

func (r *GormRoomRepo) ListParticipants(ctx context.Context, roomID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Joins("JOIN room_participants ON room_participants.user_id = users.id").
		Where("room_participants.room_id = ?", roomID).
		Order("users.id").
		Find(&users).Error
	return users, err
}
