package repo

import (
	"context"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormMessageRepo struct{ db *gorm.DB }

func NewGormMessageRepo(db *gorm.DB) *GormMessageRepo {
	return &GormMessageRepo{db: db}
}

const messageOrder = "messages.created_at DESC, messages.id DESC"

// withAuthorAndRoom は表示に必要な投稿者とルーム（トピック込み）を読み込みます
func withAuthorAndRoom(db *gorm.DB) *gorm.DB {
	return db.Preload("User").Preload("Room").Preload("Room.Topic")
}

func (r *GormMessageRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(msg).Error)
}

func (r *GormMessageRepo) GetMessage(ctx context.Context, id uint) (models.Message, error) {
	var m models.Message
	err := r.db.WithContext(ctx).Scopes(withAuthorAndRoom).First(&m, id).Error
	return m, translate(err)
}

func (r *GormMessageRepo) DeleteMessage(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormMessageRepo) ListMessagesByRoom(ctx context.Context, roomID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Order(messageOrder).
		Find(&msgs).Error
	return msgs, err
}

func (r *GormMessageRepo) ListMessagesByUser(ctx context.Context, userID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Scopes(withAuthorAndRoom).
		Where("user_id = ?", userID).
		Order(messageOrder).
		Find(&msgs).Error
	return msgs, err
}

func (r *GormMessageRepo) ListMessagesByTopic(ctx context.Context, q string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Select("messages.*").
		Joins("JOIN rooms ON rooms.id = messages.room_id").
		Joins("JOIN topics ON topics.id = rooms.topic_id").
		Where(ilike("topics.name"), likePattern(q)).
		Scopes(withAuthorAndRoom).
		Order(messageOrder).
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}

func (r *GormMessageRepo) ListAllMessages(ctx context.Context) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.WithContext(ctx).
		Scopes(withAuthorAndRoom).
		Order(messageOrder).
		Find(&msgs).Error
	return msgs, err
}
