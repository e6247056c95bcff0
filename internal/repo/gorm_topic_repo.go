package repo

import (
	"context"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormTopicRepo struct{ db *gorm.DB }

func NewGormTopicRepo(db *gorm.DB) *GormTopicRepo {
	return &GormTopicRepo{db: db}
}

// GetOrCreateTopic は一意制約を利用して同名トピックの同時作成でも1件に収束させます
// 戻り値の bool は新規作成した場合に true
func (r *GormTopicRepo) GetOrCreateTopic(ctx context.Context, name string) (models.Topic, bool, error) {
	db := r.db.WithContext(ctx)

	t := models.Topic{Name: name}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&t)
	if res.Error != nil {
		return models.Topic{}, false, translate(res.Error)
	}
	if res.RowsAffected == 1 {
		return t, true, nil
	}

	var existing models.Topic
	if err := db.Where("name = ?", name).First(&existing).Error; err != nil {
		return models.Topic{}, false, translate(err)
	}
	return existing, false, nil
}

// ListTopics は作成順にトピックを返します（limit <= 0 で全件）
func (r *GormTopicRepo) ListTopics(ctx context.Context, limit int) ([]models.Topic, error) {
	if limit <= 0 {
		limit = -1
	}
	var topics []models.Topic
	err := r.db.WithContext(ctx).Order("id").Limit(limit).Find(&topics).Error
	return topics, err
}

func (r *GormTopicRepo) SearchTopics(ctx context.Context, q string) ([]models.Topic, error) {
	var topics []models.Topic
	err := r.db.WithContext(ctx).
		Where(ilike("name"), likePattern(q)).
		Order("id").
		Find(&topics).Error
	return topics, err
}
