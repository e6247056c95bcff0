package repo

import (
	"context"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormUserRepo struct{ db *gorm.DB }

func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) CreateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error)
}

func (r *GormUserRepo) GetUser(ctx context.Context, id uint) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	return u, translate(err)
}

func (r *GormUserRepo) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	return u, translate(err)
}

func (r *GormUserRepo) ExistsUsername(ctx context.Context, username string, exceptID uint) (bool, error) {
	return r.exists(ctx, "LOWER(username) = LOWER(?)", username, exceptID)
}

func (r *GormUserRepo) ExistsEmail(ctx context.Context, email string, exceptID uint) (bool, error) {
	return r.exists(ctx, "LOWER(email) = LOWER(?)", email, exceptID)
}

func (r *GormUserRepo) exists(ctx context.Context, cond, value string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&models.User{}).Where(cond, value)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormUserRepo) UpdateUser(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error)
}
