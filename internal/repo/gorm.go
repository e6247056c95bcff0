package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenSQLite はSQLiteに接続しスキーマをマイグレーションします
func OpenSQLite(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// SQLiteは書き込みが直列なので接続を1本に絞る（:memory: でも同じDBを共有できる）
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// likeEscape はLIKEの特殊文字をエスケープします
const likeEscape = `\`

// likePattern は部分一致用のパターンを作ります
// 大文字小文字の同一視はSQLiteのLIKEに任せ、検索語とカラムで同じ規則を使います
func likePattern(q string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return "%" + r.Replace(q) + "%"
}

// ilike はSQLiteのLIKE（ASCIIは大文字小文字を区別しない）の条件式を返します
func ilike(column string) string {
	return column + " LIKE ? ESCAPE '" + likeEscape + "'"
}

// translate はgormのエラーをリポジトリのエラーに変換します
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
