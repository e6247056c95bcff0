// Package models はアプリケーションで使用するデータ構造を定義します
package models

import "time"

// User はフォーラムの利用者を表します
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:150;uniqueIndex;not null" json:"username"` // ログイン名（登録時に小文字化）
	Name         string    `gorm:"size:200" json:"name"`                          // 表示名
	Email        string    `gorm:"size:254;uniqueIndex;not null" json:"email"`    // 連絡先メールアドレス
	PasswordHash string    `gorm:"not null" json:"-"`                             // bcryptハッシュ
	Bio          string    `gorm:"type:text" json:"bio"`                          // 自己紹介
	Avatar       string    `gorm:"size:255" json:"avatar,omitempty"`              // アバター画像のURL（空ならデフォルト画像）
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// DisplayName は表示名が未設定の場合にユーザー名を返します
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}

// Topic はルームを分類するラベルです
type Topic struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Room はトピックに紐づく議論スレッドです
// ホスト（作成者）のみが更新・削除できます
type Room struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	HostID       *uint     `gorm:"index" json:"hostId"`
	Host         *User     `json:"host,omitempty"`
	TopicID      *uint     `gorm:"index" json:"topicId"`
	Topic        *Topic    `json:"topic,omitempty"`
	Name         string    `gorm:"size:200;not null" json:"name"`
	Description  string    `gorm:"type:text" json:"description"`
	Participants []User    `gorm:"many2many:room_participants" json:"participants,omitempty"` // 投稿したことのあるユーザー
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsHostedBy はユーザーがルームのホストかどうかを返します
func (r *Room) IsHostedBy(u *User) bool {
	return u != nil && r.HostID != nil && *r.HostID == u.ID
}

// TopicName はトピック名を返します（未設定なら空文字）
func (r *Room) TopicName() string {
	if r.Topic == nil {
		return ""
	}
	return r.Topic.Name
}

// Message はルームへの投稿です
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"userId"`
	User      User      `json:"user"`
	RoomID    uint      `gorm:"index;not null" json:"roomId"`
	Room      Room      `json:"room"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAuthoredBy はユーザーが投稿者かどうかを返します
func (m *Message) IsAuthoredBy(u *User) bool {
	return u != nil && m.UserID == u.ID
}

// Avatar はアップロードされたアバター画像です
type Avatar struct {
	Data        []byte
	ContentType string
}

// Session はログイン中のユーザーのセッションを表します
type Session struct {
	ID        string    `json:"id"`
	UserID    uint      `json:"userId"`
	CreatedAt int64     `json:"createdAt"` // 作成日時（Unixタイムスタンプ）
	ExpiresAt time.Time `json:"expiresAt"`
}

// All はgormのマイグレーション対象のモデル一覧です
func All() []any {
	return []any{&User{}, &Topic{}, &Room{}, &Message{}}
}
