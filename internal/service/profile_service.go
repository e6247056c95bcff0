package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PyWorldGeo/chatroomproject2/internal/mail"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
)

// ProfileView はプロフィール画面の表示内容です
type ProfileView struct {
	User     models.User
	Rooms    Page[models.Room]
	Messages []models.Message
	Topics   []models.Topic
}

// Profile はユーザーのルーム（ページ分割）と投稿を返します
func (s *ForumService) Profile(ctx context.Context, userID uint, page string) (ProfileView, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return ProfileView{}, err
	}
	count, err := s.rooms.CountRoomsByHost(ctx, userID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("count rooms: %w", err)
	}
	p := resolvePage[models.Room](page, count)
	if p.Items, err = s.rooms.ListRoomsByHost(ctx, userID, p.Offset(), PageSize); err != nil {
		return ProfileView{}, fmt.Errorf("list rooms: %w", err)
	}
	msgs, err := s.messages.ListMessagesByUser(ctx, userID)
	if err != nil {
		return ProfileView{}, fmt.Errorf("list messages: %w", err)
	}
	topics, err := s.topics.ListTopics(ctx, 0)
	if err != nil {
		return ProfileView{}, fmt.Errorf("list topics: %w", err)
	}
	return ProfileView{User: user, Rooms: p, Messages: msgs, Topics: topics}, nil
}

// ContactInput はプロフィールページの連絡フォームの値です
type ContactInput struct {
	Title   string
	Message string
}

// ContactUser はプロフィールの持ち主にメールを送ります
// 本文の末尾に送信者のユーザー名とメールアドレスを付けます。送信エラーはそのまま返します
func (s *ForumService) ContactUser(ctx context.Context, profileID uint, sender *models.User, in ContactInput) error {
	to, err := s.getUser(ctx, profileID)
	if err != nil {
		return err
	}
	msg := mail.Message{
		Subject: in.Title,
		Body:    in.Message + contactFooter(sender),
		From:    s.mailFrom,
		To:      []string{to.Email},
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("send contact mail: %w", err)
	}
	return nil
}

func contactFooter(sender *models.User) string {
	return fmt.Sprintf("\n\nSender: %s\nEmail: %s\n", sender.Username, sender.Email)
}

func (s *ForumService) getUser(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
