package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
)

// PostMessage はルームにメッセージを投稿し、投稿者を参加者に加えます
func (s *ForumService) PostMessage(ctx context.Context, roomID uint, author *models.User, body string) (models.Message, error) {
	room, err := s.getRoom(ctx, roomID)
	if err != nil {
		return models.Message{}, err
	}
	if strings.TrimSpace(body) == "" {
		return models.Message{}, ErrEmptyMessage
	}

	msg := models.Message{UserID: author.ID, RoomID: room.ID, Body: body}
	if err := s.messages.CreateMessage(ctx, &msg); err != nil {
		return models.Message{}, fmt.Errorf("create message: %w", err)
	}
	// 参加済みなら何もしない
	if err := s.rooms.AddParticipant(ctx, room.ID, *author); err != nil {
		return models.Message{}, fmt.Errorf("add participant: %w", err)
	}

	msg.User = *author
	msg.Room = room
	s.events.MessageCreated(msg)
	return msg, nil
}

// MessageForAuthor は投稿者本人であればメッセージを返します（削除確認画面用）
func (s *ForumService) MessageForAuthor(ctx context.Context, id uint, me *models.User) (models.Message, error) {
	msg, err := s.messages.GetMessage(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Message{}, ErrMessageNotFound
	}
	if err != nil {
		return models.Message{}, fmt.Errorf("get message: %w", err)
	}
	if !msg.IsAuthoredBy(me) {
		return models.Message{}, ErrNotMessageAuthor
	}
	return msg, nil
}

// DeleteMessage は投稿者のみがメッセージを削除できます
func (s *ForumService) DeleteMessage(ctx context.Context, id uint, me *models.User) error {
	msg, err := s.MessageForAuthor(ctx, id, me)
	if err != nil {
		return err
	}
	if err := s.messages.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrMessageNotFound
		}
		return fmt.Errorf("delete message: %w", err)
	}
	s.events.MessageDeleted(msg)
	return nil
}

// Activity は全メッセージを新しい順に返します
func (s *ForumService) Activity(ctx context.Context) ([]models.Message, error) {
	return s.messages.ListAllMessages(ctx)
}
