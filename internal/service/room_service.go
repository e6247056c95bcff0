// Package service はビジネスロジックを担当します
// ルームの検索・作成・更新・削除、メッセージ投稿、プロフィール、アカウント管理を提供します
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/PyWorldGeo/chatroomproject2/internal/mail"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
)

// ホーム画面に表示するトピック数とメッセージ数
const (
	homeTopicLimit   = 3
	homeMessageLimit = 3
)

// MessageEvents はメッセージの作成・削除を購読者に通知します
type MessageEvents interface {
	MessageCreated(msg models.Message)
	MessageDeleted(msg models.Message)
}

type noopEvents struct{}

func (noopEvents) MessageCreated(models.Message) {}
func (noopEvents) MessageDeleted(models.Message) {}

// ForumService はルーム・トピック・メッセージ・プロフィールのビジネスロジックを提供します
type ForumService struct {
	users    repo.UserRepo
	topics   repo.TopicRepo
	rooms    repo.RoomRepo
	messages repo.MessageRepo
	mailer   mail.Mailer
	mailFrom string // 連絡メールの送信元アドレス
	events   MessageEvents
}

// Repos はForumServiceが使うリポジトリ一式です
type Repos struct {
	Users    repo.UserRepo
	Topics   repo.TopicRepo
	Rooms    repo.RoomRepo
	Messages repo.MessageRepo
}

// NewForumService は新しいForumServiceを作成します
func NewForumService(r Repos, mailer mail.Mailer, mailFrom string) *ForumService {
	return &ForumService{
		users:    r.Users,
		topics:   r.Topics,
		rooms:    r.Rooms,
		messages: r.Messages,
		mailer:   mailer,
		mailFrom: mailFrom,
		events:   noopEvents{},
	}
}

// SetEvents はメッセージイベントの通知先を設定します
func (s *ForumService) SetEvents(e MessageEvents) {
	if e == nil {
		e = noopEvents{}
	}
	s.events = e
}

// RoomInput はルーム作成・更新フォームの値です
type RoomInput struct {
	Topic       string
	Name        string
	Description string
}

// HomeView はホーム画面の表示内容です
type HomeView struct {
	Query     string
	Rooms     Page[models.Room]
	Topics    []models.Topic
	RoomCount int64
	Messages  []models.Message
}

// Home はqに一致するルームを検索し、ホーム画面の内容をまとめて返します
func (s *ForumService) Home(ctx context.Context, q, page string) (HomeView, error) {
	count, err := s.rooms.CountRooms(ctx, q)
	if err != nil {
		return HomeView{}, fmt.Errorf("count rooms: %w", err)
	}
	p := resolvePage[models.Room](page, count)
	if p.Items, err = s.rooms.SearchRooms(ctx, q, p.Offset(), PageSize); err != nil {
		return HomeView{}, fmt.Errorf("search rooms: %w", err)
	}
	topics, err := s.topics.ListTopics(ctx, homeTopicLimit)
	if err != nil {
		return HomeView{}, fmt.Errorf("list topics: %w", err)
	}
	msgs, err := s.messages.ListMessagesByTopic(ctx, q, homeMessageLimit)
	if err != nil {
		return HomeView{}, fmt.Errorf("list messages: %w", err)
	}
	return HomeView{Query: q, Rooms: p, Topics: topics, RoomCount: count, Messages: msgs}, nil
}

// RoomView はルーム詳細画面の表示内容です
type RoomView struct {
	Room         models.Room
	Messages     []models.Message // 新しい順
	Participants []models.User
}

// Room はルームとそのメッセージ・参加者を返します
func (s *ForumService) Room(ctx context.Context, id uint) (RoomView, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return RoomView{}, err
	}
	msgs, err := s.messages.ListMessagesByRoom(ctx, id)
	if err != nil {
		return RoomView{}, fmt.Errorf("list messages: %w", err)
	}
	participants, err := s.rooms.ListParticipants(ctx, id)
	if err != nil {
		return RoomView{}, fmt.Errorf("list participants: %w", err)
	}
	return RoomView{Room: room, Messages: msgs, Participants: participants}, nil
}

// Topics はトピック名にqを含むトピックを返します（ページ分割なし）
func (s *ForumService) Topics(ctx context.Context, q string) ([]models.Topic, error) {
	return s.topics.SearchTopics(ctx, q)
}

// AllTopics はフォームの候補に使う全トピックを返します
func (s *ForumService) AllTopics(ctx context.Context) ([]models.Topic, error) {
	return s.topics.ListTopics(ctx, 0)
}

// CreateRoom はトピックを名前で取得（なければ作成）し、hostをホストとするルームを作成します
func (s *ForumService) CreateRoom(ctx context.Context, host *models.User, in RoomInput) (models.Room, error) {
	topic, _, err := s.topics.GetOrCreateTopic(ctx, in.Topic)
	if err != nil {
		return models.Room{}, fmt.Errorf("get or create topic: %w", err)
	}
	room := models.Room{
		HostID:      &host.ID,
		TopicID:     &topic.ID,
		Topic:       &topic,
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.rooms.CreateRoom(ctx, &room); err != nil {
		return models.Room{}, fmt.Errorf("create room: %w", err)
	}
	return room, nil
}

// RoomForHost はホスト本人であればルームを返します（編集・削除画面用）
func (s *ForumService) RoomForHost(ctx context.Context, id uint, me *models.User) (models.Room, error) {
	room, err := s.getRoom(ctx, id)
	if err != nil {
		return models.Room{}, err
	}
	if !room.IsHostedBy(me) {
		return models.Room{}, ErrNotRoomHost
	}
	return room, nil
}

// UpdateRoom はホストのみがルームの名前・トピック・説明を変更できます
func (s *ForumService) UpdateRoom(ctx context.Context, id uint, me *models.User, in RoomInput) (models.Room, error) {
	room, err := s.RoomForHost(ctx, id, me)
	if err != nil {
		return models.Room{}, err
	}
	topic, _, err := s.topics.GetOrCreateTopic(ctx, in.Topic)
	if err != nil {
		return models.Room{}, fmt.Errorf("get or create topic: %w", err)
	}
	room.Name = in.Name
	room.Description = in.Description
	room.TopicID = &topic.ID
	room.Topic = &topic
	if err := s.rooms.UpdateRoom(ctx, &room); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return models.Room{}, ErrRoomNotFound
		}
		return models.Room{}, fmt.Errorf("update room: %w", err)
	}
	return room, nil
}

// DeleteRoom はホストのみがルームを削除できます
func (s *ForumService) DeleteRoom(ctx context.Context, id uint, me *models.User) error {
	if _, err := s.RoomForHost(ctx, id, me); err != nil {
		return err
	}
	if err := s.rooms.DeleteRoom(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}

func (s *ForumService) getRoom(ctx context.Context, id uint) (models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.Room{}, ErrRoomNotFound
	}
	if err != nil {
		return models.Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}
