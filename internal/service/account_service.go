package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PyWorldGeo/chatroomproject2/internal/idgen"
	"github.com/PyWorldGeo/chatroomproject2/internal/models"
	"github.com/PyWorldGeo/chatroomproject2/internal/repo"
)

// PasswordHasher はパスワードのハッシュ化と照合を行います
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AccountService はユーザー登録・認証・プロフィール更新を提供します
type AccountService struct {
	users   repo.UserRepo
	avatars repo.AvatarRepo
	hasher  PasswordHasher
}

// NewAccountService は新しいAccountServiceを作成します
func NewAccountService(users repo.UserRepo, avatars repo.AvatarRepo, hasher PasswordHasher) *AccountService {
	return &AccountService{users: users, avatars: avatars, hasher: hasher}
}

// RegisterInput は登録フォームの値です
type RegisterInput struct {
	Name     string
	Username string
	Email    string
	Password string
}

// Register はユーザー名を小文字に正規化してユーザーを作成します
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	username := strings.ToLower(in.Username)
	if err := s.checkUnique(ctx, username, in.Email, 0); err != nil {
		return models.User{}, err
	}
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Username:     username,
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		// 事前チェックと作成の間に同名ユーザーが作られた場合
		if errors.Is(err, repo.ErrDuplicate) {
			return models.User{}, s.duplicateError(ctx, username, in.Email, 0)
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// UserExists はユーザー名が完全一致するユーザーがいるかを返します
func (s *AccountService) UserExists(ctx context.Context, username string) (bool, error) {
	_, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get user: %w", err)
	}
	return true, nil
}

// Authenticate はユーザー名とパスワードを照合します
// ユーザーが存在しない場合もパスワード不一致と同じErrInvalidCredentialsを返します
func (s *AccountService) Authenticate(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// User はIDでユーザーを取得します（セッションの復元用）
func (s *AccountService) User(ctx context.Context, id uint) (models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ProfileInput はユーザー情報更新フォームの値です
type ProfileInput struct {
	Name     string
	Username string
	Email    string
	Bio      string
	Avatar   *models.Avatar // nilなら変更しない
}

// UpdateProfile はログイン中のユーザー自身の情報を更新します
func (s *AccountService) UpdateProfile(ctx context.Context, me *models.User, in ProfileInput) (models.User, error) {
	if err := s.checkUnique(ctx, in.Username, in.Email, me.ID); err != nil {
		return models.User{}, err
	}
	user := *me
	user.Name = in.Name
	user.Username = in.Username
	user.Email = in.Email
	user.Bio = in.Bio

	if in.Avatar != nil {
		if err := s.avatars.SaveAvatar(ctx, user.ID, *in.Avatar); err != nil {
			return models.User{}, fmt.Errorf("save avatar: %w", err)
		}
		// 画像が変わるたびにURLを変えてブラウザキャッシュを無効にする
		user.Avatar = fmt.Sprintf("/avatars/%d?v=%s", user.ID, idgen.NewULID())
	}

	if err := s.users.UpdateUser(ctx, &user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return models.User{}, s.duplicateError(ctx, in.Username, in.Email, me.ID)
		}
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Avatar はユーザーのアバター画像を返します
func (s *AccountService) Avatar(ctx context.Context, userID uint) (models.Avatar, bool, error) {
	return s.avatars.GetAvatar(ctx, userID)
}

// duplicateError は一意制約違反がどちらのカラムで起きたかを調べ直します
// 判別できなければユーザー名の重複として扱います
func (s *AccountService) duplicateError(ctx context.Context, username, email string, exceptID uint) error {
	if err := s.checkUnique(ctx, username, email, exceptID); err != nil {
		return err
	}
	return ErrUsernameTaken
}

func (s *AccountService) checkUnique(ctx context.Context, username, email string, exceptID uint) error {
	taken, err := s.users.ExistsUsername(ctx, username, exceptID)
	if err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return ErrUsernameTaken
	}
	taken, err = s.users.ExistsEmail(ctx, email, exceptID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return ErrEmailTaken
	}
	return nil
}
