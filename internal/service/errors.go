package service

import "errors"

// カスタムエラー定義
var (
	ErrRoomNotFound       = errors.New("room not found")
	ErrMessageNotFound    = errors.New("message not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrNotRoomHost        = errors.New("forbidden: not room host")
	ErrNotMessageAuthor   = errors.New("forbidden: not message author")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrEmptyMessage       = errors.New("message body is empty")
)
