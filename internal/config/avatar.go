package config

// AvatarConfig はアバター画像アップロードの設定
type AvatarConfig struct {
	MaxBytes     int64    `koanf:"max_bytes"`     // アップロード上限（バイト）
	AllowedTypes []string `koanf:"allowed_types"` // 許可するContent-Type
}

func defaultAvatarConfig() AvatarConfig {
	return AvatarConfig{
		MaxBytes:     2 << 20, // 2MB
		AllowedTypes: []string{"image/png", "image/jpeg", "image/gif", "image/webp"},
	}
}

// Allows はContent-Typeが許可されているかを返します
func (c AvatarConfig) Allows(contentType string) bool {
	for _, t := range c.AllowedTypes {
		if t == contentType {
			return true
		}
	}
	return false
}
