// Package auth はパスワードのハッシュ化、Cookieセッション、ログイン必須ガードを提供します
package auth

import "golang.org/x/crypto/bcrypt"

// BcryptHasher はbcryptでパスワードをハッシュ化します
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher はデフォルトコストのBcryptHasherを返します
func NewBcryptHasher() BcryptHasher {
	return BcryptHasher{Cost: bcrypt.DefaultCost}
}

func (h BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h BcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
