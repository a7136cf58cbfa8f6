package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher はパスワードハッシュ化の最小インターフェース。
// 将来argon2等へ差し替えられるように抽象化しておく。
type PasswordHasher interface {
	// Hash はパスワードをソルト付きスローハッシュに変換する。
	Hash(password string) (string, error)
	// Verify はハッシュとパスワードの一致を検証する。
	Verify(hash, password string) bool
}

// BcryptHasher はbcryptによるPasswordHasher実装。
type BcryptHasher struct {
	Cost int // 0の場合はbcrypt.DefaultCost
}

// Hash はパスワードをbcryptハッシュに変換する。
func (b BcryptHasher) Hash(password string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Verify はハッシュとパスワードの一致を検証する。
func (b BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// compile-time interface check
var _ PasswordHasher = BcryptHasher{}
