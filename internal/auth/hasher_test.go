package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

// TestBcryptHasher_HashAndVerify はハッシュ化と照合の往復を確認する。
func TestBcryptHasher_HashAndVerify(t *testing.T) {
	// テストでは最小コストで実行時間を抑える
	h := BcryptHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("pass1234")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hash == "pass1234" {
		t.Error("hash must not equal the plaintext password")
	}

	if !h.Verify(hash, "pass1234") {
		t.Error("correct password should verify")
	}
	if h.Verify(hash, "wrong-password") {
		t.Error("wrong password must not verify")
	}
}

// TestBcryptHasher_VerifyInvalidHash は不正なハッシュ文字列での照合失敗を確認する。
func TestBcryptHasher_VerifyInvalidHash(t *testing.T) {
	h := BcryptHasher{}
	if h.Verify("not-a-bcrypt-hash", "pass1234") {
		t.Error("invalid hash must not verify")
	}
}
