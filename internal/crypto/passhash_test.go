package crypto

import (
	"bytes"
	"testing"
)

func TestHashVerifyPassword(t *testing.T) {
	t.Parallel()

	salt, err := RandBytes(16)
	if err != nil {
		t.Fatalf("RandBytes: %v", err)
	}
	if len(salt) != 16 {
		t.Fatalf("salt length %d", len(salt))
	}

	hash := HashPassword([]byte("docuser"), salt)
	if len(hash) == 0 {
		t.Fatalf("empty hash")
	}

	if !VerifyPassword([]byte("docuser"), salt, hash) {
		t.Fatalf("correct password must verify")
	}
	if VerifyPassword([]byte("wrong"), salt, hash) {
		t.Fatalf("wrong password must not verify")
	}

	otherSalt, _ := RandBytes(16)
	if bytes.Equal(hash, HashPassword([]byte("docuser"), otherSalt)) {
		t.Fatalf("different salts must produce different hashes")
	}
}
