package security_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/labledger/labledger-backend/pkg/config"
	"github.com/labledger/labledger-backend/pkg/security"
)

func testParams() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := security.HashPassword("lab-office-secret", testParams())
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Fatalf("unexpected hash encoding %q", hash)
	}

	ok, err := security.VerifyPassword("lab-office-secret", hash)
	if err != nil || !ok {
		t.Fatalf("VerifyPassword(correct) = %v, %v", ok, err)
	}

	ok, err = security.VerifyPassword("Lab-office-secret", hash)
	if err != nil || ok {
		t.Fatalf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
}

func TestHashPasswordSaltsEachHash(t *testing.T) {
	a, err := security.HashPassword("same", testParams())
	if err != nil {
		t.Fatal(err)
	}
	b, err := security.HashPassword("same", testParams())
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("expected distinct salts")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := security.HashPassword("", testParams()); err == nil {
		t.Fatal("expected error for empty password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	for _, encoded := range []string{
		"not-a-hash",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=16$m=1024,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=1024,t=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=0,t=1,p=1$c2FsdHNhbHQ$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$a2V5",
	} {
		if _, err := security.VerifyPassword("irrelevant", encoded); !errors.Is(err, security.ErrInvalidHash) {
			t.Fatalf("expected ErrInvalidHash for %q, got %v", encoded, err)
		}
	}
}
