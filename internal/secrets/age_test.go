package secrets

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateIdentityIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".age-key")

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read key: %v", err)
	}

	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("second GenerateIdentity: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read key: %v", err)
	}

	if string(first) != string(second) {
		t.Error("existing key must not be overwritten")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("key permissions: got %o, want 600", info.Mode().Perm())
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".age-key")
	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	id, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}

	blob, err := Encrypt("sk-very-secret", id.Recipient())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !IsEncrypted(blob) {
		t.Fatalf("blob not recognized: %q", blob)
	}

	plain, err := Decrypt(blob, id)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if plain != "sk-very-secret" {
		t.Errorf("got %q", plain)
	}
}

func TestIsEncrypted(t *testing.T) {
	if IsEncrypted("sk-plaintext") {
		t.Error("plain value misdetected")
	}
	if !IsEncrypted("ENC[age:abc]") {
		t.Error("blob not detected")
	}
}

func TestDecryptRejectsPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".age-key")
	if err := GenerateIdentity(path); err != nil {
		t.Fatalf("GenerateIdentity: %v", err)
	}
	id, err := LoadIdentity(path)
	if err != nil {
		t.Fatalf("LoadIdentity: %v", err)
	}

	if _, err := Decrypt("not-a-blob", id); err == nil {
		t.Fatal("expected error for non-blob input")
	}
}
