package crypto

import (
	"strings"
	"testing"
)

// Requirement: Hash produces a self-describing argon2id string that Verify
// accepts for the original password and rejects otherwise.
func TestArgon2HashAndVerify(t *testing.T) {
	hasher := NewArgon2()

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash format = %q", hash)
	}

	ok, err := hasher.Verify("correct horse battery staple", hash)
	if err != nil || !ok {
		t.Errorf("Verify(match) = %v, %v", ok, err)
	}
	ok, err = hasher.Verify("wrong password", hash)
	if err != nil || ok {
		t.Errorf("Verify(mismatch) = %v, %v", ok, err)
	}
}

// Requirement: the same password never produces the same encoded hash twice
// (per-hash random salt).
func TestArgon2HashIsSalted(t *testing.T) {
	hasher := NewArgon2()

	first, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := hasher.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Error("two hashes of the same password are identical")
	}

	// Both still verify.
	for _, h := range []string{first, second} {
		if ok, err := hasher.Verify("secret", h); err != nil || !ok {
			t.Errorf("Verify = %v, %v", ok, err)
		}
	}
}

// Requirement: Verify honors the parameters encoded in the hash, not the
// receiver's, so parameter upgrades keep old hashes valid.
func TestArgon2VerifyUsesEncodedParams(t *testing.T) {
	old := &Argon2{Memory: 32 * 1024, Iterations: 2, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	hash, err := old.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	upgraded := NewArgon2()
	ok, err := upgraded.Verify("secret", hash)
	if err != nil || !ok {
		t.Errorf("Verify with upgraded params = %v, %v", ok, err)
	}
}

// Requirement: malformed or foreign hash strings are errors, not mismatches.
func TestArgon2VerifyRejectsMalformedHashes(t *testing.T) {
	hasher := NewArgon2()
	for _, hash := range []string{
		"",
		"not-a-hash",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA", // wrong variant
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",   // bad salt encoding
	} {
		if _, err := hasher.Verify("secret", hash); err == nil {
			t.Errorf("hash %q accepted, want error", hash)
		}
	}
}
