package contentkey

import "testing"

func TestKeyDeterministic(t *testing.T) {
	url := "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if Key(url) != Key(url) {
		t.Fatal("same URL must produce the same key")
	}
}

func TestKeyLength(t *testing.T) {
	key := Key("https://youtu.be/abc123")
	if len(key) != Length {
		t.Fatalf("expected %d chars, got %d (%q)", Length, len(key), key)
	}
	for _, r := range key {
		if !(r >= '0' && r <= '9' || r >= 'a' && r <= 'f') {
			t.Fatalf("key %q contains non-hex rune %q", key, r)
		}
	}
}

func TestDifferentURLsDiffer(t *testing.T) {
	a := Key("https://www.youtube.com/watch?v=aaaa")
	b := Key("https://www.youtube.com/watch?v=bbbb")
	if a == b {
		t.Fatalf("distinct URLs produced identical key %q", a)
	}
}

func TestKeyIsByteSensitive(t *testing.T) {
	// Trailing slash is a different byte sequence, so a different key.
	if Key("https://youtu.be/x") == Key("https://youtu.be/x/") {
		t.Fatal("keys should differ for different URL bytes")
	}
}
