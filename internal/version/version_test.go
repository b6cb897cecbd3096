package version

import "testing"

func TestString(t *testing.T) {
	Version, Commit, BuildTime = "1.2.0", "abc1234", "2026-01-02T03:04:05Z"
	t.Cleanup(func() { Version, Commit, BuildTime = "dev", "unknown", "unknown" })

	if got, want := String(), "easybook-chat 1.2.0 (commit abc1234, built 2026-01-02T03:04:05Z)"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
	if got, want := UserAgent(), "easybook-chat/1.2.0"; got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}
