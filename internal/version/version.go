// Package version reports build information for easybook-chat.
//
// Set at link time:
//
//	go build -ldflags "-X github.com/rickgao/easybook-chat/internal/version.Version=1.2.0 \
//	                   -X github.com/rickgao/easybook-chat/internal/version.Commit=$(git rev-parse --short HEAD) \
//	                   -X github.com/rickgao/easybook-chat/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
package version

import "fmt"

// Name is the program name used in version output and the User-Agent.
const Name = "easybook-chat"

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// String returns the one-line version shown by the version command.
func String() string {
	return fmt.Sprintf("%s %s (commit %s, built %s)", Name, Version, Commit, BuildTime)
}

// UserAgent is sent with the WebSocket handshake.
func UserAgent() string {
	return Name + "/" + Version
}
