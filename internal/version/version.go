// In file: internal/version/version.go

// Package version centralizes the versioning for different logical components of the agent.
//
// Version strings are embedded in persisted keys. Bumping a component's version
// moves new writes to a fresh namespace, so records written by older logic are
// never read back by newer logic.
package version

import "fmt"

// ComponentVersions holds the version strings for different logical parts of the application.
// Manually increment a version number here before you deploy a change to that component.
var ComponentVersions = struct {
	// Tools should be updated whenever the weather tools change their
	// arguments or the shape of their output.
	Tools string

	// History should be updated whenever the stored message format changes.
	History string

	// PromptLogic should be updated whenever the system prompt or the
	// message layout sent to the model changes.
	PromptLogic string
}{
	Tools:       "v1.0",
	History:     "v1.0",
	PromptLogic: "v1.0",
}

// HistoryKey builds the namespaced key for one session's log.
//
// Example output: "chat-history:v1.0:user-1:3f2a..."
func HistoryKey(collection, userID, sessionID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", collection, ComponentVersions.History, userID, sessionID)
}

// Summary renders all component versions in a compact form for status output.
//
// Example output: "tv1.0_hv1.0_pv1.0"
func Summary() string {
	return fmt.Sprintf("t%s_h%s_p%s",
		ComponentVersions.Tools,
		ComponentVersions.History,
		ComponentVersions.PromptLogic,
	)
}
