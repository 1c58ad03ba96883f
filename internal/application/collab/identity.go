package collab

import (
	"fmt"
	"hash/fnv"

	"github.com/google/uuid"
)

// colorPalette holds the cursor colors assigned to operator sessions.
// Assignment is a stable hash of the user ID so a reconnecting operator
// keeps their color.
var colorPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8",
	"#f58231", "#911eb4", "#46f0f0", "#f032e6",
}

// Identity is one operator session at the grid.
type Identity struct {
	UserID      string
	DisplayName string
	ColorTag    string
}

// NewIdentity creates a session identity. A blank display name gets a
// short anonymous handle derived from the session ID.
func NewIdentity(displayName string) Identity {
	userID := uuid.NewString()
	if displayName == "" {
		displayName = fmt.Sprintf("operator-%s", userID[:8])
	}
	return Identity{
		UserID:      userID,
		DisplayName: displayName,
		ColorTag:    colorFor(userID),
	}
}

func colorFor(userID string) string {
	h := fnv.New32a()
	h.Write([]byte(userID))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}
