package xid

import (
	"fmt"

	"github.com/google/uuid"
)

// New returns prefix-<uuid>. Version 7 ids sort by creation time, which keeps
// ledger and audit listings stable when timestamps collide.
//
// New panics if the system random source fails, as uuid.New does. There is no
// unordered fallback.
func New(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.Must(uuid.NewV7()).String())
}
