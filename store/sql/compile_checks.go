package sqlstore

import "github.com/goliatone/go-custody/core"

var (
	_ core.SnapshotStore = (*SnapshotStore)(nil)
	_ core.SnapshotStore = (*CachedSnapshotStore)(nil)
)
