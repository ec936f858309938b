// Package all registers every storage backend with the factory. Importing it
// for side effects is enough to make storage.Open work for any supported DSN.
package all

import (
	_ "github.com/fidoriel/rebrickable-sqlite-orm/internal/storage/postgres"
	_ "github.com/fidoriel/rebrickable-sqlite-orm/internal/storage/sqlite"
)
