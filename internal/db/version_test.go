package db_test

import (
	"testing"

	"github.com/persistorai/ldpath/internal/db"
)

func TestSchemaVersion(t *testing.T) {
	if got := db.SchemaVersion(); got != 1 {
		t.Errorf("SchemaVersion() = %d, want 1", got)
	}
}
