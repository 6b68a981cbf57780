package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaScopesRowsToOwner(t *testing.T) {
	assert.Contains(t, Schema, "create table if not exists ideas")
	assert.Contains(t, Schema, "enable row level security")
	assert.Contains(t, Schema, "with check (auth.uid() = user_id)")
	assert.Contains(t, Schema, "using (auth.uid() = user_id)")
}
