package repository

import (
	"testing"

	"artemis/internal/domain/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

// Key formats are shared state with every component reading the cache;
// they must stay bit-exact.
func TestKeyFormats(t *testing.T) {
	id := uuid.MustParse("b7f9a1f2-3c4d-4e5f-8a9b-0c1d2e3f4a5b")

	assert.Equal(t,
		"artemis:token:0123abcd",
		TokenKey("artemis:token", "0123abcd"),
	)

	assert.Equal(t,
		"artemis:umap:Web:b7f9a1f2-3c4d-4e5f-8a9b-0c1d2e3f4a5b",
		UserMapKey("artemis:umap", models.EndTypeWeb, id),
	)
}
