package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiffOf(t *testing.T) {
	type row struct {
		Amount string `json:"amount"`
		Detail string `json:"detail"`
		Note   string `json:"note,omitempty"`
	}

	changes, err := DiffOf(
		row{Amount: "-50", Detail: "TAX", Note: "q1"},
		row{Amount: "-80", Detail: "TAX"},
	)
	require.NoError(t, err)

	assert.Len(t, changes, 2)
	assert.Equal(t, map[string]any{"old": "-50", "new": "-80"}, changes["amount"])
	assert.Equal(t, map[string]any{"old": "q1", "new": nil}, changes["note"])
	assert.NotContains(t, changes, "detail")
}
