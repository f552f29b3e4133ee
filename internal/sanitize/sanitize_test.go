package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkloom/loom/internal/core/model"
)

func TestName_Basic(t *testing.T) {
	got, err := Name("  Douglas Adams  ")
	require.NoError(t, err)
	assert.Equal(t, "Douglas Adams", got)
}

func TestName_Escaping(t *testing.T) {
	// Backslash first, so an input backslash never double-escapes the
	// quote that follows it.
	got, err := Name(`back\slash "quote" 'single'`)
	require.NoError(t, err)
	assert.Equal(t, `back\\slash \"quote\" \'single\'`, got)

	got, err = Name("line\nbreak\ttab\rret")
	require.NoError(t, err)
	assert.Equal(t, `line\nbreak\ttab\rret`, got)
}

func TestName_Rejects(t *testing.T) {
	_, err := Name("")
	assert.Error(t, err)

	_, err = Name("   ")
	assert.Error(t, err)

	_, err = Name(strings.Repeat("a", MaxNameLength+1))
	assert.Error(t, err)

	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestName_LengthCountsRunes(t *testing.T) {
	// Multi-byte names are measured in characters, not bytes: 200 "é"
	// runes is 400 bytes but still within the limit.
	got, err := Name(strings.Repeat("é", MaxNameLength))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("é", MaxNameLength), got)

	_, err = Name(strings.Repeat("é", MaxNameLength+1))
	assert.Error(t, err)
}

func TestID(t *testing.T) {
	got, err := ID("q42")
	require.NoError(t, err)
	assert.Equal(t, "Q42", got)

	got, err = ID("  Q12345  ")
	require.NoError(t, err)
	assert.Equal(t, "Q12345", got)

	for _, bad := range []string{"42", "QABC", "Q", "Q42X", ""} {
		_, err := ID(bad)
		assert.Error(t, err, "expected rejection of %q", bad)
	}
}

func TestIsValidID(t *testing.T) {
	assert.True(t, IsValidID("Q1"))
	assert.True(t, IsValidID("Q9999999"))
	assert.False(t, IsValidID("q42")) // not normalized
	assert.False(t, IsValidID("P31"))
	assert.False(t, IsValidID(""))
}

func TestDepth(t *testing.T) {
	for _, ok := range []int{1, 5, 10} {
		got, err := Depth(ok)
		require.NoError(t, err)
		assert.Equal(t, ok, got)
	}
	for _, bad := range []int{0, -1, 11, 100} {
		_, err := Depth(bad)
		assert.Error(t, err, "expected rejection of depth %d", bad)
	}
}

func TestEntityList_Dedup(t *testing.T) {
	got, err := EntityList([]string{" Ada ", "Ada", "Grace", "Ada", "Grace "}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ada", "Grace"}, got)
}

func TestEntityList_Rejects(t *testing.T) {
	_, err := EntityList(nil, 10)
	assert.Error(t, err)

	_, err = EntityList(make([]string, 11), 10)
	assert.Error(t, err)

	// Whitespace-only entries dedup to nothing.
	_, err = EntityList([]string{"", "  "}, 10)
	assert.Error(t, err)
}
