package mediaid_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"media-server/utils/mediaid"
)

func TestNewProducesValidPrefixedID(t *testing.T) {
	id := mediaid.New()
	assert.True(t, strings.HasPrefix(id, "med_"))
	assert.Len(t, id, len("med_")+26)
	assert.Equal(t, strings.ToLower(id), id)
	assert.True(t, mediaid.IsValid(id))
}

func TestNewIsUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := mediaid.New()
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestIsValidRejectsMalformedValues(t *testing.T) {
	for _, value := range []string{
		"",
		"med_",
		"med_not-a-ulid",
		"usr_01h455vb4pex5vsknk084sn02q",
		"01h455vb4pex5vsknk084sn02q",
		"med_01h455vb4pex5vsknk084sn02", // one character short
	} {
		assert.False(t, mediaid.IsValid(value), value)
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := mediaid.New()
	parsed, err := mediaid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "med_"+strings.ToLower(parsed.String()), id)
}
