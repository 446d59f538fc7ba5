package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_Deterministic(t *testing.T) {
	a := Hash("en-US-natalie", "-15", "-5", "hello")
	b := Hash("en-US-natalie", "-15", "-5", "hello")

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}

func TestHash_SensitiveToEveryPart(t *testing.T) {
	base := Hash("voice", "-15", "-5", "hello")

	assert.NotEqual(t, base, Hash("other", "-15", "-5", "hello"))
	assert.NotEqual(t, base, Hash("voice", "0", "-5", "hello"))
	assert.NotEqual(t, base, Hash("voice", "-15", "0", "hello"))
	assert.NotEqual(t, base, Hash("voice", "-15", "-5", "goodbye"))
}

func TestHash_PartBoundariesMatter(t *testing.T) {
	assert.NotEqual(t, Hash("ab", "c"), Hash("a", "bc"))
}
