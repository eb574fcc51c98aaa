package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelRankOrdering(t *testing.T) {
	assert.True(t, LevelRank(LevelCritical) > LevelRank(LevelPriority))
	assert.True(t, LevelRank(LevelPriority) > LevelRank(LevelRoutine))
	assert.True(t, LevelRank(LevelRoutine) > LevelRank("unknown"))
}

func TestProvenanceListTolerantOfEmptyAndMalformed(t *testing.T) {
	a := &Article{}
	assert.Nil(t, a.ProvenanceList())

	a.Provenance = EncodeStringList([]string{"s1", "s2"})
	assert.Equal(t, []string{"s1", "s2"}, a.ProvenanceList())

	a.Provenance = []byte("{broken")
	assert.Nil(t, a.ProvenanceList())
}
