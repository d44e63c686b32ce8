package gen

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSnowflakeNodeGeneratesUniqueIDs(t *testing.T) {
	node, err := NewSnowflakeNode(1)
	require.NoError(t, err)

	seen := make(map[int64]struct{})
	for i := 0; i < 1000; i++ {
		id := node.GenerateID().Int64()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}

	_, err = NewSnowflakeNode(1 << 20)
	require.Error(t, err)
}
