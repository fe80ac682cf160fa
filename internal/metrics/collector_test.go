package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecord(t *testing.T) {
	c := NewCollector()

	c.Record(OpFetchPage, 10*time.Millisecond, 25)
	c.Record(OpFetchPage, 30*time.Millisecond, 25)
	c.RecordError(OpFetchPage)

	snap := c.Snapshot()
	require.NotNil(t, snap.FetchPage)
	assert.Equal(t, int64(2), snap.FetchPage.Count)
	assert.Equal(t, int64(1), snap.FetchPage.Errors)
	assert.Equal(t, int64(50), snap.FetchPage.TotalItems)
	assert.Equal(t, int64(10), snap.FetchPage.MinTimeMs)
	assert.Equal(t, int64(30), snap.FetchPage.MaxTimeMs)
	assert.Equal(t, 20.0, snap.FetchPage.AvgTimeMs)

	assert.Nil(t, snap.Score, "untouched operations stay nil")
}

func TestCollectorErrorOnly(t *testing.T) {
	c := NewCollector()
	c.RecordError(OpScore)

	snap := c.Snapshot()
	require.NotNil(t, snap.Score)
	assert.Equal(t, int64(0), snap.Score.Count)
	assert.Equal(t, int64(1), snap.Score.Errors)
	assert.Equal(t, int64(0), snap.Score.MinTimeMs)
}
