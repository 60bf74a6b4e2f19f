package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONListValue(t *testing.T) {
	t.Parallel()

	v, err := JSONList[string](nil).Value()
	require.NoError(t, err)
	assert.Equal(t, "[]", v)

	v, err = JSONList[int]{1, 3, 5}.Value()
	require.NoError(t, err)
	assert.Equal(t, "[1,3,5]", v)
}

func TestJSONListScan(t *testing.T) {
	t.Parallel()

	var tags JSONList[string]
	require.NoError(t, tags.Scan([]byte(`["lab","2024"]`)))
	assert.Equal(t, JSONList[string]{"lab", "2024"}, tags)

	var days JSONList[int]
	require.NoError(t, days.Scan(nil))
	assert.Empty(t, days)
	assert.NotNil(t, days)

	assert.Error(t, days.Scan(42))
	assert.Error(t, days.Scan("{not json"))
}
