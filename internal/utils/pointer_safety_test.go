package utils_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-shop-session/internal/utils"
	"github.com/stretchr/testify/require"
)

func TestValue(t *testing.T) {
	require.Equal(t, "", utils.Value[string](nil))
	require.Equal(t, 3, utils.Value(utils.Ptr(3)))
}

func TestCopy(t *testing.T) {
	require.Nil(t, utils.Copy[time.Time](nil))

	original := utils.Ptr(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	copied := utils.Copy(original)
	require.NotSame(t, original, copied)
	require.Equal(t, *original, *copied)

	*original = original.Add(time.Hour)
	require.NotEqual(t, *original, *copied)
}
