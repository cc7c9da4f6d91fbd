package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedClockAlwaysReturnsSameInstant(t *testing.T) {
	c := Fixed(1_731_593_928)
	require.Equal(t, uint64(1_731_593_928), c.Now())
	require.Equal(t, uint64(1_731_593_928), c.Now())
}

func TestDefaultClockTracksWallClock(t *testing.T) {
	before := uint64(time.Now().Unix())
	got := Default{}.Now()
	after := uint64(time.Now().Unix())

	require.GreaterOrEqual(t, got, before)
	require.LessOrEqual(t, got, after)
}
