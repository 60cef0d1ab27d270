package units

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert(t *testing.T) {
	cases := map[string]int64{
		"10":  10,
		"0":   0,
		"-1":  -1,
		"2K":  2048,
		"2k":  2048,
		"1M":  1048576,
		"3g":  3 * 1024 * 1024 * 1024,
		"2T":  2 << 40,
		"1P":  1 << 50,
		"-2G": -2 << 30,
	}
	for in, want := range cases {
		got, err := Convert(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}
}

func TestConvertRejects(t *testing.T) {
	for _, in := range []string{"", "abc", "G", "10X", "1.5G", "G10", "10GB", "9000000P"} {
		_, err := Convert(in)
		require.Error(t, err, in)
		require.ErrorIs(t, err, ErrInvalidQuota, in)
	}
}

func TestHuman(t *testing.T) {
	require.Equal(t, "5GiB", Human(5<<30))
	require.Equal(t, "0B", Human(0))
}
