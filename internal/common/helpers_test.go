package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStripBOM(t *testing.T) {
	require.Equal(t, []byte(`{}`), StripBOM([]byte("\xEF\xBB\xBF{}")))
	require.Equal(t, []byte(`{}`), StripBOM([]byte(`{}`)))
	require.Empty(t, StripBOM(nil))
}

func TestWipe(t *testing.T) {
	a := []byte("secret")
	b := []byte("key")
	Wipe(a, b, nil)
	require.Equal(t, make([]byte, 6), a)
	require.Equal(t, make([]byte, 3), b)
}

func TestIsBlank(t *testing.T) {
	require.True(t, IsBlank(""))
	require.True(t, IsBlank(" \n\t"))
	require.False(t, IsBlank(" x "))
}
