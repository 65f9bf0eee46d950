package randsource

import (
	"bytes"
	"io"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrClosedPipe }

func TestNewFromEntropyFailure(t *testing.T) {
	_, err := NewFromEntropy(failingReader{})
	require.Error(t, err)
}

func TestNewWithSeedIsDeterministic(t *testing.T) {
	a := NewWithSeed(42)
	b := NewWithSeed(42)

	max := big.NewInt(1_000_000_000)
	for i := 0; i < 16; i++ {
		require.Equal(t, a.BigInt(max), b.BigInt(max))
	}
}

func TestReseedChangesState(t *testing.T) {
	entropy := bytes.NewReader(bytes.Repeat([]byte{0xAB}, 64))
	s, err := NewFromEntropy(entropy)
	require.NoError(t, err)

	max := big.NewInt(1_000_000_000)
	before := s.BigInt(max)

	entropy2 := bytes.NewReader(bytes.Repeat([]byte{0xCD}, 64))
	s.entropy = entropy2
	require.NoError(t, s.Reseed())
	after := s.BigInt(max)

	require.NotEqual(t, before, after)
}
