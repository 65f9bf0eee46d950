package bignum

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiehuis/libhcs/internal/randsource"
)

func TestFactorial(t *testing.T) {
	cases := map[int]int64{
		0: 1,
		1: 1,
		5: 120,
		7: 5040,
	}
	for n, want := range cases {
		require.Equal(t, big.NewInt(want), Factorial(n), "n=%d", n)
	}
}

func TestCRT2RoundTrip(t *testing.T) {
	m1 := big.NewInt(11)
	m2 := big.NewInt(13)
	a1 := big.NewInt(6)
	a2 := big.NewInt(9)

	x, err := CRT2(a1, m1, a2, m2)
	require.NoError(t, err)
	require.Equal(t, 0, new(big.Int).Mod(x, m1).Cmp(a1))
	require.Equal(t, 0, new(big.Int).Mod(x, m2).Cmp(a2))
}

func TestCRT2RejectsNonCoprimeModuli(t *testing.T) {
	_, err := CRT2(big.NewInt(1), big.NewInt(4), big.NewInt(1), big.NewInt(6))
	require.ErrorIs(t, err, ErrInvalidModulus)
}

func TestRandomInMultGroupIsCoprime(t *testing.T) {
	r := randsource.NewWithSeed(7)
	n := big.NewInt(9991) // 97 * 103

	for i := 0; i < 50; i++ {
		v := RandomInMultGroup(r, n)
		gcd := new(big.Int).GCD(nil, nil, v, n)
		require.Equal(t, 0, gcd.Cmp(one))
		require.NotEqual(t, 0, v.Sign())
	}
}

func TestRandomSafePrime(t *testing.T) {
	r := randsource.NewWithSeed(11)
	p, q := RandomSafePrime(r, 32)

	require.True(t, p.ProbablyPrime(MillerRabinRounds))
	require.True(t, q.ProbablyPrime(MillerRabinRounds))

	reconstructed := new(big.Int).Lsh(q, 1)
	reconstructed.Add(reconstructed, one)
	require.Equal(t, 0, reconstructed.Cmp(p))
}

func TestZeroizeClearsLimbs(t *testing.T) {
	x := big.NewInt(0)
	x.SetString("123456789012345678901234567890", 10)
	Zeroize(x)
	require.Equal(t, 0, x.Cmp(big.NewInt(0)))
}

func TestRandomPrimeHasRequestedBitLen(t *testing.T) {
	r := randsource.NewWithSeed(3)
	p := RandomPrime(r, 24)
	require.Equal(t, 24, p.BitLen())
	require.True(t, p.ProbablyPrime(MillerRabinRounds))
}
