package paillier

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiehuis/libhcs/internal/randsource"
)

func generateTestKeyPair(t *testing.T, bits int, seed int64) (*PublicKey, *PrivateKey) {
	t.Helper()
	r := randsource.NewWithSeed(seed)
	pk, sk, err := GenerateKeyPair(context.Background(), r, bits)
	require.NoError(t, err)
	require.NoError(t, VerifyKeyPair(pk, sk))
	return pk, sk
}

func TestGenerateKeyPairRejectsSmallModulus(t *testing.T) {
	r := randsource.NewWithSeed(1)
	_, _, err := GenerateKeyPair(context.Background(), r, 16)
	require.Error(t, err)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	bitSizes := []int{256, 512}
	for _, bits := range bitSizes {
		bits := bits
		t.Run(fmt.Sprintf("%dbits", bits), func(t *testing.T) {
			pk, sk := generateTestKeyPair(t, bits, 0)
			r := randsource.NewWithSeed(1)

			for _, m := range []int64{0, 1, 42, 0x823e42fa} {
				plaintext := big.NewInt(m)
				c, err := pk.Encrypt(r, plaintext)
				require.NoError(t, err)

				got, err := sk.Decrypt(c)
				require.NoError(t, err)
				require.Equal(t, 0, plaintext.Cmp(got))
			}
		})
	}
}

func TestReencryptPreservesPlaintext(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(2)

	m := big.NewInt(15634)
	c, err := pk.Encrypt(r, m)
	require.NoError(t, err)

	c2, err := pk.Reencrypt(r, c)
	require.NoError(t, err)
	require.NotEqual(t, 0, c.Cmp(c2))

	got, err := sk.Decrypt(c2)
	require.NoError(t, err)
	require.Equal(t, 0, m.Cmp(got))
}

func TestHomomorphicAdd(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(3)

	m1 := big.NewInt(15634)
	m2 := big.NewInt(1640)

	c1, err := pk.Encrypt(r, m1)
	require.NoError(t, err)
	c2, err := pk.Encrypt(r, m2)
	require.NoError(t, err)

	sum, err := pk.EEAdd(c1, c2)
	require.NoError(t, err)

	got, err := sk.Decrypt(sum)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Add(m1, m2), got)
}

// Concrete scenario: 100 successive EPAdds of m2+i starting from m1 equals
// m1 + sum_{i=0..99}(m2+i).
func TestEPAddSeries(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(4)

	m1 := int64(15634)
	m2 := int64(1640)

	c, err := pk.Encrypt(r, big.NewInt(m1))
	require.NoError(t, err)

	want := m1
	for i := int64(0); i < 100; i++ {
		term := m2 + i
		c, err = pk.EPAdd(c, big.NewInt(term))
		require.NoError(t, err)
		want += term
	}

	got, err := sk.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(want), got)
	require.Equal(t, int64(184584), want)
}

func TestHomomorphicMul(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(5)

	m1 := big.NewInt(37)
	k := big.NewInt(11)

	c, err := pk.Encrypt(r, m1)
	require.NoError(t, err)

	scaled, err := pk.EPMul(c, k)
	require.NoError(t, err)

	got, err := sk.Decrypt(scaled)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(m1, k), got)
}

func TestVerifyRejectsTamperedPublicKey(t *testing.T) {
	pk, _ := generateTestKeyPair(t, 256, 0)
	pk.G.Add(pk.G, big.NewInt(2))
	require.Error(t, pk.Verify())
}

func TestDestroyZeroizesPrivateKey(t *testing.T) {
	_, sk := generateTestKeyPair(t, 256, 0)
	sk.Destroy()
	require.Equal(t, 0, sk.Lambda.Sign())
	require.Equal(t, 0, sk.Mu.Sign())
	require.Equal(t, 0, sk.Hp.Sign())
	require.Equal(t, 0, sk.Hq.Sign())
}

func TestMarshalTextUnmarshalTextRoundTrip(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)

	pkText, err := pk.MarshalText()
	require.NoError(t, err)
	var gotPub PublicKey
	require.NoError(t, gotPub.UnmarshalText(pkText))
	require.NoError(t, gotPub.Verify())
	require.Equal(t, 0, pk.N.Cmp(gotPub.N))
	require.Equal(t, 0, pk.G.Cmp(gotPub.G))
	require.Equal(t, 0, pk.N2.Cmp(gotPub.N2))

	skText, err := sk.MarshalText()
	require.NoError(t, err)
	var gotPriv PrivateKey
	require.NoError(t, gotPriv.UnmarshalText(skText))
	require.NoError(t, gotPriv.Verify())
	require.Equal(t, 0, sk.Lambda.Cmp(gotPriv.Lambda))
	require.Equal(t, 0, sk.Mu.Cmp(gotPriv.Mu))
	require.Equal(t, 0, sk.N.Cmp(gotPriv.N))

	r := randsource.NewWithSeed(9)
	c, err := gotPub.Encrypt(r, big.NewInt(1234))
	require.NoError(t, err)
	m, err := gotPriv.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, 0, big.NewInt(1234).Cmp(m))
}
