package damgardjurik

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tiehuis/libhcs/internal/randsource"
)

func generateTestKeyPair(t *testing.T, s, bits int, seed int64) (*PublicKey, *PrivateKey) {
	t.Helper()
	r := randsource.NewWithSeed(seed)
	pk, sk, err := GenerateKeyPair(context.Background(), r, s, bits)
	require.NoError(t, err)
	require.NoError(t, pk.Verify())
	return pk, sk
}

func TestGenerateKeyPairRejectsSmallModulus(t *testing.T) {
	r := randsource.NewWithSeed(1)
	_, _, err := GenerateKeyPair(context.Background(), r, 1, 16)
	require.Error(t, err)
}

func TestGenerateKeyPairRejectsInvalidS(t *testing.T) {
	r := randsource.NewWithSeed(1)
	_, _, err := GenerateKeyPair(context.Background(), r, 0, 256)
	require.Error(t, err)
}

func TestSEqualsOneMatchesPaillierShape(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 1, 256, 0)
	r := randsource.NewWithSeed(1)

	m := big.NewInt(42)
	c, err := pk.Encrypt(r, m)
	require.NoError(t, err)

	got, err := sk.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, 0, m.Cmp(got))
}

// Concrete scenario: s=2, bits=512, m=10; ep_add(1); ep_mul(3); decrypt = 33.
func TestConcreteScenarioSEqualsTwo(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 2, 512, 0)
	r := randsource.NewWithSeed(1)

	c, err := pk.Encrypt(r, big.NewInt(10))
	require.NoError(t, err)

	c, err = pk.EPAdd(c, big.NewInt(1))
	require.NoError(t, err)

	c, err = pk.EPMul(c, big.NewInt(3))
	require.NoError(t, err)

	got, err := sk.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(33), got)
}

func TestHomomorphicAdd(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 2, 256, 0)
	r := randsource.NewWithSeed(2)

	m1 := big.NewInt(100)
	m2 := big.NewInt(250)

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

func TestReencryptPreservesPlaintext(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 2, 256, 0)
	r := randsource.NewWithSeed(3)

	m := big.NewInt(777)
	c, err := pk.Encrypt(r, m)
	require.NoError(t, err)

	c2, err := pk.Reencrypt(r, c)
	require.NoError(t, err)
	require.NotEqual(t, 0, c.Cmp(c2))

	got, err := sk.Decrypt(c2)
	require.NoError(t, err)
	require.Equal(t, 0, m.Cmp(got))
}

func TestMarshalTextUnmarshalTextRoundTrip(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 2, 256, 0)

	pkText, err := pk.MarshalText()
	require.NoError(t, err)
	var gotPub PublicKey
	require.NoError(t, gotPub.UnmarshalText(pkText))
	require.NoError(t, gotPub.Verify())
	require.Equal(t, 0, pk.N[0].Cmp(gotPub.N[0]))
	require.Equal(t, 0, pk.G.Cmp(gotPub.G))
	require.Equal(t, pk.S, gotPub.S)

	skText, err := sk.MarshalText()
	require.NoError(t, err)
	var gotPriv PrivateKey
	require.NoError(t, gotPriv.UnmarshalText(skText))
	require.Equal(t, 0, sk.D.Cmp(gotPriv.D))
	require.Equal(t, 0, sk.Mu.Cmp(gotPriv.Mu))

	r := randsource.NewWithSeed(9)
	c, err := gotPub.Encrypt(r, big.NewInt(10))
	require.NoError(t, err)
	m, err := gotPriv.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, 0, big.NewInt(10).Cmp(m))
}
