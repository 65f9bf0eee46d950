package elgamal

import (
	"context"
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
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(1)

	for _, m := range []int64{1, 42, 31337} {
		plaintext := big.NewInt(m)
		c, err := pk.Encrypt(r, plaintext)
		require.NoError(t, err)

		got, err := sk.Decrypt(c)
		require.NoError(t, err)
		require.Equal(t, 0, plaintext.Cmp(got))
	}
}

func TestHomomorphicMul(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(2)

	m1 := big.NewInt(6)
	m2 := big.NewInt(7)

	c1, err := pk.Encrypt(r, m1)
	require.NoError(t, err)
	c2, err := pk.Encrypt(r, m2)
	require.NoError(t, err)

	product, err := pk.EEMul(c1, c2)
	require.NoError(t, err)

	got, err := sk.Decrypt(product)
	require.NoError(t, err)
	require.Equal(t, new(big.Int).Mul(m1, m2), got)
}

func TestReencryptPreservesPlaintext(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)
	r := randsource.NewWithSeed(3)

	m := big.NewInt(99)
	c, err := pk.Encrypt(r, m)
	require.NoError(t, err)

	c2, err := pk.Reencrypt(r, c)
	require.NoError(t, err)
	require.NotEqual(t, 0, c.C1.Cmp(c2.C1))

	got, err := sk.Decrypt(c2)
	require.NoError(t, err)
	require.Equal(t, 0, m.Cmp(got))
}

func TestVerifyRejectsTamperedPublicKey(t *testing.T) {
	pk, _ := generateTestKeyPair(t, 256, 0)
	pk.P.Add(pk.P, big.NewInt(2))
	require.Error(t, pk.Verify())
}

func TestDestroyZeroizesPrivateKey(t *testing.T) {
	_, sk := generateTestKeyPair(t, 256, 0)
	sk.Destroy()
	require.Equal(t, 0, sk.X.Sign())
}

func TestMarshalTextUnmarshalTextRoundTrip(t *testing.T) {
	pk, sk := generateTestKeyPair(t, 256, 0)

	pkText, err := pk.MarshalText()
	require.NoError(t, err)
	var gotPub PublicKey
	require.NoError(t, gotPub.UnmarshalText(pkText))
	require.NoError(t, gotPub.Verify())
	require.Equal(t, 0, pk.P.Cmp(gotPub.P))
	require.Equal(t, 0, pk.G.Cmp(gotPub.G))
	require.Equal(t, 0, pk.Y.Cmp(gotPub.Y))
	require.Equal(t, 0, pk.Q.Cmp(gotPub.Q))

	skText, err := sk.MarshalText()
	require.NoError(t, err)
	var gotPriv PrivateKey
	require.NoError(t, gotPriv.UnmarshalText(skText))
	require.NoError(t, VerifyKeyPair(&gotPriv.PublicKey, &gotPriv))

	r := randsource.NewWithSeed(9)
	c, err := gotPub.Encrypt(r, big.NewInt(55))
	require.NoError(t, err)
	m, err := gotPriv.Decrypt(c)
	require.NoError(t, err)
	require.Equal(t, 0, big.NewInt(55).Cmp(m))
}
