// Copyright © 2024 The libhcs authors.
//
// This file is part of libhcs. The full libhcs copyright notice, including
// terms governing use, modification, and redistribution, is contained in
// the file LICENSE at the root of the source code distribution tree.

// Command hcsdemo exercises the scheme selected by -scheme end to end: it
// generates a key pair, encrypts a plaintext, applies one homomorphic
// operation (for the threshold scheme: none, the ciphertext is
// share-decrypted by three authorities and combined), and decrypts the
// result, printing each step. It is a smoke test and a runnable example, not
// a production CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/tiehuis/libhcs/damgardjurik"
	"github.com/tiehuis/libhcs/elgamal"
	"github.com/tiehuis/libhcs/internal/randsource"
	"github.com/tiehuis/libhcs/paillier"
	"github.com/tiehuis/libhcs/threshold"
)

func main() {
	scheme := flag.String("scheme", "paillier", "scheme to demo: paillier, damgardjurik, threshold, elgamal")
	bits := flag.Int("bits", 256, "modulus size in bits")
	flag.Parse()

	r, err := randsource.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "hcsdemo:", err)
		os.Exit(1)
	}

	switch *scheme {
	case "paillier":
		err = demoPaillier(r, *bits)
	case "damgardjurik":
		err = demoDamgardJurik(r, *bits)
	case "threshold":
		err = demoThreshold(r, *bits)
	case "elgamal":
		err = demoElgamal(r, *bits)
	default:
		err = fmt.Errorf("hcsdemo: unknown scheme %q", *scheme)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "hcsdemo:", err)
		os.Exit(1)
	}
}

func demoPaillier(r *randsource.Source, bits int) error {
	ctx := context.Background()
	pk, sk, err := paillier.GenerateKeyPair(ctx, r, bits)
	if err != nil {
		return err
	}
	fmt.Printf("paillier: generated %d-bit key pair\n", bits)

	c, err := pk.Encrypt(r, big.NewInt(42))
	if err != nil {
		return err
	}
	c, err = pk.EPAdd(c, big.NewInt(8))
	if err != nil {
		return err
	}
	m, err := sk.Decrypt(c)
	if err != nil {
		return err
	}
	fmt.Printf("paillier: encrypt(42) + 8 -> decrypt = %s\n", m)
	return nil
}

func demoDamgardJurik(r *randsource.Source, bits int) error {
	ctx := context.Background()
	pk, sk, err := damgardjurik.GenerateKeyPair(ctx, r, 2, bits)
	if err != nil {
		return err
	}
	fmt.Printf("damgardjurik: generated %d-bit key pair, s=2\n", bits)

	c, err := pk.Encrypt(r, big.NewInt(10))
	if err != nil {
		return err
	}
	c, err = pk.EPMul(c, big.NewInt(3))
	if err != nil {
		return err
	}
	m, err := sk.Decrypt(c)
	if err != nil {
		return err
	}
	fmt.Printf("damgardjurik: encrypt(10) * 3 -> decrypt = %s\n", m)
	return nil
}

func demoThreshold(r *randsource.Source, bits int) error {
	ctx := context.Background()
	const l, w = 5, 3
	pub, priv, poly, err := threshold.GenerateKeyPair(ctx, r, bits, l, w)
	if err != nil {
		return err
	}
	fmt.Printf("threshold: generated %d-bit key pair, %d-of-%d\n", bits, w, l)

	shares := priv.DealShares(poly)
	auths := make([]*threshold.AuthServer, l)
	for i := 0; i < l; i++ {
		auths[i] = threshold.NewAuthServer(i, shares[i])
	}
	threshold.DestroyAfterDealing(priv, poly)

	c, err := pub.Encrypt(r, big.NewInt(777))
	if err != nil {
		return err
	}

	partials := make([]*big.Int, l)
	for _, idx := range []int{0, 2, 4} {
		partials[idx] = auths[idx].ShareDecrypt(pub, c)
	}
	m, err := pub.ShareCombine(partials)
	if err != nil {
		return err
	}
	fmt.Printf("threshold: encrypt(777), combine authorities 1,3,5 -> decrypt = %s\n", m)
	return nil
}

func demoElgamal(r *randsource.Source, bits int) error {
	ctx := context.Background()
	pk, sk, err := elgamal.GenerateKeyPair(ctx, r, bits)
	if err != nil {
		return err
	}
	fmt.Printf("elgamal: generated %d-bit key pair\n", bits)

	c1, err := pk.Encrypt(r, big.NewInt(6))
	if err != nil {
		return err
	}
	c2, err := pk.Encrypt(r, big.NewInt(7))
	if err != nil {
		return err
	}
	product, err := pk.EEMul(c1, c2)
	if err != nil {
		return err
	}
	m, err := sk.Decrypt(product)
	if err != nil {
		return err
	}
	fmt.Printf("elgamal: encrypt(6) * encrypt(7) -> decrypt = %s\n", m)
	return nil
}
