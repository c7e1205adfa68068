// Package stark implements the signing and verification protocol used by
// account contracts: pedersen hashing over ordered field-element sequences
// and ECDSA over the STARK-friendly curve. The primitives are fixed, any
// substitution breaks verification inside deployed account contracts.
package stark

import (
	"math/big"

	"github.com/NethermindEth/starknet.go/curve"
	"github.com/pkg/errors"
)

// Signature is an (r, s) pair over the STARK curve.
type Signature struct {
	R *big.Int
	S *big.Int
}

// KeyPair holds a private field element and the x coordinate of the
// corresponding curve point.
type KeyPair struct {
	PrivateKey *big.Int
	PublicKey  *big.Int
}

// GenerateKey returns a fresh random keypair.
func GenerateKey() (*KeyPair, error) {
	priv, err := curve.Curve.GetRandomPrivateKey()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate private key")
	}
	return KeyPairFromPrivate(priv)
}

// KeyPairFromPrivate derives the public key for a private field element.
func KeyPairFromPrivate(priv *big.Int) (*KeyPair, error) {
	if priv == nil || priv.Sign() <= 0 {
		return nil, errors.New("private key must be a positive field element")
	}
	pubX, _, err := curve.Curve.PrivateToPoint(priv)
	if err != nil {
		return nil, errors.Wrap(err, "could not derive public key")
	}
	return &KeyPair{PrivateKey: new(big.Int).Set(priv), PublicKey: pubX}, nil
}

// HashElements computes the pedersen hash over an ordered sequence of field
// elements, with the sequence length appended per the chain convention.
func HashElements(elems []*big.Int) (*big.Int, error) {
	return curve.ComputeHashOnElements(elems), nil
}

// Sign hashes the ordered message sequence and signs the digest. Single
// values must be wrapped into a one-element sequence by the caller.
func Sign(priv *big.Int, msgs []*big.Int) (*Signature, error) {
	digest, err := HashElements(msgs)
	if err != nil {
		return nil, errors.Wrap(err, "could not hash message elements")
	}
	return SignDigest(priv, digest)
}

// SignDigest signs an already-hashed message digest.
func SignDigest(priv, digest *big.Int) (*Signature, error) {
	if priv == nil || priv.Sign() <= 0 {
		return nil, errors.New("private key must be a positive field element")
	}
	r, s, err := curve.Curve.Sign(digest, priv)
	if err != nil {
		return nil, errors.Wrap(err, "could not sign digest")
	}
	return &Signature{R: r, S: s}, nil
}

// Verify reports whether sig is a valid signature on digest under the public
// key with x coordinate pubX. It is pure and needs no key material; both
// candidate y coordinates for pubX are tried.
func Verify(pubX, digest *big.Int, sig *Signature) bool {
	if pubX == nil || digest == nil || sig == nil || sig.R == nil || sig.S == nil {
		return false
	}
	pubY := curve.Curve.GetYCoordinate(pubX)
	if pubY == nil {
		return false
	}
	if curve.Curve.Verify(digest, sig.R, sig.S, pubX, pubY) {
		return true
	}
	negY := new(big.Int).Sub(curve.Curve.P, pubY)
	return curve.Curve.Verify(digest, sig.R, sig.S, pubX, negY)
}
