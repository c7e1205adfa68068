// Package accounts implements the account identities and the registry that
// owns them. An account is either backed by an encrypted keyfile on disk or
// held ephemerally in memory for the local development network; both variants
// expose the same interface and share their signing and deployment-lookup
// logic through package helpers.
package accounts

import (
	"math/big"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/starkcustody/starkcustody/crypto/stark"
	"github.com/starkcustody/starkcustody/keystore"
	"github.com/starkcustody/starkcustody/network"
	"github.com/starkcustody/starkcustody/provider"
)

var log = logrus.WithField("prefix", "accounts")

// Deployment re-exports the credential-record deployment entry.
type Deployment = keystore.Deployment

// Account is one logical identity known to the registry.
type Account interface {
	// Alias returns the user-chosen name for the account.
	Alias() string
	// PublicKey returns the account's public key as a field element.
	PublicKey() *big.Int
	// Address returns the checksum address encoding the public key. It is
	// always derivable and never fails.
	Address() string
	// Deployments lists the account's per-network deployment records.
	Deployments() []Deployment
	// ContractAddress returns the address of the account contract on the
	// given network, or ErrNotDeployed when no record exists for it.
	ContractAddress(networkName string) (string, error)
	// Sign signs an ordered sequence of field elements. Persisted accounts
	// resolve the private key through their lock state, prompting when no
	// passphrase is supplied and no key is cached.
	Sign(msgs []*big.Int, passphrase string) (*stark.Signature, error)
	// SignTransaction signs a transaction's calldata and attaches the
	// signature to it.
	SignTransaction(tx *provider.Transaction, passphrase string) (*stark.Signature, error)
	// CheckSignature verifies a signature on a hashed digest against the
	// account's public key. Pure, requires no key material.
	CheckSignature(digest *big.Int, sig *stark.Signature) bool
	// AddDeployment records the account contract address for a network,
	// replacing any existing record for it.
	AddDeployment(networkName, contractAddress, passphrase string) error
	// DeleteDeployment removes the record for a network, reporting whether
	// the identity's last record was removed.
	DeleteDeployment(networkName, passphrase string) (deleted bool, err error)
}

// signMessage is the shared signing path for both account variants.
func signMessage(priv *big.Int, msgs []*big.Int) (*stark.Signature, error) {
	if len(msgs) == 0 {
		return nil, errors.New("message sequence must not be empty, wrap single values into a one-element sequence")
	}
	return stark.Sign(priv, msgs)
}

func checkSignature(pub, digest *big.Int, sig *stark.Signature) bool {
	return stark.Verify(pub, digest, sig)
}

// deploymentFor looks up the deployment record for a network by exact match
// on normalized names.
func deploymentFor(deployments []Deployment, alias, networkName string) (Deployment, error) {
	name := network.Normalize(networkName)
	for _, d := range deployments {
		if network.Normalize(d.NetworkName) == name {
			return d, nil
		}
	}
	return Deployment{}, errors.Wrapf(ErrNotDeployed, "account %q on network %q", alias, name)
}

// upsertDeployment replaces the record for the deployment's network or
// appends a new one, keeping at most one record per normalized name.
func upsertDeployment(deployments []Deployment, d Deployment) []Deployment {
	name := network.Normalize(d.NetworkName)
	out := make([]Deployment, 0, len(deployments)+1)
	for _, existing := range deployments {
		if network.Normalize(existing.NetworkName) != name {
			out = append(out, existing)
		}
	}
	return append(out, d)
}

// canonicalAddress reparses a stored contract address into its checksum form.
func canonicalAddress(net network.Identity, addr string) (string, error) {
	v, err := net.EncodeAddress(addr)
	if err != nil {
		return "", errors.Wrapf(err, "stored contract address %q is invalid", addr)
	}
	return net.DecodeAddress(v), nil
}

// zeroKey clears a private key's backing words. Best-effort hardening,
// copies made by math/big during arithmetic are out of reach.
func zeroKey(k *big.Int) {
	if k == nil {
		return
	}
	words := k.Bits()
	for i := range words {
		words[i] = 0
	}
	k.SetInt64(0)
}
