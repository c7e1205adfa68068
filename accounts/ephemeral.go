package accounts

import (
	"math/big"
	"sync"

	"github.com/starkcustody/starkcustody/crypto/stark"
	"github.com/starkcustody/starkcustody/network"
	"github.com/starkcustody/starkcustody/provider"
)

// EphemeralAccount is an identity scoped to the disposable local network. Its
// keypair lives in plain memory, is never written to durable storage, and
// needs no lock state.
type EphemeralAccount struct {
	alias string
	keys  *stark.KeyPair
	net   network.Identity

	mu          sync.Mutex
	deployments []Deployment
}

var _ Account = (*EphemeralAccount)(nil)

// NewEphemeralAccount builds an in-memory identity from an existing keypair.
func NewEphemeralAccount(alias string, keys *stark.KeyPair, net network.Identity, deployments []Deployment) *EphemeralAccount {
	return &EphemeralAccount{
		alias:       alias,
		keys:        keys,
		net:         net,
		deployments: append([]Deployment(nil), deployments...),
	}
}

// Alias implements Account.
func (a *EphemeralAccount) Alias() string { return a.alias }

// PublicKey implements Account.
func (a *EphemeralAccount) PublicKey() *big.Int { return new(big.Int).Set(a.keys.PublicKey) }

// Address implements Account.
func (a *EphemeralAccount) Address() string { return a.net.DecodeAddress(a.keys.PublicKey) }

// Deployments implements Account.
func (a *EphemeralAccount) Deployments() []Deployment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Deployment(nil), a.deployments...)
}

// ContractAddress implements Account.
func (a *EphemeralAccount) ContractAddress(networkName string) (string, error) {
	d, err := deploymentFor(a.Deployments(), a.alias, networkName)
	if err != nil {
		return "", err
	}
	return canonicalAddress(a.net, d.ContractAddress)
}

// Sign implements Account. The passphrase is ignored, the key is already in
// memory.
func (a *EphemeralAccount) Sign(msgs []*big.Int, _ string) (*stark.Signature, error) {
	return signMessage(a.keys.PrivateKey, msgs)
}

// SignTransaction implements Account.
func (a *EphemeralAccount) SignTransaction(tx *provider.Transaction, passphrase string) (*stark.Signature, error) {
	sig, err := a.Sign(tx.Calldata, passphrase)
	if err != nil {
		return nil, err
	}
	tx.Signature = []*big.Int{sig.R, sig.S}
	return sig, nil
}

// CheckSignature implements Account.
func (a *EphemeralAccount) CheckSignature(digest *big.Int, sig *stark.Signature) bool {
	return checkSignature(a.keys.PublicKey, digest, sig)
}

// DeleteDeployment implements Account. The registry drops the identity
// entirely once its last record is gone.
func (a *EphemeralAccount) DeleteDeployment(networkName, _ string) (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	name := network.Normalize(networkName)
	var remaining []Deployment
	for _, d := range a.deployments {
		if network.Normalize(d.NetworkName) != name {
			remaining = append(remaining, d)
		}
	}
	a.deployments = remaining
	return len(remaining) == 0, nil
}

// AddDeployment implements Account. Records live only in memory, no unlock
// is required.
func (a *EphemeralAccount) AddDeployment(networkName, contractAddress, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.deployments = upsertDeployment(a.deployments, Deployment{
		NetworkName:     network.Normalize(networkName),
		ContractAddress: contractAddress,
	})
	return nil
}
