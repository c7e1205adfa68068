package accounts

import (
	"context"
	"fmt"
	"math/big"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/starkcustody/starkcustody/crypto/stark"
	"github.com/starkcustody/starkcustody/io/file"
	"github.com/starkcustody/starkcustody/io/prompt"
	"github.com/starkcustody/starkcustody/keystore"
	"github.com/starkcustody/starkcustody/network"
	"github.com/starkcustody/starkcustody/provider"
)

const keyfileExt = ".json"

// Config wires the registry's collaborators.
type Config struct {
	// DataDir holds one credential file per persisted alias.
	DataDir string
	// Network supplies the active network name and the address codec.
	Network network.Identity
	// Submitter broadcasts account-deployment transactions. Only needed for
	// DeployAccount.
	Submitter provider.Submitter
	// Prompter supplies passphrases and confirmations. Defaults to the
	// interactive terminal prompter.
	Prompter prompt.Prompter
	// LightKDF selects the light scrypt preset. Intended for tests and
	// throwaway setups only.
	LightKDF bool
}

// Registry owns every account identity in the process: ephemeral identities
// in a memory-only namespace and persisted identities backed by credential
// files, lazily loaded and cached by alias.
type Registry struct {
	dataDir   string
	net       network.Identity
	submitter provider.Submitter
	prompter  prompt.Prompter
	scryptN   int
	scryptP   int

	mu        sync.RWMutex
	ephemeral map[string]*EphemeralAccount
	cached    map[string]*KeyfileAccount
}

// NewRegistry creates the registry and its data directory.
func NewRegistry(cfg *Config) (*Registry, error) {
	if cfg.DataDir == "" {
		return nil, errors.New("data directory is required")
	}
	if cfg.Network == nil {
		return nil, errors.New("network identity is required")
	}
	dataDir, err := file.ExpandPath(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	if err := file.MkdirAll(dataDir); err != nil {
		return nil, errors.Wrapf(err, "could not create data directory %s", dataDir)
	}
	prompter := cfg.Prompter
	if prompter == nil {
		prompter = prompt.NewTerminal()
	}
	scryptN, scryptP := keystore.StandardScryptN, keystore.StandardScryptP
	if cfg.LightKDF {
		scryptN, scryptP = keystore.LightScryptN, keystore.LightScryptP
	}
	return &Registry{
		dataDir:   dataDir,
		net:       cfg.Network,
		submitter: cfg.Submitter,
		prompter:  prompter,
		scryptN:   scryptN,
		scryptP:   scryptP,
		ephemeral: make(map[string]*EphemeralAccount),
		cached:    make(map[string]*KeyfileAccount),
	}, nil
}

// Aliases lists every known alias: ephemeral first, then the credential-file
// stems. Order is stable within a process run.
func (r *Registry) Aliases() ([]string, error) {
	r.mu.RLock()
	ephemeral := make([]string, 0, len(r.ephemeral))
	for alias := range r.ephemeral {
		ephemeral = append(ephemeral, alias)
	}
	r.mu.RUnlock()
	sort.Strings(ephemeral)

	persisted, err := r.keyfileAliases()
	if err != nil {
		return nil, err
	}
	return append(ephemeral, persisted...), nil
}

// Accounts returns every known identity in the same order as Aliases.
func (r *Registry) Accounts() ([]Account, error) {
	aliases, err := r.Aliases()
	if err != nil {
		return nil, err
	}
	out := make([]Account, 0, len(aliases))
	for _, alias := range aliases {
		acct, err := r.Load(alias)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	return out, nil
}

// Load resolves an alias to its identity, preferring the ephemeral namespace.
func (r *Registry) Load(alias string) (Account, error) {
	r.mu.RLock()
	if acct, ok := r.ephemeral[alias]; ok {
		r.mu.RUnlock()
		return acct, nil
	}
	r.mu.RUnlock()
	return r.loadKeyfileAccount(alias)
}

// Resolve accepts an alias, a printable address, or an integer address form,
// and returns the matching identity. Address resolution compares both the
// account address and, where deployed, the contract address on the active
// network.
func (r *Registry) Resolve(aliasOrAddress string) (Account, error) {
	acct, err := r.Load(aliasOrAddress)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	v, parseErr := r.net.EncodeAddress(aliasOrAddress)
	if parseErr != nil {
		return nil, errors.Wrapf(ErrNotFound, "no account for alias %q", aliasOrAddress)
	}
	return r.byAddress(v)
}

func (r *Registry) byAddress(v *big.Int) (Account, error) {
	canonical := r.net.DecodeAddress(v)
	all, err := r.Accounts()
	if err != nil {
		return nil, err
	}
	for _, acct := range all {
		if acct.Address() == canonical {
			return acct, nil
		}
		contractAddr, err := acct.ContractAddress(r.net.Name())
		if err != nil {
			if errors.Is(err, ErrNotDeployed) {
				continue
			}
			return nil, err
		}
		if contractAddr == canonical {
			return acct, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "no account with address %s", canonical)
}

// ImportAccount registers an existing key under a new alias. Local-network
// imports stay in memory; anything else becomes a credential file with one
// initial deployment record. The passphrase is prompted for (with
// confirmation) when not supplied.
func (r *Registry) ImportAccount(alias, networkName, contractAddress string, priv *big.Int, passphrase string) error {
	if err := r.checkAliasFree(alias); err != nil {
		return err
	}
	keys, err := stark.KeyPairFromPrivate(priv)
	if err != nil {
		return err
	}
	name := network.Normalize(networkName)
	deployments := []Deployment{{NetworkName: name, ContractAddress: contractAddress}}

	if name == network.Local {
		r.mu.Lock()
		defer r.mu.Unlock()
		if _, ok := r.ephemeral[alias]; ok {
			return errors.Wrapf(ErrAlreadyExists, "alias %q", alias)
		}
		r.ephemeral[alias] = NewEphemeralAccount(alias, keys, r.net, deployments)
		return nil
	}

	if passphrase == "" {
		passphrase, err = r.newPassphrase(alias)
		if err != nil {
			return err
		}
	}
	acct, err := NewKeyfileAccount(
		r.keyfilePath(alias), priv, passphrase, deployments,
		r.net, r.prompter, r.scryptN, r.scryptP,
	)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	// Replace any stale cache entry under this alias.
	r.cached[alias] = acct
	log.WithField("account", alias).WithField("network", name).Info("Imported account")
	return nil
}

// DeployAccount generates a key when none is supplied, submits an
// account-deployment transaction, and imports the resulting contract address
// for the active network. It returns the contract address.
func (r *Registry) DeployAccount(ctx context.Context, alias string, priv *big.Int, passphrase string) (string, error) {
	if err := r.checkAliasFree(alias); err != nil {
		return "", err
	}
	if r.submitter == nil {
		return "", errors.New("no transaction submitter configured")
	}
	if priv == nil {
		keys, err := stark.GenerateKey()
		if err != nil {
			return "", err
		}
		priv = keys.PrivateKey
	}
	keys, err := stark.KeyPairFromPrivate(priv)
	if err != nil {
		return "", err
	}

	networkName := r.net.Name()
	log.WithField("network", networkName).Info("Deploying an account contract")
	receipt, err := r.submitter.SendTransaction(ctx, &provider.Transaction{
		Type:                provider.TxDeployAccount,
		ConstructorCalldata: []*big.Int{keys.PublicKey},
	})
	if err != nil {
		return "", err
	}
	if receipt.Status == provider.StatusRejected {
		return "", errors.Wrap(provider.ErrTransactionRejected, "account deployment")
	}
	if receipt.ContractAddress == "" {
		return "", errors.New("account deployment returned no contract address")
	}
	if err := r.ImportAccount(alias, networkName, receipt.ContractAddress, priv, passphrase); err != nil {
		return "", err
	}
	return receipt.ContractAddress, nil
}

// DeleteAccount removes an alias. Ephemeral identities leave the in-memory
// namespace entirely; persisted identities drop the deployment record for
// the given network (the active one when empty), deleting the credential
// file when it was the last record.
func (r *Registry) DeleteAccount(alias, networkName, passphrase string) error {
	if networkName == "" {
		networkName = r.net.Name()
	}
	r.mu.Lock()
	if _, ok := r.ephemeral[alias]; ok {
		delete(r.ephemeral, alias)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	acct, err := r.loadKeyfileAccount(alias)
	if err != nil {
		return err
	}
	deleted, err := acct.DeleteDeployment(networkName, passphrase)
	if err != nil {
		return err
	}
	if deleted {
		r.mu.Lock()
		delete(r.cached, alias)
		r.mu.Unlock()
	}
	return nil
}

// ChangePassphrase re-encrypts a persisted identity's credential file under
// a new passphrase.
func (r *Registry) ChangePassphrase(alias, oldPassphrase, newPassphrase string) error {
	acct, err := r.loadKeyfileAccount(alias)
	if err != nil {
		return err
	}
	return acct.ChangePassphrase(oldPassphrase, newPassphrase)
}

func (r *Registry) loadKeyfileAccount(alias string) (*KeyfileAccount, error) {
	r.mu.RLock()
	if acct, ok := r.cached[alias]; ok {
		r.mu.RUnlock()
		return acct, nil
	}
	r.mu.RUnlock()

	path := r.keyfilePath(alias)
	if !file.FileExists(path) {
		return nil, errors.Wrapf(ErrNotFound, "alias %q", alias)
	}
	acct, err := LoadKeyfileAccount(path, r.net, r.prompter, r.scryptN, r.scryptP)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if cached, ok := r.cached[alias]; ok {
		return cached, nil
	}
	r.cached[alias] = acct
	return acct, nil
}

func (r *Registry) checkAliasFree(alias string) error {
	if alias == "" {
		return errors.New("alias must not be empty")
	}
	if strings.ContainsAny(alias, `/\`) {
		return errors.Errorf("alias %q must not contain path separators", alias)
	}
	r.mu.RLock()
	_, isEphemeral := r.ephemeral[alias]
	r.mu.RUnlock()
	if isEphemeral || file.FileExists(r.keyfilePath(alias)) {
		return errors.Wrapf(ErrAlreadyExists, "alias %q", alias)
	}
	return nil
}

func (r *Registry) keyfilePath(alias string) string {
	return filepath.Join(r.dataDir, alias+keyfileExt)
}

func (r *Registry) keyfileAliases() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(r.dataDir, "*"+keyfileExt))
	if err != nil {
		return nil, errors.Wrap(err, "could not list credential files")
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, strings.TrimSuffix(filepath.Base(m), keyfileExt))
	}
	sort.Strings(out)
	return out, nil
}

func (r *Registry) newPassphrase(alias string) (string, error) {
	first, err := r.prompter.Password(fmt.Sprintf("Enter a new passphrase for %q", alias))
	if err != nil {
		return "", err
	}
	again, err := r.prompter.Password("Repeat the passphrase")
	if err != nil {
		return "", err
	}
	if first != again {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}
