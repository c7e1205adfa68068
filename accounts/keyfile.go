package accounts

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
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

// lockState enumerates the key-access states of a persisted identity. The
// cached key exists if and only if the state is unlocked; a cached key found
// in the locked state is treated as stale and discarded.
type lockState int

const (
	stateLocked lockState = iota
	stateUnlocked
)

// KeyfileAccount is an identity backed by an encrypted credential file. The
// private key is held in memory only while the account is unlocked.
type KeyfileAccount struct {
	path    string
	net     network.Identity
	prompt  prompt.Prompter
	scryptN int
	scryptP int

	mu          sync.Mutex
	state       lockState
	cachedKey   *big.Int
	pub         *big.Int
	deployments []Deployment
}

var _ Account = (*KeyfileAccount)(nil)

// LoadKeyfileAccount reads an existing credential file. The account starts
// locked.
func LoadKeyfileAccount(path string, net network.Identity, prompter prompt.Prompter, scryptN, scryptP int) (*KeyfileAccount, error) {
	data, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "no credential file at %s", path)
		}
		return nil, errors.Wrapf(err, "could not read credential file %s", path)
	}
	kf, err := keystore.Parse(data)
	if err != nil {
		return nil, err
	}
	pub, err := kf.ParsePublicKey()
	if err != nil {
		return nil, err
	}
	return &KeyfileAccount{
		path:        path,
		net:         net,
		prompt:      prompter,
		scryptN:     scryptN,
		scryptP:     scryptP,
		state:       stateLocked,
		pub:         pub,
		deployments: kf.Deployments,
	}, nil
}

// NewKeyfileAccount encrypts a private key under a passphrase and writes the
// credential file. The passphrase was supplied programmatically, so the key
// stays cached.
func NewKeyfileAccount(
	path string,
	priv *big.Int,
	passphrase string,
	deployments []Deployment,
	net network.Identity,
	prompter prompt.Prompter,
	scryptN, scryptP int,
) (*KeyfileAccount, error) {
	a := &KeyfileAccount{
		path:    path,
		net:     net,
		prompt:  prompter,
		scryptN: scryptN,
		scryptP: scryptP,
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writeLocked(priv, passphrase, deployments); err != nil {
		return nil, err
	}
	a.state = stateUnlocked
	a.cachedKey = new(big.Int).Set(priv)
	return a, nil
}

// Path returns the credential file location backing this identity.
func (a *KeyfileAccount) Path() string { return a.path }

// Alias implements Account. The alias is the credential file's stem.
func (a *KeyfileAccount) Alias() string {
	return strings.TrimSuffix(filepath.Base(a.path), filepath.Ext(a.path))
}

// PublicKey implements Account.
func (a *KeyfileAccount) PublicKey() *big.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return new(big.Int).Set(a.pub)
}

// Address implements Account.
func (a *KeyfileAccount) Address() string {
	return a.net.DecodeAddress(a.PublicKey())
}

// Deployments implements Account.
func (a *KeyfileAccount) Deployments() []Deployment {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Deployment(nil), a.deployments...)
}

// ContractAddress implements Account.
func (a *KeyfileAccount) ContractAddress(networkName string) (string, error) {
	d, err := deploymentFor(a.Deployments(), a.Alias(), networkName)
	if err != nil {
		return "", err
	}
	return canonicalAddress(a.net, d.ContractAddress)
}

// Unlock decrypts the private key and caches it until Lock is called.
// Prompts for the passphrase when none is supplied.
func (a *KeyfileAccount) Unlock(passphrase string) error {
	if passphrase == "" {
		var err error
		passphrase, err = a.prompt.Password(fmt.Sprintf("Enter passphrase to unlock %q", a.Alias()))
		if err != nil {
			return err
		}
	}
	key, err := a.decrypt(passphrase)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	zeroKey(a.cachedKey)
	a.state = stateUnlocked
	a.cachedKey = key
	return nil
}

// Lock discards the cached key, zeroing it best-effort.
func (a *KeyfileAccount) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	zeroKey(a.cachedKey)
	a.cachedKey = nil
	a.state = stateLocked
}

// Sign implements Account. The caller receives the signature; the resolved
// key copy is wiped before returning.
func (a *KeyfileAccount) Sign(msgs []*big.Int, passphrase string) (*stark.Signature, error) {
	key, err := a.privateKey(passphrase)
	if err != nil {
		return nil, err
	}
	defer zeroKey(key)
	return signMessage(key, msgs)
}

// SignTransaction implements Account.
func (a *KeyfileAccount) SignTransaction(tx *provider.Transaction, passphrase string) (*stark.Signature, error) {
	sig, err := a.Sign(tx.Calldata, passphrase)
	if err != nil {
		return nil, err
	}
	tx.Signature = []*big.Int{sig.R, sig.S}
	return sig, nil
}

// CheckSignature implements Account.
func (a *KeyfileAccount) CheckSignature(digest *big.Int, sig *stark.Signature) bool {
	return checkSignature(a.PublicKey(), digest, sig)
}

// AddDeployment implements Account. The credential file is rewritten, so the
// passphrase is required; it is prompted for when not supplied.
func (a *KeyfileAccount) AddDeployment(networkName, contractAddress, passphrase string) error {
	passphrase, key, err := a.passphraseAndKey(passphrase, fmt.Sprintf("Enter passphrase to unlock %q", a.Alias()))
	if err != nil {
		return err
	}
	defer zeroKey(key)
	deployments := upsertDeployment(a.Deployments(), Deployment{
		NetworkName:     network.Normalize(networkName),
		ContractAddress: contractAddress,
	})
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeLocked(key, passphrase, deployments)
}

// DeleteDeployment removes the record for a network, proving ownership with
// the passphrase. When the last record is removed the credential file is
// deleted and the identity ceases to exist; deleted reports that outcome.
func (a *KeyfileAccount) DeleteDeployment(networkName, passphrase string) (deleted bool, err error) {
	passphrase, key, err := a.passphraseAndKey(passphrase, fmt.Sprintf("Enter passphrase to delete %q", a.Alias()))
	if err != nil {
		return false, err
	}
	defer zeroKey(key)

	name := network.Normalize(networkName)
	var remaining []Deployment
	for _, d := range a.Deployments() {
		if network.Normalize(d.NetworkName) != name {
			remaining = append(remaining, d)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(remaining) == 0 {
		if err := os.Remove(a.path); err != nil {
			return false, errors.Wrapf(err, "could not delete credential file %s", a.path)
		}
		zeroKey(a.cachedKey)
		a.cachedKey = nil
		a.state = stateLocked
		a.deployments = nil
		log.WithField("account", a.Alias()).Info("Deleted account credential file")
		return true, nil
	}
	return false, a.writeLocked(key, passphrase, remaining)
}

// ChangePassphrase re-encrypts the credential under a new passphrase,
// preserving the deployment ledger. Both passphrases are prompted for when
// not supplied; the account ends up locked so the next access proves the new
// passphrase.
func (a *KeyfileAccount) ChangePassphrase(oldPassphrase, newPassphrase string) error {
	a.Lock()
	_, key, err := a.passphraseAndKey(oldPassphrase, fmt.Sprintf("Enter current passphrase for %q", a.Alias()))
	if err != nil {
		return err
	}
	defer zeroKey(key)

	if newPassphrase == "" {
		first, err := a.prompt.Password("Enter a new passphrase")
		if err != nil {
			return err
		}
		again, err := a.prompt.Password("Repeat the new passphrase")
		if err != nil {
			return err
		}
		if first != again {
			return errors.New("new passphrases do not match")
		}
		newPassphrase = first
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.writeLocked(key, newPassphrase, a.deployments); err != nil {
		return err
	}
	zeroKey(a.cachedKey)
	a.cachedKey = nil
	a.state = stateLocked
	return nil
}

// privateKey resolves the key through the lock state machine: reuse the
// cached key when unlocked, otherwise decrypt, prompting for the passphrase
// if none was supplied. A prompted unlock only persists after interactive
// confirmation; a programmatic passphrase caches without asking. Prompting
// never happens while the identity mutex is held.
func (a *KeyfileAccount) privateKey(passphrase string) (*big.Int, error) {
	a.mu.Lock()
	if a.state == stateUnlocked && a.cachedKey != nil {
		key := new(big.Int).Set(a.cachedKey)
		a.mu.Unlock()
		log.WithField("account", a.Alias()).Debug("Using cached key")
		return key, nil
	}
	if a.cachedKey != nil {
		// Cached key in the locked state is stale by definition.
		zeroKey(a.cachedKey)
		a.cachedKey = nil
	}
	a.mu.Unlock()

	supplied := passphrase != ""
	if !supplied {
		var err error
		passphrase, err = a.prompt.Password(fmt.Sprintf("Enter passphrase to unlock %q", a.Alias()))
		if err != nil {
			return nil, err
		}
	}
	key, err := a.decrypt(passphrase)
	if err != nil {
		return nil, err
	}

	cache := supplied
	if !supplied {
		ok, err := a.prompt.Confirm(fmt.Sprintf("Leave %q unlocked?", a.Alias()))
		if err != nil {
			return nil, err
		}
		cache = ok
	}
	if cache {
		a.mu.Lock()
		zeroKey(a.cachedKey)
		a.state = stateUnlocked
		a.cachedKey = new(big.Int).Set(key)
		a.mu.Unlock()
	}
	return key, nil
}

// passphraseAndKey obtains a passphrase (prompting with promptText when none
// was supplied) and decrypts the key with it, for operations that rewrite the
// credential file and therefore need both.
func (a *KeyfileAccount) passphraseAndKey(passphrase, promptText string) (string, *big.Int, error) {
	if passphrase == "" {
		var err error
		passphrase, err = a.prompt.Password(promptText)
		if err != nil {
			return "", nil, err
		}
	}
	key, err := a.decrypt(passphrase)
	if err != nil {
		return "", nil, err
	}
	a.mu.Lock()
	zeroKey(a.cachedKey)
	a.state = stateUnlocked
	a.cachedKey = new(big.Int).Set(key)
	a.mu.Unlock()
	return passphrase, key, nil
}

// decrypt reads the credential file fresh and recovers the private key. The
// public key derived from the plaintext is authoritative and refreshes the
// in-memory snapshot.
func (a *KeyfileAccount) decrypt(passphrase string) (*big.Int, error) {
	data, err := os.ReadFile(a.path) // #nosec G304
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "no credential file at %s", a.path)
		}
		return nil, errors.Wrapf(err, "could not read credential file %s", a.path)
	}
	kf, err := keystore.Parse(data)
	if err != nil {
		return nil, err
	}
	key, err := keystore.Decrypt(kf, passphrase)
	if err != nil {
		return nil, err
	}
	kp, err := stark.KeyPairFromPrivate(key)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	a.pub = kp.PublicKey
	a.deployments = kf.Deployments
	a.mu.Unlock()
	return key, nil
}

// writeLocked encrypts and atomically replaces the credential file. Callers
// hold a.mu.
func (a *KeyfileAccount) writeLocked(priv *big.Int, passphrase string, deployments []Deployment) error {
	kf, err := keystore.Encrypt(priv, passphrase, deployments, a.scryptN, a.scryptP)
	if err != nil {
		return err
	}
	data, err := kf.Marshal()
	if err != nil {
		return errors.Wrap(err, "could not encode credential record")
	}
	if err := file.WriteFileAtomic(a.path, data); err != nil {
		return err
	}
	pub, err := kf.ParsePublicKey()
	if err != nil {
		return err
	}
	a.pub = pub
	a.deployments = append([]Deployment(nil), deployments...)
	return nil
}
