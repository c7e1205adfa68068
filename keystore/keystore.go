// Package keystore encodes a single private key into an encrypted-at-rest
// credential record and back. Records use the web3 secret storage format
// (scrypt key derivation, AES-128-CTR, keccak MAC) extended with the
// account's public key and its per-network deployment list. The package is a
// pure transform, file I/O belongs to the caller.
package keystore

import (
	"encoding/json"
	"fmt"
	"math/big"

	gethkeystore "github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/starkcustody/starkcustody/crypto/stark"
)

// Version of the credential-record format.
const Version = 3

// Scrypt parameter presets, re-exported so callers need not import the geth
// keystore directly.
const (
	StandardScryptN = gethkeystore.StandardScryptN
	StandardScryptP = gethkeystore.StandardScryptP
	LightScryptN    = gethkeystore.LightScryptN
	LightScryptP    = gethkeystore.LightScryptP
)

var (
	// ErrAuthentication is returned when the MAC check fails during
	// decryption, meaning the passphrase is wrong.
	ErrAuthentication = errors.New("could not decrypt credential record with given passphrase")
	// ErrMalformedRecord is returned when a credential record is present
	// but structurally invalid.
	ErrMalformedRecord = errors.New("malformed credential record")
)

// Deployment associates a network with the contract address representing the
// account there.
type Deployment struct {
	NetworkName     string `json:"network_name"`
	ContractAddress string `json:"contract_address"`
}

// Keyfile is the persisted form of one account credential.
type Keyfile struct {
	Crypto      gethkeystore.CryptoJSON `json:"crypto"`
	ID          string                  `json:"id"`
	Version     int                     `json:"version"`
	PublicKey   string                  `json:"public_key"`
	Deployments []Deployment            `json:"deployments"`
}

// Encrypt seals a private key under a passphrase. The stored public key is
// derived from the private key here, never taken from the encryption scheme.
func Encrypt(priv *big.Int, passphrase string, deployments []Deployment, scryptN, scryptP int) (*Keyfile, error) {
	kp, err := stark.KeyPairFromPrivate(priv)
	if err != nil {
		return nil, err
	}
	keyBytes := priv.FillBytes(make([]byte, 32))
	cryptoJSON, err := gethkeystore.EncryptDataV3(keyBytes, []byte(passphrase), scryptN, scryptP)
	if err != nil {
		return nil, errors.Wrap(err, "could not encrypt private key")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate record id")
	}
	return &Keyfile{
		Crypto:      cryptoJSON,
		ID:          id.String(),
		Version:     Version,
		PublicKey:   PublicKeyHex(kp.PublicKey),
		Deployments: deployments,
	}, nil
}

// Decrypt recovers the private key from a credential record. A MAC mismatch
// surfaces as ErrAuthentication, never as silently wrong key bytes.
func Decrypt(kf *Keyfile, passphrase string) (*big.Int, error) {
	if err := validate(kf); err != nil {
		return nil, err
	}
	plain, err := gethkeystore.DecryptDataV3(kf.Crypto, passphrase)
	if err != nil {
		if errors.Is(err, gethkeystore.ErrDecrypt) {
			return nil, errors.Wrapf(ErrAuthentication, "record %s", kf.ID)
		}
		return nil, errors.Wrap(ErrMalformedRecord, err.Error())
	}
	return new(big.Int).SetBytes(plain), nil
}

// Parse decodes a serialized credential record.
func Parse(data []byte) (*Keyfile, error) {
	kf := &Keyfile{}
	if err := json.Unmarshal(data, kf); err != nil {
		return nil, errors.Wrap(ErrMalformedRecord, err.Error())
	}
	if err := validate(kf); err != nil {
		return nil, err
	}
	return kf, nil
}

// Marshal serializes a credential record for storage.
func (kf *Keyfile) Marshal() ([]byte, error) {
	return json.MarshalIndent(kf, "", "\t")
}

// ParsePublicKey returns the stored public key as a field element.
func (kf *Keyfile) ParsePublicKey() (*big.Int, error) {
	pub, ok := new(big.Int).SetString(kf.PublicKey, 0)
	if !ok {
		return nil, errors.Wrapf(ErrMalformedRecord, "invalid public key %q", kf.PublicKey)
	}
	return pub, nil
}

// PublicKeyHex renders a public key field element in its canonical 0x form.
func PublicKeyHex(pub *big.Int) string {
	return fmt.Sprintf("0x%064x", pub)
}

func validate(kf *Keyfile) error {
	if kf.Version != Version {
		return errors.Wrapf(ErrMalformedRecord, "unsupported version %d", kf.Version)
	}
	if kf.Crypto.Cipher == "" || kf.Crypto.CipherText == "" || kf.Crypto.KDF == "" {
		return errors.Wrap(ErrMalformedRecord, "missing cipher parameters")
	}
	if kf.PublicKey == "" {
		return errors.Wrap(ErrMalformedRecord, "missing public key")
	}
	return nil
}
