// Package network supplies the network-identity collaborator for the account
// subsystem: canonical network names, chain identifiers, and the checksum
// address codec mapping field elements to printable addresses.
package network

import (
	"math/big"
	"regexp"
	"strings"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

// Canonical network names.
const (
	// Local is the disposable development network. Accounts imported for it
	// are never written to durable storage.
	Local   = "local"
	Mainnet = "mainnet"
	Testnet = "testnet"
)

// Chain identifiers as field elements of their ASCII names.
var (
	MainnetChainID = new(big.Int).SetBytes([]byte("SN_MAIN"))
	TestnetChainID = new(big.Int).SetBytes([]byte("SN_GOERLI"))
)

// aliases maps known provider-specific spellings onto canonical names.
// Unlisted names pass through Normalize unchanged, so a custom network such
// as "testnet-fork" keeps its own identity instead of collapsing into
// "testnet".
var aliases = map[string]string{
	"mainnet-alpha": Mainnet,
	"alpha-mainnet": Mainnet,
	"testnet-alpha": Testnet,
	"alpha-goerli":  Testnet,
	"goerli":        Testnet,
	"development":   Local,
	"devnet":        Local,
}

var hexAddressRegexp = regexp.MustCompile(`^(0x)?[0-9a-fA-F]+$`)

// ErrUnknownNetwork is returned when a chain ID is requested for a network
// this process has no identifier for.
var ErrUnknownNetwork = errors.New("unknown network")

// Normalize maps a network name onto its canonical form by exact match
// against the canonical set and the alias table.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	switch name {
	case Local, Mainnet, Testnet:
		return name
	}
	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// ChainID returns the chain identifier for a network name. The local network
// reuses the testnet chain ID.
func ChainID(name string) (*big.Int, error) {
	switch Normalize(name) {
	case Mainnet:
		return new(big.Int).Set(MainnetChainID), nil
	case Testnet, Local:
		return new(big.Int).Set(TestnetChainID), nil
	default:
		return nil, errors.Wrapf(ErrUnknownNetwork, "%q", name)
	}
}

// Identity is the collaborator handing the account subsystem the active
// network name and the address codec. Address formats are never hardcoded
// beyond calls through this interface.
type Identity interface {
	// Name returns the active network's canonical name.
	Name() string
	// EncodeAddress converts a printable address to its integer form.
	EncodeAddress(addr string) (*big.Int, error)
	// DecodeAddress converts an integer to its printable checksum form.
	DecodeAddress(v *big.Int) string
}

// Static is an Identity pinned to one active network, using the checksum
// codec shared by all networks.
type Static struct {
	name string
}

// NewStatic returns an Identity for the given active network name.
func NewStatic(name string) *Static {
	return &Static{name: Normalize(name)}
}

// Name implements Identity.
func (s *Static) Name() string { return s.name }

// EncodeAddress implements Identity.
func (*Static) EncodeAddress(addr string) (*big.Int, error) {
	return ParseAddress(addr)
}

// DecodeAddress implements Identity.
func (*Static) DecodeAddress(v *big.Int) string {
	return ChecksumAddress(v)
}

// IsHexAddress reports whether a string looks like a hex-encoded address.
// Unlike the fixed 20-byte convention elsewhere, addresses here are field
// elements of any length up to 32 bytes.
func IsHexAddress(v string) bool {
	return hexAddressRegexp.MatchString(v) && len(strings.TrimPrefix(v, "0x")) <= 64
}

// ParseAddress converts a printable address (hex with or without the 0x
// prefix, or a decimal integer string) into its integer form.
func ParseAddress(addr string) (*big.Int, error) {
	trimmed := strings.TrimSpace(addr)
	if v, ok := new(big.Int).SetString(trimmed, 0); ok {
		return v, nil
	}
	if v, ok := new(big.Int).SetString(strings.TrimPrefix(trimmed, "0x"), 16); ok {
		return v, nil
	}
	return nil, errors.Errorf("could not parse address %q", addr)
}

// ChecksumAddress renders an integer address as 0x-prefixed hex with
// mixed-case checksum characters derived from the keccak hash of the
// lowercase hex digits.
func ChecksumAddress(v *big.Int) string {
	hexAddr := strings.ToLower(v.Text(16))
	hash := gethcrypto.Keccak256([]byte(hexAddr))
	out := make([]byte, len(hexAddr))
	for i := 0; i < len(hexAddr); i++ {
		c := hexAddr[i]
		if hashNibble(hash, i) > 7 && c >= 'a' && c <= 'f' {
			c = c - 'a' + 'A'
		}
		out[i] = c
	}
	return "0x" + string(out)
}

func hashNibble(hash []byte, i int) byte {
	b := hash[i/2]
	if i%2 == 0 {
		return b >> 4
	}
	return b & 0x0f
}
