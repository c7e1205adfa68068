package keystore_test

import (
	"math/big"
	"testing"

	"github.com/starkcustody/starkcustody/crypto/stark"
	"github.com/starkcustody/starkcustody/keystore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "secretPassw0rd$1952"

func encryptTestKey(t *testing.T, priv *big.Int, passphrase string, deployments []keystore.Deployment) *keystore.Keyfile {
	t.Helper()
	kf, err := keystore.Encrypt(priv, passphrase, deployments, keystore.LightScryptN, keystore.LightScryptP)
	require.NoError(t, err)
	return kf
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	kp, err := stark.GenerateKey()
	require.NoError(t, err)

	kf := encryptTestKey(t, kp.PrivateKey, password, nil)
	got, err := keystore.Decrypt(kf, password)
	require.NoError(t, err)
	assert.Equal(t, 0, kp.PrivateKey.Cmp(got))
}

func TestDecrypt_WrongPassphrase(t *testing.T) {
	kf := encryptTestKey(t, big.NewInt(1), password, nil)
	_, err := keystore.Decrypt(kf, "not-the-passphrase")
	require.ErrorIs(t, err, keystore.ErrAuthentication)
}

func TestEncrypt_EmptyPassphraseRoundTrips(t *testing.T) {
	kf := encryptTestKey(t, big.NewInt(42), "", nil)
	got, err := keystore.Decrypt(kf, "")
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(42).Cmp(got))
}

func TestEncrypt_StoresDerivedPublicKey(t *testing.T) {
	kp, err := stark.KeyPairFromPrivate(big.NewInt(1))
	require.NoError(t, err)

	kf := encryptTestKey(t, big.NewInt(1), password, nil)
	pub, err := kf.ParsePublicKey()
	require.NoError(t, err)
	assert.Equal(t, 0, kp.PublicKey.Cmp(pub))
}

func TestMarshalParse_PreservesDeployments(t *testing.T) {
	deployments := []keystore.Deployment{
		{NetworkName: "testnet", ContractAddress: "0xAB"},
		{NetworkName: "mainnet", ContractAddress: "0xCD"},
	}
	kf := encryptTestKey(t, big.NewInt(7), password, deployments)

	encoded, err := kf.Marshal()
	require.NoError(t, err)
	parsed, err := keystore.Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, deployments, parsed.Deployments)
	assert.Equal(t, kf.ID, parsed.ID)

	got, err := keystore.Decrypt(parsed, password)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(7).Cmp(got))
}

func TestParse_MalformedRecord(t *testing.T) {
	_, err := keystore.Parse([]byte("not even json"))
	require.ErrorIs(t, err, keystore.ErrMalformedRecord)

	_, err = keystore.Parse([]byte(`{"version": 2}`))
	require.ErrorIs(t, err, keystore.ErrMalformedRecord)

	_, err = keystore.Parse([]byte(`{"version": 3, "crypto": {}}`))
	require.ErrorIs(t, err, keystore.ErrMalformedRecord)
}

func TestEncrypt_RejectsInvalidKey(t *testing.T) {
	_, err := keystore.Encrypt(nil, password, nil, keystore.LightScryptN, keystore.LightScryptP)
	require.Error(t, err)
	_, err = keystore.Encrypt(big.NewInt(0), password, nil, keystore.LightScryptN, keystore.LightScryptP)
	require.Error(t, err)
}
