package accounts_test

import (
	"context"
	"math/big"
	"testing"

	logTest "github.com/sirupsen/logrus/hooks/test"
	"github.com/starkcustody/starkcustody/accounts"
	"github.com/starkcustody/starkcustody/io/prompt"
	"github.com/starkcustody/starkcustody/network"
	"github.com/starkcustody/starkcustody/provider"
	providertesting "github.com/starkcustody/starkcustody/provider/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T, dataDir, activeNetwork string, submitter provider.Submitter) *accounts.Registry {
	t.Helper()
	r, err := accounts.NewRegistry(&accounts.Config{
		DataDir:   dataDir,
		Network:   network.NewStatic(activeNetwork),
		Submitter: submitter,
		Prompter:  &prompt.Static{Passphrase: password, Confirmed: true},
		LightKDF:  true,
	})
	require.NoError(t, err)
	return r
}

func TestRegistry_ImportAndResolveByAlias(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))

	acct, err := r.Resolve("bob")
	require.NoError(t, err)
	assert.Equal(t, "bob", acct.Alias())

	addr, err := acct.ContractAddress("testnet")
	require.NoError(t, err)
	parsed, err := network.ParseAddress(addr)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(0xab).Cmp(parsed))

	_, err = acct.ContractAddress("mainnet")
	require.ErrorIs(t, err, accounts.ErrNotDeployed)
}

func TestRegistry_ResolveByAddressForms(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))

	acct, err := r.Load("bob")
	require.NoError(t, err)

	// The account address and the contract address both resolve, in
	// checksum and plain integer spellings.
	for _, query := range []string{
		acct.Address(),
		acct.PublicKey().String(),
		"0xAB",
		"0xab",
	} {
		got, err := r.Resolve(query)
		require.NoError(t, err, "query %q", query)
		assert.Equal(t, "bob", got.Alias(), "query %q", query)
	}

	_, err = r.Resolve("0xDEAD")
	require.ErrorIs(t, err, accounts.ErrNotFound)
	_, err = r.Resolve("no-such-alias")
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestRegistry_ImportAliasCollision(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))
	err := r.ImportAccount("bob", "testnet", "0xCD", big.NewInt(0x2), password)
	require.ErrorIs(t, err, accounts.ErrAlreadyExists)

	// Collisions are checked across both namespaces.
	require.NoError(t, r.ImportAccount("eve", "local", "0x1", big.NewInt(0x3), ""))
	err = r.ImportAccount("eve", "testnet", "0xEE", big.NewInt(0x4), password)
	require.ErrorIs(t, err, accounts.ErrAlreadyExists)
}

func TestRegistry_LocalImportIsEphemeral(t *testing.T) {
	dataDir := t.TempDir()
	r := newTestRegistry(t, dataDir, "local", nil)
	require.NoError(t, r.ImportAccount("dev0", "local", "0x123", big.NewInt(0x1), ""))

	aliases, err := r.Aliases()
	require.NoError(t, err)
	assert.Equal(t, []string{"dev0"}, aliases)

	// A process restart reconstructs the registry with an empty in-memory
	// namespace; the ephemeral identity is gone.
	restarted := newTestRegistry(t, dataDir, "local", nil)
	aliases, err = restarted.Aliases()
	require.NoError(t, err)
	assert.Equal(t, 0, len(aliases))
	_, err = restarted.Resolve("dev0")
	require.ErrorIs(t, err, accounts.ErrNotFound)
}

func TestRegistry_AliasesOrderIsStable(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("zeta", "testnet", "0x1", big.NewInt(0x1), password))
	require.NoError(t, r.ImportAccount("alpha", "testnet", "0x2", big.NewInt(0x2), password))
	require.NoError(t, r.ImportAccount("dev0", "local", "0x3", big.NewInt(0x3), ""))

	first, err := r.Aliases()
	require.NoError(t, err)
	assert.Equal(t, []string{"dev0", "alpha", "zeta"}, first)

	second, err := r.Aliases()
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRegistry_DeployAccount(t *testing.T) {
	hook := logTest.NewGlobal()
	submitter := &providertesting.MockSubmitter{
		Receipt: &provider.Receipt{
			TransactionHash: "0x1",
			ContractAddress: "0xCD",
			Status:          provider.StatusAccepted,
		},
	}
	r := newTestRegistry(t, t.TempDir(), "testnet", submitter)

	contractAddr, err := r.DeployAccount(context.Background(), "carol", nil, password)
	require.NoError(t, err)
	assert.Equal(t, "0xCD", contractAddr)

	// The deployment transaction carried the generated public key.
	require.Equal(t, 1, len(submitter.Sent))
	sent := submitter.Sent[0]
	assert.Equal(t, provider.TxDeployAccount, sent.Type)
	require.Equal(t, 1, len(sent.ConstructorCalldata))

	acct, err := r.Resolve("carol")
	require.NoError(t, err)
	assert.Equal(t, 0, sent.ConstructorCalldata[0].Cmp(acct.PublicKey()))
	assert.Equal(t, network.ChecksumAddress(acct.PublicKey()), acct.Address())

	got, err := acct.ContractAddress("testnet")
	require.NoError(t, err)
	parsed, err := network.ParseAddress(got)
	require.NoError(t, err)
	assert.Equal(t, 0, big.NewInt(0xcd).Cmp(parsed))

	var sawDeployLog bool
	for _, entry := range hook.AllEntries() {
		if entry.Message == "Deploying an account contract" {
			sawDeployLog = true
		}
	}
	assert.True(t, sawDeployLog)
}

func TestRegistry_DeployAccountFailures(t *testing.T) {
	ctx := context.Background()

	// No contract address in an accepted receipt is a deployment failure.
	r := newTestRegistry(t, t.TempDir(), "testnet", &providertesting.MockSubmitter{
		Receipt: &provider.Receipt{Status: provider.StatusAccepted},
	})
	_, err := r.DeployAccount(ctx, "carol", nil, password)
	require.Error(t, err)
	_, err = r.Resolve("carol")
	require.ErrorIs(t, err, accounts.ErrNotFound)

	// Rejections propagate verbatim.
	r = newTestRegistry(t, t.TempDir(), "testnet", &providertesting.MockSubmitter{
		Err: provider.ErrTransactionRejected,
	})
	_, err = r.DeployAccount(ctx, "carol", nil, password)
	require.ErrorIs(t, err, provider.ErrTransactionRejected)

	// Alias collisions are caught before any transaction is submitted.
	submitter := &providertesting.MockSubmitter{
		Receipt: &provider.Receipt{ContractAddress: "0xCD", Status: provider.StatusAccepted},
	}
	r = newTestRegistry(t, t.TempDir(), "testnet", submitter)
	_, err = r.DeployAccount(ctx, "carol", nil, password)
	require.NoError(t, err)
	_, err = r.DeployAccount(ctx, "carol", nil, password)
	require.ErrorIs(t, err, accounts.ErrAlreadyExists)
	assert.Equal(t, 1, len(submitter.Sent))
}

func TestRegistry_DeleteAccount(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)

	// Ephemeral deletion removes the identity outright.
	require.NoError(t, r.ImportAccount("dev0", "local", "0x1", big.NewInt(0x1), ""))
	require.NoError(t, r.DeleteAccount("dev0", "", ""))
	_, err := r.Resolve("dev0")
	require.ErrorIs(t, err, accounts.ErrNotFound)

	// Deleting the last deployment record of a persisted identity removes
	// the credential file; the alias is gone afterwards.
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))
	require.NoError(t, r.DeleteAccount("bob", "", password))
	_, err = r.Resolve("bob")
	require.ErrorIs(t, err, accounts.ErrNotFound)

	require.ErrorIs(t, r.DeleteAccount("nobody", "", password), accounts.ErrNotFound)
}

func TestRegistry_DeleteAccountKeepsOtherDeployments(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))

	acct, err := r.Load("bob")
	require.NoError(t, err)
	require.NoError(t, acct.AddDeployment("mainnet", "0xCD", password))

	// Deleting defaults to the active network, leaving the mainnet record.
	require.NoError(t, r.DeleteAccount("bob", "", password))
	acct, err = r.Load("bob")
	require.NoError(t, err)
	deployments := acct.Deployments()
	require.Equal(t, 1, len(deployments))
	assert.Equal(t, "mainnet", deployments[0].NetworkName)
}

func TestRegistry_ChangePassphrase(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))

	require.NoError(t, r.ChangePassphrase("bob", password, "brandNewPass$99"))

	acct, err := r.Load("bob")
	require.NoError(t, err)
	sig, err := acct.Sign([]*big.Int{big.NewInt(1)}, "brandNewPass$99")
	require.NoError(t, err)
	require.NotNil(t, sig)
}

func TestRegistry_CachedAccountIsReused(t *testing.T) {
	r := newTestRegistry(t, t.TempDir(), "testnet", nil)
	require.NoError(t, r.ImportAccount("bob", "testnet", "0xAB", big.NewInt(0x1), password))

	first, err := r.Load("bob")
	require.NoError(t, err)
	second, err := r.Load("bob")
	require.NoError(t, err)
	assert.Same(t, first, second)
}
