// Package provider defines the boundary to the transaction-submission
// collaborator. The account subsystem builds and signs transactions; a
// Submitter broadcasts them and reports receipts. Network timeout and retry
// policy live entirely on the submitter side.
package provider

import (
	"context"
	"math/big"

	"github.com/pkg/errors"
)

// TxType enumerates the transaction kinds the account subsystem emits.
type TxType string

const (
	// TxInvoke calls a function on a deployed contract.
	TxInvoke TxType = "INVOKE_FUNCTION"
	// TxDeployAccount deploys a new account contract.
	TxDeployAccount TxType = "DEPLOY_ACCOUNT"
)

// Status of a submitted transaction as reported by the network.
type Status string

const (
	StatusAccepted Status = "ACCEPTED"
	StatusPending  Status = "PENDING"
	StatusRejected Status = "REJECTED"
)

// ErrTransactionRejected marks on-chain rejection, distinct from transport
// failures so callers can special-case it.
var ErrTransactionRejected = errors.New("transaction rejected")

// Transaction is the wire-agnostic shape handed to a Submitter. Calldata and
// signature entries are field elements.
type Transaction struct {
	Type                TxType
	ContractAddress     string
	Calldata            []*big.Int
	ConstructorCalldata []*big.Int
	Signature           []*big.Int
}

// Receipt reports the outcome of a submitted transaction. ContractAddress is
// set for deployments; an accepted deployment without one is a failure the
// caller must treat as such.
type Receipt struct {
	TransactionHash string
	ContractAddress string
	Status          Status
}

// Submitter broadcasts signed transactions.
type Submitter interface {
	SendTransaction(ctx context.Context, tx *Transaction) (*Receipt, error)
}
