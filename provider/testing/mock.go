// Package testing provides submitter doubles for account subsystem tests.
package testing

import (
	"context"

	"github.com/starkcustody/starkcustody/provider"
)

// MockSubmitter records submitted transactions and plays back a canned
// receipt or error.
type MockSubmitter struct {
	Receipt *provider.Receipt
	Err     error
	Sent    []*provider.Transaction
}

// SendTransaction implements provider.Submitter.
func (m *MockSubmitter) SendTransaction(_ context.Context, tx *provider.Transaction) (*provider.Receipt, error) {
	m.Sent = append(m.Sent, tx)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Receipt, nil
}
