package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/starkcustody/starkcustody/io/logs"
)

var log = logrus.WithField("prefix", "provider")

const defaultRequestTimeout = 30 * time.Second

// Gateway submits transactions to a feeder-gateway style HTTP endpoint.
type Gateway struct {
	baseURL string
	client  *http.Client
}

// NewGateway returns a Submitter posting to the given base URL.
func NewGateway(baseURL string) *Gateway {
	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultRequestTimeout},
	}
}

type gatewayTx struct {
	Type                string   `json:"type"`
	ContractAddress     string   `json:"contract_address,omitempty"`
	Calldata            []string `json:"calldata,omitempty"`
	ConstructorCalldata []string `json:"constructor_calldata,omitempty"`
	Signature           []string `json:"signature,omitempty"`
}

type gatewayResponse struct {
	Code            string `json:"code"`
	TransactionHash string `json:"transaction_hash"`
	Address         string `json:"address"`
	Status          string `json:"status"`
	Message         string `json:"message"`
}

// SendTransaction implements Submitter. Rejections reported by the gateway
// surface as ErrTransactionRejected with the gateway's message verbatim;
// everything else is a transport error.
func (g *Gateway) SendTransaction(ctx context.Context, tx *Transaction) (*Receipt, error) {
	payload := &gatewayTx{
		Type:                string(tx.Type),
		ContractAddress:     tx.ContractAddress,
		Calldata:            feltStrings(tx.Calldata),
		ConstructorCalldata: feltStrings(tx.ConstructorCalldata),
		Signature:           feltStrings(tx.Signature),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "could not encode transaction")
	}
	url := g.baseURL + "/gateway/add_transaction"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "could not build gateway request")
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithField("gateway", logs.MaskCredentialsLogging(url)).Debug("Submitting transaction")
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "could not reach gateway")
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.WithError(err).Error("Could not close gateway response body")
		}
	}()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Wrap(err, "could not read gateway response")
	}

	decoded := &gatewayResponse{}
	if err := json.Unmarshal(raw, decoded); err != nil && resp.StatusCode == http.StatusOK {
		return nil, errors.Wrap(err, "could not decode gateway response")
	}
	if rejected(resp.StatusCode, decoded, raw) {
		msg := decoded.Message
		if msg == "" {
			msg = strings.TrimSpace(string(raw))
		}
		return nil, errors.Wrap(ErrTransactionRejected, msg)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("gateway returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	receipt := &Receipt{
		TransactionHash: decoded.TransactionHash,
		ContractAddress: decoded.Address,
		Status:          StatusAccepted,
	}
	if decoded.Status != "" {
		receipt.Status = Status(decoded.Status)
	}
	return receipt, nil
}

func rejected(statusCode int, decoded *gatewayResponse, raw []byte) bool {
	if decoded.Status == string(StatusRejected) {
		return true
	}
	lower := strings.ToLower(string(raw))
	return statusCode >= 400 && strings.Contains(lower, "rejected")
}

func feltStrings(elems []*big.Int) []string {
	if elems == nil {
		return nil
	}
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = e.String()
	}
	return out
}
