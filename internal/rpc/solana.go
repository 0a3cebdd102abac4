package rpc

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
)

var _ raydium.AccountReader = (*Client)(nil)

// GetAccount returns the raw account data, or nil when the account does not
// exist.
func (c *Client) GetAccount(ctx context.Context, address solana.PublicKey) ([]byte, error) {
	params := []any{
		address.String(),
		map[string]any{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var resp accountInfoResponse
	if err := c.Call(ctx, "getAccountInfo", params, &resp); err != nil {
		return nil, fmt.Errorf("getAccountInfo RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getAccountInfo %s: %w", address, resp.Error)
	}
	if resp.Result.Value == nil {
		return nil, nil
	}
	return decodeAccountData(resp.Result.Value)
}

// GetMultipleAccounts returns one entry per address; absent accounts are nil.
func (c *Client) GetMultipleAccounts(ctx context.Context, addresses []solana.PublicKey) ([][]byte, error) {
	keys := make([]string, len(addresses))
	for i, a := range addresses {
		keys[i] = a.String()
	}
	params := []any{
		keys,
		map[string]any{
			"encoding":   "base64",
			"commitment": c.commitment,
		},
	}

	var resp multipleAccountsResponse
	if err := c.Call(ctx, "getMultipleAccounts", params, &resp); err != nil {
		return nil, fmt.Errorf("getMultipleAccounts RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getMultipleAccounts: %w", resp.Error)
	}
	if len(resp.Result.Value) != len(addresses) {
		return nil, fmt.Errorf("getMultipleAccounts: asked for %d accounts, got %d", len(addresses), len(resp.Result.Value))
	}

	out := make([][]byte, len(addresses))
	for i, info := range resp.Result.Value {
		if info == nil {
			continue
		}
		data, err := decodeAccountData(info)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", addresses[i], err)
		}
		out[i] = data
	}
	return out, nil
}

// SearchAccounts runs getProgramAccounts with a dataSize filter plus one
// memcmp filter per entry and returns only the matching addresses. Account
// data is sliced to zero bytes; the caller fetches the winner itself.
func (c *Client) SearchAccounts(
	ctx context.Context,
	program solana.PublicKey,
	filters []raydium.MemcmpFilter,
	dataSize uint64,
) ([]solana.PublicKey, error) {
	rpcFilters := make([]any, 0, len(filters)+1)
	rpcFilters = append(rpcFilters, map[string]any{"dataSize": dataSize})
	for _, f := range filters {
		rpcFilters = append(rpcFilters, map[string]any{
			"memcmp": map[string]any{
				"offset": f.Offset,
				"bytes":  base58.Encode(f.Bytes),
			},
		})
	}

	params := []any{
		program.String(),
		map[string]any{
			"encoding":   "base64",
			"commitment": c.commitment,
			"filters":    rpcFilters,
			"dataSlice":  map[string]any{"offset": 0, "length": 0},
		},
	}

	var resp programAccountsResponse
	if err := c.Call(ctx, "getProgramAccounts", params, &resp); err != nil {
		return nil, fmt.Errorf("getProgramAccounts RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getProgramAccounts %s: %w", program, resp.Error)
	}

	out := make([]solana.PublicKey, 0, len(resp.Result))
	for _, acc := range resp.Result {
		pk, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("getProgramAccounts: bad pubkey %q: %w", acc.Pubkey, err)
		}
		out = append(out, pk)
	}

	c.logger.WithFields(logrus.Fields{
		"program": program.String(),
		"filters": len(filters),
		"matches": len(out),
	}).Debug("program account search")

	return out, nil
}

// SendTransaction submits a serialized, signed transaction and returns its
// signature. It makes a single request; resubmission is the caller's call.
func (c *Client) SendTransaction(ctx context.Context, tx []byte, opts *SendOptions) (string, error) {
	if opts == nil {
		defaults := DefaultSendOptions()
		opts = &defaults
	}

	cfg := map[string]any{
		"encoding":            "base64",
		"skipPreflight":       opts.SkipPreflight,
		"preflightCommitment": opts.PreflightCommitment,
	}
	if opts.MaxRetries != nil {
		cfg["maxRetries"] = *opts.MaxRetries
	}
	params := []any{base64.StdEncoding.EncodeToString(tx), cfg}

	var resp struct {
		Result string    `json:"result"`
		Error  *RPCError `json:"error"`
	}
	if err := c.CallOnce(ctx, "sendTransaction", params, &resp); err != nil {
		return "", fmt.Errorf("sendTransaction RPC failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("sendTransaction: %w", resp.Error)
	}
	if resp.Result == "" {
		return "", fmt.Errorf("sendTransaction: empty signature")
	}
	return resp.Result, nil
}

// GetSignatureStatus returns nil while the node has no record of signature.
// Single request, so a polling caller keeps its own cadence.
func (c *Client) GetSignatureStatus(ctx context.Context, signature string) (*SignatureStatus, error) {
	params := []any{
		[]string{signature},
		map[string]any{"searchTransactionHistory": true},
	}

	var resp signatureStatusesResponse
	if err := c.CallOnce(ctx, "getSignatureStatuses", params, &resp); err != nil {
		return nil, fmt.Errorf("getSignatureStatuses RPC failed: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("getSignatureStatuses: %w", resp.Error)
	}
	if len(resp.Result.Value) == 0 || resp.Result.Value[0] == nil {
		return nil, nil
	}
	return resp.Result.Value[0], nil
}

// GetLatestBlockhash fetches the most recent blockhash at the client's
// commitment.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	var resp struct {
		Result struct {
			Value Blockhash `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}
	params := []any{map[string]any{"commitment": c.commitment}}

	if err := c.Call(ctx, "getLatestBlockhash", params, &resp); err != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash RPC failed: %w", err)
	}
	if resp.Error != nil {
		return solana.Hash{}, fmt.Errorf("getLatestBlockhash: %w", resp.Error)
	}

	hash, err := solana.HashFromBase58(resp.Result.Value.Blockhash)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("invalid blockhash format: %w", err)
	}
	return hash, nil
}

// GetBalance returns the lamport balance of address.
func (c *Client) GetBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	var resp struct {
		Result struct {
			Value uint64 `json:"value"`
		} `json:"result"`
		Error *RPCError `json:"error"`
	}
	params := []any{
		address.String(),
		map[string]any{"commitment": c.commitment},
	}

	if err := c.Call(ctx, "getBalance", params, &resp); err != nil {
		return 0, fmt.Errorf("getBalance RPC failed: %w", err)
	}
	if resp.Error != nil {
		return 0, fmt.Errorf("getBalance: %w", resp.Error)
	}
	return resp.Result.Value, nil
}

func decodeAccountData(info *AccountInfo) ([]byte, error) {
	if len(info.Data) < 1 {
		return nil, fmt.Errorf("account data missing")
	}
	if len(info.Data) > 1 && info.Data[1] != "base64" {
		return nil, fmt.Errorf("unexpected account encoding %q", info.Data[1])
	}
	data, err := base64.StdEncoding.DecodeString(info.Data[0])
	if err != nil {
		return nil, fmt.Errorf("decode account data: %w", err)
	}
	return data, nil
}
