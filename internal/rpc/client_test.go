package rpc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/raydium"
	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

// rpcStub answers JSON-RPC calls from a per-method handler and records every
// request it sees.
type rpcStub struct {
	mu       sync.Mutex
	requests []rpcRequest
	handlers map[string]func(params []json.RawMessage) any
}

func newStub(t *testing.T) (*rpcStub, *Client) {
	t.Helper()
	stub := &rpcStub{handlers: map[string]func([]json.RawMessage) any{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req rpcRequest
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		stub.mu.Lock()
		stub.requests = append(stub.requests, req)
		h := stub.handlers[req.Method]
		stub.mu.Unlock()

		if h == nil {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": 1,
				"error": map[string]any{"code": -32601, "message": "method not found"},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": 1, "result": h(req.Params)})
	}))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	client := NewClient(ClientConfig{
		BaseURL:      srv.URL,
		Timeout:      2 * time.Second,
		MaxRetries:   2,
		RetryBackoff: 5 * time.Millisecond,
		Logger:       logger,
	})
	return stub, client
}

func (s *rpcStub) on(method string, h func([]json.RawMessage) any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

func (s *rpcStub) calls() []rpcRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]rpcRequest(nil), s.requests...)
}

func accountValue(data []byte) map[string]any {
	return map[string]any{
		"lamports":   1,
		"owner":      solana.TokenProgramID.String(),
		"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
		"executable": false,
		"rentEpoch":  0,
	}
}

func pk(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}

func TestGetAccount(t *testing.T) {
	stub, client := newStub(t)
	stub.on("getAccountInfo", func(params []json.RawMessage) any {
		var addr string
		_ = json.Unmarshal(params[0], &addr)
		if addr == pk(1).String() {
			return map[string]any{"value": accountValue([]byte{1, 2, 3})}
		}
		return map[string]any{"value": nil}
	})

	data, err := client.GetAccount(context.Background(), pk(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	data, err = client.GetAccount(context.Background(), pk(2))
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestGetMultipleAccounts_PreservesAbsent(t *testing.T) {
	stub, client := newStub(t)
	stub.on("getMultipleAccounts", func([]json.RawMessage) any {
		return map[string]any{"value": []any{accountValue([]byte{9}), nil}}
	})

	out, err := client.GetMultipleAccounts(context.Background(), []solana.PublicKey{pk(1), pk(2)})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []byte{9}, out[0])
	assert.Nil(t, out[1])
}

func TestSearchAccounts_EncodesFilters(t *testing.T) {
	stub, client := newStub(t)
	stub.on("getProgramAccounts", func([]json.RawMessage) any {
		return []any{map[string]any{"pubkey": pk(7).String(), "account": accountValue(nil)}}
	})

	mint := pk(3)
	out, err := client.SearchAccounts(context.Background(), pk(5), []raydium.MemcmpFilter{
		{Offset: 400, Bytes: mint.Bytes()},
	}, 752)
	require.NoError(t, err)
	assert.Equal(t, []solana.PublicKey{pk(7)}, out)

	calls := stub.calls()
	require.Len(t, calls, 1)
	var cfg struct {
		Filters []struct {
			DataSize *uint64 `json:"dataSize"`
			Memcmp   *struct {
				Offset uint64 `json:"offset"`
				Bytes  string `json:"bytes"`
			} `json:"memcmp"`
		} `json:"filters"`
	}
	require.NoError(t, json.Unmarshal(calls[0].Params[1], &cfg))
	require.Len(t, cfg.Filters, 2)
	require.NotNil(t, cfg.Filters[0].DataSize)
	assert.Equal(t, uint64(752), *cfg.Filters[0].DataSize)
	require.NotNil(t, cfg.Filters[1].Memcmp)
	assert.Equal(t, uint64(400), cfg.Filters[1].Memcmp.Offset)
	assert.Equal(t, base58.Encode(mint.Bytes()), cfg.Filters[1].Memcmp.Bytes)
}

func TestSendTransaction(t *testing.T) {
	stub, client := newStub(t)
	stub.on("sendTransaction", func(params []json.RawMessage) any {
		var encoded string
		_ = json.Unmarshal(params[0], &encoded)
		raw, _ := base64.StdEncoding.DecodeString(encoded)
		if string(raw) == "signed" {
			return "5sig"
		}
		return ""
	})

	sig, err := client.SendTransaction(context.Background(), []byte("signed"), nil)
	require.NoError(t, err)
	assert.Equal(t, "5sig", sig)
}

func TestRPCErrorIsReturned(t *testing.T) {
	_, client := newStub(t)

	_, err := client.SendTransaction(context.Background(), []byte("x"), nil)
	require.Error(t, err)
	var rpcErr *RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestGetSignatureStatus(t *testing.T) {
	stub, client := newStub(t)
	stub.on("getSignatureStatuses", func(params []json.RawMessage) any {
		var sigs []string
		_ = json.Unmarshal(params[0], &sigs)
		switch sigs[0] {
		case "done":
			return map[string]any{"value": []any{map[string]any{"slot": 10, "confirmationStatus": "confirmed", "err": nil}}}
		case "reverted":
			return map[string]any{"value": []any{map[string]any{"slot": 11, "confirmationStatus": "confirmed", "err": map[string]any{"InstructionError": []any{2, "Custom"}}}}}
		default:
			return map[string]any{"value": []any{nil}}
		}
	})

	st, err := client.GetSignatureStatus(context.Background(), "done")
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "confirmed", st.ConfirmationStatus)
	assert.Nil(t, st.Err)

	st, err = client.GetSignatureStatus(context.Background(), "reverted")
	require.NoError(t, err)
	assert.NotNil(t, st.Err)

	st, err = client.GetSignatureStatus(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestGetLatestBlockhashAndBalance(t *testing.T) {
	stub, client := newStub(t)
	hash := solana.Hash(pk(4))
	stub.on("getLatestBlockhash", func([]json.RawMessage) any {
		return map[string]any{"value": map[string]any{"blockhash": hash.String(), "lastValidBlockHeight": 100}}
	})
	stub.on("getBalance", func([]json.RawMessage) any {
		return map[string]any{"value": 1_500_000_000}
	})

	got, err := client.GetLatestBlockhash(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hash, got)

	bal, err := client.GetBalance(context.Background(), pk(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), bal)
}

func TestCall_RetriesTransportErrors(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":{"value":42}}`))
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 3, RetryBackoff: time.Millisecond})
	bal, err := client.GetBalance(context.Background(), pk(1))
	require.NoError(t, err)
	assert.Equal(t, uint64(42), bal)
	assert.Equal(t, int32(3), hits.Load())
}

func TestCall_GivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 1, RetryBackoff: time.Millisecond})
	_, err := client.GetBalance(context.Background(), pk(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(2), hits.Load())
}

func TestSubmitAndStatus_MakeSingleRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second, MaxRetries: 2, RetryBackoff: time.Millisecond})

	_, err := client.SendTransaction(context.Background(), []byte("signed"), nil)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "max retries exceeded")
	assert.Equal(t, int32(1), hits.Load())

	_, err = client.GetSignatureStatus(context.Background(), "sig")
	require.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())

	// Reads keep the retry loop.
	_, err = client.GetBalance(context.Background(), pk(1))
	require.Error(t, err)
	assert.Equal(t, int32(5), hits.Load())
}
