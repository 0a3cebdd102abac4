package swapengine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aman-zulfiqar/solana-amm-swap/internal/rpc"
)

var _ Submitter = (*RPCSubmitter)(nil)

// RPCSubmitter adapts the JSON-RPC client to Submitter.
type RPCSubmitter struct {
	client *rpc.Client
	opts   *rpc.SendOptions
}

// NewRPCSubmitter uses rpc.DefaultSendOptions when opts is nil.
func NewRPCSubmitter(client *rpc.Client, opts *rpc.SendOptions) *RPCSubmitter {
	return &RPCSubmitter{client: client, opts: opts}
}

func (s *RPCSubmitter) SubmitTransaction(ctx context.Context, tx []byte) (string, error) {
	return s.client.SendTransaction(ctx, tx, s.opts)
}

func (s *RPCSubmitter) GetStatus(ctx context.Context, signature string) (Status, error) {
	st, err := s.client.GetSignatureStatus(ctx, signature)
	if err != nil {
		return Status{}, err
	}
	return statusFromRPC(st), nil
}

// statusFromRPC maps a node status onto TxState. Only "confirmed" and
// "finalized" count as landed; "processed" can still be rolled back.
func statusFromRPC(st *rpc.SignatureStatus) Status {
	if st == nil {
		return Status{State: TxPending}
	}
	if st.Err != nil {
		detail, err := json.Marshal(st.Err)
		if err != nil {
			detail = []byte(fmt.Sprint(st.Err))
		}
		return Status{State: TxFailed, Slot: st.Slot, Detail: string(detail)}
	}
	switch st.ConfirmationStatus {
	case "confirmed", "finalized":
		return Status{State: TxConfirmed, Slot: st.Slot}
	default:
		return Status{State: TxPending, Slot: st.Slot}
	}
}
