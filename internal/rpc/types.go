package rpc

import "fmt"

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// AccountInfo is the base64-encoded account payload shared by getAccountInfo
// and getMultipleAccounts. Data is [payload, encoding].
type AccountInfo struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"`
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}

type accountInfoResponse struct {
	Result struct {
		Value *AccountInfo `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

type multipleAccountsResponse struct {
	Result struct {
		Value []*AccountInfo `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// ProgramAccount is one entry of getProgramAccounts.
type ProgramAccount struct {
	Pubkey  string       `json:"pubkey"`
	Account *AccountInfo `json:"account"`
}

type programAccountsResponse struct {
	Result []ProgramAccount `json:"result"`
	Error  *RPCError        `json:"error"`
}

// SignatureStatus is one entry of getSignatureStatuses. Err is non-nil when
// the transaction was executed and failed.
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *int        `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus string      `json:"confirmationStatus"`
}

type signatureStatusesResponse struct {
	Result struct {
		Value []*SignatureStatus `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// SendOptions configures sendTransaction.
type SendOptions struct {
	SkipPreflight       bool
	PreflightCommitment string
	MaxRetries          *int
}

// DefaultSendOptions returns recommended send settings
func DefaultSendOptions() SendOptions {
	maxRetries := 3
	return SendOptions{
		SkipPreflight:       false,
		PreflightCommitment: "processed",
		MaxRetries:          &maxRetries,
	}
}

// Blockhash is a recent blockhash and the last block height it is valid for.
type Blockhash struct {
	Blockhash            string `json:"blockhash"`
	LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
}
