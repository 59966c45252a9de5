// Copyright 2025 Certen Protocol

package host

import "github.com/certen/tls-oracle/pkg/oracle"

// TxKind identifies which oracle.Registry operation a transaction invokes.
type TxKind string

const (
	TxSubmit       TxKind = "submit"
	TxAddNotary    TxKind = "addNotary"
	TxRemoveNotary TxKind = "removeNotary"
	TxSetOwner     TxKind = "setOwner"
	TxMigrate      TxKind = "migrate"
)

// Tx is the JSON envelope every ABCI transaction byte string decodes into.
// Caller is the submitting principal as CometBFT/the client layer attests
// it; this application does not itself authenticate callers beyond
// trusting this field.
type Tx struct {
	Kind    TxKind `json:"kind"`
	Caller  string `json:"caller"`
	Submit  *SubmitTx  `json:"submit,omitempty"`
	Notary  *NotaryTx  `json:"notary,omitempty"`
	Owner   *OwnerTx   `json:"owner,omitempty"`
}

// SubmitTx carries the wire-encoded fields of oracle.SubmitRequest. Caller
// and BlockHeight/NowUnix are filled in by the ABCI app from block context,
// not trusted from the transaction body.
type SubmitTx struct {
	SourceURL    string           `json:"sourceUrl"`
	ServerName   string           `json:"serverName"`
	Timestamp    int64            `json:"timestamp"`
	ResponseData []byte           `json:"responseData"`
	ProofA       oracle.G1Point   `json:"proofA"`
	ProofB       oracle.G2Point   `json:"proofB"`
	ProofC       oracle.G1Point   `json:"proofC"`
	Public       oracle.PublicSignals `json:"publicSignals"`
	SigHex       string           `json:"sigHex"`
	SigV         byte             `json:"sigV"`
}

// NotaryTx carries addNotary/removeNotary fields.
type NotaryTx struct {
	PubkeyHash string `json:"pubkeyHash"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url,omitempty"`
	RawPubkey  string `json:"rawPubkey,omitempty"` // 128 hex chars
}

// OwnerTx carries setOwner fields; migrate takes no payload beyond Caller.
type OwnerTx struct {
	NewOwner string `json:"newOwner,omitempty"`
}
