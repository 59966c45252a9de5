// Copyright 2025 Certen Protocol
//
// Package host runs the oracle verification core (pkg/oracle) as a
// CometBFT ABCI application — the linearized, transactional process the
// core's concurrency model assumes but never names. Each FinalizeBlock/
// Commit cycle applies a batch of Tx values to one oracle.Registry in
// order, one at a time, matching §5's "single-threaded transactional
// host... no suspension points".
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"

	"github.com/certen/tls-oracle/pkg/metrics"
	"github.com/certen/tls-oracle/pkg/oracle"
)

// App adapts oracle.Registry to the CometBFT ABCI Application interface.
type App struct {
	logger *log.Logger
	mu     sync.RWMutex

	reg *oracle.Registry

	chainID        string
	latestHeight   int64
	lastCommitHash []byte

	currentBlockHeight uint64
	currentBlockTime   time.Time

	metrics *metrics.Oracle

	// onAccepted, if set, is called synchronously after an attestation is
	// committed by Submit, before applyTx returns. It is used to fan the
	// commit out to best-effort mirrors (pkg/reporting, pkg/audit); a
	// mirror error is logged by the hook itself and never aborts the tx.
	onAccepted func(oracle.AttestationRecord)
}

// NewApp wraps an already-initialized oracle.Registry (see oracle.Registry.Init)
// backed by committed storage, for a given chain id.
func NewApp(reg *oracle.Registry, chainID string, m *metrics.Oracle) *App {
	return &App{
		logger:  log.New(log.Writer(), "[OracleHost] ", log.LstdFlags),
		reg:     reg,
		chainID: chainID,
		metrics: m,
	}
}

// SetOnAccepted installs a hook invoked with every newly committed
// attestation. Call it once during startup wiring, before the node starts
// processing blocks.
func (a *App) SetOnAccepted(fn func(oracle.AttestationRecord)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onAccepted = fn
}

func (a *App) Info(ctx context.Context, req *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return &abcitypes.ResponseInfo{
		Data:             "Certen TLS Attestation Oracle",
		Version:          "1.0.0",
		AppVersion:       1,
		LastBlockHeight:  a.latestHeight,
		LastBlockAppHash: a.lastCommitHash,
	}, nil
}

// CheckTx runs cheap, storage-blind validation: well-formed JSON and a
// recognized Tx kind. It intentionally does not run the full ordered
// check sequence from oracle.Registry.Submit (no storage access is
// available here), mirroring how the teacher's CheckTx validates shape
// without touching the ledger.
func (a *App) CheckTx(ctx context.Context, req *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	var tx Tx
	if err := json.Unmarshal(req.Tx, &tx); err != nil {
		return &abcitypes.ResponseCheckTx{Code: 1, Log: "invalid tx JSON: " + err.Error()}, nil
	}
	switch tx.Kind {
	case TxSubmit, TxAddNotary, TxRemoveNotary, TxSetOwner, TxMigrate:
	default:
		return &abcitypes.ResponseCheckTx{Code: 2, Log: "unknown tx kind: " + string(tx.Kind)}, nil
	}
	return &abcitypes.ResponseCheckTx{Code: 0, GasWanted: 1, GasUsed: 1, Log: "accepted"}, nil
}

func (a *App) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.currentBlockHeight = uint64(req.Height)
	a.currentBlockTime = req.Time

	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, txBytes := range req.Txs {
		result := a.applyTx(txBytes)
		results[i] = &result
	}
	return &abcitypes.ResponseFinalizeBlock{TxResults: results}, nil
}

// applyTx dispatches one transaction to the corresponding oracle.Registry
// method. The first oracle error aborts that transaction only — earlier
// transactions in the same block have already committed their storage
// writes, matching CometBFT's per-transaction (not per-block) atomicity.
func (a *App) applyTx(txBytes []byte) abcitypes.ExecTxResult {
	var tx Tx
	if err := json.Unmarshal(txBytes, &tx); err != nil {
		return abcitypes.ExecTxResult{Code: 1, Log: "invalid tx JSON: " + err.Error()}
	}

	var err error
	switch tx.Kind {
	case TxSubmit:
		if tx.Submit == nil {
			return abcitypes.ExecTxResult{Code: 2, Log: "missing submit payload"}
		}
		var id uint64
		id, err = a.reg.Submit(oracle.SubmitRequest{
			SourceURL:    tx.Submit.SourceURL,
			ServerName:   tx.Submit.ServerName,
			Timestamp:    tx.Submit.Timestamp,
			ResponseData: tx.Submit.ResponseData,
			ProofA:       tx.Submit.ProofA,
			ProofB:       tx.Submit.ProofB,
			ProofC:       tx.Submit.ProofC,
			Public:       tx.Submit.Public,
			SigHex:       tx.Submit.SigHex,
			SigV:         tx.Submit.SigV,
			Submitter:    tx.Caller,
			BlockHeight:  a.currentBlockHeight,
			NowUnix:      a.currentBlockTime.Unix(),
		})
		if err == nil {
			a.observeAccepted()
			if a.onAccepted != nil {
				if rec, recErr := a.reg.GetAttestation(id); recErr == nil {
					a.onAccepted(rec)
				}
			}
			return abcitypes.ExecTxResult{
				Code: 0,
				Log:  fmt.Sprintf("attestation accepted: id=%d", id),
				Events: []abcitypes.Event{{
					Type: "attestation",
					Attributes: []abcitypes.EventAttribute{
						{Key: "id", Value: fmt.Sprintf("%d", id)},
						{Key: "server_name", Value: tx.Submit.ServerName},
					},
				}},
			}
		}
	case TxAddNotary:
		if tx.Notary == nil {
			return abcitypes.ExecTxResult{Code: 2, Log: "missing notary payload"}
		}
		err = a.reg.AddNotary(tx.Caller, tx.Notary.PubkeyHash, tx.Notary.Name, tx.Notary.URL, tx.Notary.RawPubkey, a.currentBlockHeight)
		if err == nil {
			a.logger.Printf("notary added/updated: %s", tx.Notary.PubkeyHash)
		}
	case TxRemoveNotary:
		if tx.Notary == nil {
			return abcitypes.ExecTxResult{Code: 2, Log: "missing notary payload"}
		}
		err = a.reg.RemoveNotary(tx.Caller, tx.Notary.PubkeyHash)
		if err == nil {
			a.logger.Printf("notary removed: %s", tx.Notary.PubkeyHash)
		}
	case TxSetOwner:
		if tx.Owner == nil {
			return abcitypes.ExecTxResult{Code: 2, Log: "missing owner payload"}
		}
		err = a.reg.SetOwner(tx.Caller, tx.Owner.NewOwner)
	case TxMigrate:
		err = a.reg.Migrate(tx.Caller)
	default:
		return abcitypes.ExecTxResult{Code: 2, Log: "unknown tx kind: " + string(tx.Kind)}
	}

	if err != nil {
		a.observeRejected(err)
		return abcitypes.ExecTxResult{Code: 3, Log: err.Error()}
	}
	return abcitypes.ExecTxResult{Code: 0, Log: "ok"}
}

func (a *App) observeAccepted() {
	if a.metrics != nil {
		a.metrics.SubmissionsAccepted.Inc()
	}
}

func (a *App) observeRejected(err error) {
	if a.metrics != nil {
		a.metrics.SubmissionsRejected.WithLabelValues(metrics.RejectReason(err)).Inc()
	}
}

func (a *App) Commit(ctx context.Context, req *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.latestHeight++
	a.lastCommitHash = appHash(a.currentBlockHeight, a.currentBlockTime)
	return &abcitypes.ResponseCommit{}, nil
}

// appHash is a deterministic, cheap summary of the last committed block;
// it is not a Merkle root over the oracle's full state (see pkg/anchor for
// that), only an ABCI liveness signal.
func appHash(height uint64, t time.Time) []byte {
	return []byte(fmt.Sprintf("%d:%d", height, t.UnixNano()))
}

func (a *App) Query(ctx context.Context, req *abcitypes.RequestQuery) (*abcitypes.ResponseQuery, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	switch req.Path {
	case "/attestation":
		var id uint64
		if _, err := fmt.Sscanf(string(req.Data), "%d", &id); err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: "bad id"}, nil
		}
		rec, err := a.reg.GetAttestation(id)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
		}
		b, _ := json.Marshal(rec)
		return &abcitypes.ResponseQuery{Code: 0, Value: b}, nil
	case "/attestations":
		recs, err := a.reg.GetAttestations(nil, nil)
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
		}
		b, _ := json.Marshal(recs)
		return &abcitypes.ResponseQuery{Code: 0, Value: b}, nil
	case "/notaries":
		recs, err := a.reg.GetNotaries()
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
		}
		b, _ := json.Marshal(recs)
		return &abcitypes.ResponseQuery{Code: 0, Value: b}, nil
	case "/stats":
		stats, err := a.reg.GetStats()
		if err != nil {
			return &abcitypes.ResponseQuery{Code: 1, Log: err.Error()}, nil
		}
		b, _ := json.Marshal(stats)
		return &abcitypes.ResponseQuery{Code: 0, Value: b}, nil
	default:
		return &abcitypes.ResponseQuery{Code: 2, Log: "unknown query path: " + req.Path}, nil
	}
}

func (a *App) InitChain(ctx context.Context, req *abcitypes.RequestInitChain) (*abcitypes.ResponseInitChain, error) {
	a.logger.Printf("initializing oracle host, chain=%s", req.ChainId)
	return &abcitypes.ResponseInitChain{}, nil
}

func (a *App) PrepareProposal(ctx context.Context, req *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	return &abcitypes.ResponsePrepareProposal{Txs: req.Txs}, nil
}

func (a *App) ProcessProposal(ctx context.Context, req *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	for _, txBytes := range req.Txs {
		var tx Tx
		if err := json.Unmarshal(txBytes, &tx); err != nil {
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

func (a *App) ExtendVote(ctx context.Context, req *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (a *App) VerifyVoteExtension(ctx context.Context, req *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (a *App) ListSnapshots(ctx context.Context, req *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (a *App) OfferSnapshot(ctx context.Context, req *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{Result: abcitypes.ResponseOfferSnapshot_ABORT}, nil
}

func (a *App) LoadSnapshotChunk(ctx context.Context, req *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (a *App) ApplySnapshotChunk(ctx context.Context, req *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{Result: abcitypes.ResponseApplySnapshotChunk_ABORT}, nil
}
