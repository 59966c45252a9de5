// Copyright 2025 Certen Protocol

package anchor

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/certen/tls-oracle/accumulate-lite-client-2/liteclient/api"
	"github.com/certen/tls-oracle/pkg/accumulate"
	"github.com/certen/tls-oracle/pkg/merkle"
	"github.com/certen/tls-oracle/pkg/oracle"
	"github.com/certen/tls-oracle/pkg/oraclestore"
)

// fakeAccumulateClient implements accumulate.Client plus SubmitWriteData,
// the extra method the real LiteClientAdapter exposes and that Publisher
// type-asserts for.
type fakeAccumulateClient struct {
	submitted []string
}

func (f *fakeAccumulateClient) GetAccount(ctx context.Context, url string) (*api.APIResponse, error) {
	return &api.APIResponse{}, nil
}
func (f *fakeAccumulateClient) GetTransaction(ctx context.Context, hash string) (*accumulate.Transaction, error) {
	return &accumulate.Transaction{}, nil
}
func (f *fakeAccumulateClient) SearchCertenTransactions(ctx context.Context, fromHeight int64) ([]*accumulate.CertenTransaction, error) {
	return nil, nil
}
func (f *fakeAccumulateClient) GetMerkleProofForCertenTx(ctx context.Context, tx *accumulate.CertenTransaction) (*accumulate.MerkleProof, error) {
	return &accumulate.MerkleProof{}, nil
}
func (f *fakeAccumulateClient) GetBlock(ctx context.Context, height uint64) (*accumulate.Block, error) {
	return &accumulate.Block{}, nil
}
func (f *fakeAccumulateClient) GetLatestBlock(ctx context.Context) (*accumulate.Block, error) {
	return &accumulate.Block{}, nil
}
func (f *fakeAccumulateClient) GetKeyBook(ctx context.Context, url string) (*accumulate.KeyBook, error) {
	return &accumulate.KeyBook{}, nil
}
func (f *fakeAccumulateClient) GetKeyPage(ctx context.Context, url string) (*accumulate.KeyPage, error) {
	return &accumulate.KeyPage{}, nil
}
func (f *fakeAccumulateClient) VerifySignature(ctx context.Context, message, signature, publicKey string) (bool, error) {
	return true, nil
}
func (f *fakeAccumulateClient) GetTransactionGovernanceData(ctx context.Context, txHash string, accountURL string) (*accumulate.TransactionGovernanceData, error) {
	return &accumulate.TransactionGovernanceData{}, nil
}
func (f *fakeAccumulateClient) Health(ctx context.Context) error { return nil }
func (f *fakeAccumulateClient) Close() error                     { return nil }

func (f *fakeAccumulateClient) SubmitWriteData(ctx context.Context, principal string, txData []byte) (string, error) {
	f.submitted = append(f.submitted, principal)
	return "fake-tx-hash", nil
}

func newTestRegistry(t *testing.T) *oracle.Registry {
	t.Helper()
	kv := oraclestore.NewMemory()
	reg := oracle.NewRegistry(kv)
	require.NoError(t, reg.Init("alice"))
	return reg
}

func TestPublishOnceNoopWhenEmpty(t *testing.T) {
	reg := newTestRegistry(t)
	client := &fakeAccumulateClient{}
	pub := NewPublisher(reg, client, "acc://tls-oracle.acme/anchors", 0, nil)

	cp, err := pub.PublishOnce(context.Background())
	require.NoError(t, err)
	require.Nil(t, cp)
	require.Empty(t, client.submitted)
}

func TestAttestationLeafIsDeterministic(t *testing.T) {
	rec := oracle.AttestationRecord{ID: 1, DataCommitment: "123", ServerNameHash: "456", NotaryPubkeyHash: "789"}
	a := attestationLeaf(rec)
	b := attestationLeaf(rec)
	require.Equal(t, a, b)
	require.Len(t, a, 32)

	other := rec
	other.DataCommitment = "999"
	require.NotEqual(t, a, attestationLeaf(other))
}

// TestInclusionReceiptRoundTrips exercises InclusionReceipt against a
// checkpoint built the same way PublishOnce builds one, without needing a
// full Submit (registry + circuit + signature) to populate the registry.
func TestInclusionReceiptRoundTrips(t *testing.T) {
	reg := newTestRegistry(t)
	pub := NewPublisher(reg, &fakeAccumulateClient{}, "acc://tls-oracle.acme/anchors", 0, nil)

	leaves := [][]byte{
		attestationLeaf(oracle.AttestationRecord{ID: 1, DataCommitment: "1", ServerNameHash: "1", NotaryPubkeyHash: "1"}),
		attestationLeaf(oracle.AttestationRecord{ID: 2, DataCommitment: "2", ServerNameHash: "1", NotaryPubkeyHash: "1"}),
		attestationLeaf(oracle.AttestationRecord{ID: 3, DataCommitment: "3", ServerNameHash: "1", NotaryPubkeyHash: "1"}),
	}
	tree, err := merkle.BuildTree(leaves)
	require.NoError(t, err)

	cp := Checkpoint{FromID: 1, ToID: 3, MerkleRoot: tree.RootHex()}
	pub.checkpoints = append(pub.checkpoints, cp)
	pub.trees[cp.ToID] = tree

	receipt, err := pub.InclusionReceipt(2)
	require.NoError(t, err)
	require.NoError(t, receipt.Validate())
	require.Equal(t, hex.EncodeToString(leaves[1]), receipt.Start)
	require.Equal(t, tree.RootHex(), receipt.Anchor)
	require.Equal(t, cp.ToID, receipt.LocalBlock)

	bin, err := receipt.ToBinary()
	require.NoError(t, err)
	require.NoError(t, bin.Validate())
	require.Equal(t, receipt, bin.ToHex())
}

func TestInclusionReceiptUnknownAttestation(t *testing.T) {
	reg := newTestRegistry(t)
	pub := NewPublisher(reg, &fakeAccumulateClient{}, "acc://tls-oracle.acme/anchors", 0, nil)

	_, err := pub.InclusionReceipt(1)
	require.Error(t, err)
}
