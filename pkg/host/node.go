// Copyright 2025 Certen Protocol

package host

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	abcitypes "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/config"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	cmttypes "github.com/cometbft/cometbft/types"
)

// NewCometConfig builds a CometBFT config rooted at dataDir, with the
// oracle's own listen addresses substituted in for the library defaults.
func NewCometConfig(dataDir string, p2pPort, rpcPort int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SetRoot(dataDir)
	cfg.P2P.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", p2pPort)
	cfg.RPC.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", rpcPort)
	cfg.Consensus.CreateEmptyBlocks = true
	cfg.Consensus.CreateEmptyBlocksInterval = 5 * time.Second
	return cfg
}

// EnsureSingleValidatorGenesis writes a genesis document naming pv as the
// network's sole validator, if one does not already exist at
// cometCfg.GenesisFile(). This is the devnet/single-node bootstrap path;
// a multi-validator oracle network supplies its own shared genesis out of
// band and this function is a no-op once that file exists.
func EnsureSingleValidatorGenesis(cometCfg *config.Config, pv *privval.FilePV, chainID string) error {
	genFile := cometCfg.GenesisFile()
	if _, err := os.Stat(genFile); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(genFile), 0o755); err != nil {
		return fmt.Errorf("host: creating genesis directory: %w", err)
	}

	pubKey, err := pv.GetPubKey()
	if err != nil {
		return fmt.Errorf("host: reading validator public key: %w", err)
	}

	doc := &cmttypes.GenesisDoc{
		ChainID:         chainID,
		GenesisTime:     time.Now(),
		InitialHeight:   1,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		Validators: []cmttypes.GenesisValidator{
			{Address: pubKey.Address(), PubKey: pubKey, Power: 1, Name: "oracle-0"},
		},
	}
	if err := doc.SaveAs(genFile); err != nil {
		return fmt.Errorf("host: writing genesis document: %w", err)
	}
	return nil
}

// NewNode wires app into a running CometBFT in-process node, generating a
// private validator key and node key under cometCfg.RootDir on first run
// (the same privval.FilePV/p2p.NodeKey flow CometBFT's own `init` command
// uses) and a single-validator genesis if none exists yet.
func NewNode(cometCfg *config.Config, app abcitypes.Application, chainID string, logger *log.Logger) (*node.Node, error) {
	pv := privval.LoadOrGenFilePV(cometCfg.PrivValidatorKeyFile(), cometCfg.PrivValidatorStateFile())

	nodeKey, err := p2p.LoadOrGenNodeKey(cometCfg.NodeKeyFile())
	if err != nil {
		return nil, fmt.Errorf("host: loading/generating node key: %w", err)
	}

	if err := EnsureSingleValidatorGenesis(cometCfg, pv, chainID); err != nil {
		return nil, err
	}

	tmLogger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)).With("module", "cometbft")

	n, err := node.NewNode(
		cometCfg,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(app),
		node.DefaultGenesisDocProviderFunc(cometCfg),
		node.DefaultDBProvider,
		node.DefaultMetricsProvider(cometCfg.Instrumentation),
		tmLogger,
	)
	if err != nil {
		return nil, fmt.Errorf("host: creating cometbft node: %w", err)
	}
	return n, nil
}
