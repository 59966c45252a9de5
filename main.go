package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/certen/tls-oracle/pkg/accumulate"
	"github.com/certen/tls-oracle/pkg/anchor"
	"github.com/certen/tls-oracle/pkg/audit"
	"github.com/certen/tls-oracle/pkg/config"
	"github.com/certen/tls-oracle/pkg/firestore"
	"github.com/certen/tls-oracle/pkg/host"
	"github.com/certen/tls-oracle/pkg/metrics"
	"github.com/certen/tls-oracle/pkg/oracle"
	"github.com/certen/tls-oracle/pkg/oraclestore"
	"github.com/certen/tls-oracle/pkg/reporting"
	"github.com/certen/tls-oracle/pkg/server"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("🚀 starting tls-oracle host")

	var (
		owner    = flag.String("owner", "oracle-admin", "owner principal to initialize the registry with on first run")
		showHelp = flag.Bool("help", false, "show help message")
	)
	flag.Parse()
	if *showHelp {
		printHelp()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	kv, err := oraclestore.OpenLevelDB(cfg.DBName, cfg.DataDir)
	if err != nil {
		log.Fatalf("opening oracle store: %v", err)
	}

	reg := oracle.NewRegistry(kv)
	if err := reg.Init(*owner); err != nil && !errors.Is(err, oracle.ErrAlreadyInitialized) {
		log.Fatalf("initializing registry: %v", err)
	}

	if err := bootstrapNotaries(reg, *owner, cfg); err != nil {
		log.Printf("⚠️ notary bootstrap failed: %v", err)
	}

	promReg := prometheus.NewRegistry()
	oracleMetrics := metrics.NewOracle(promReg)

	app := host.NewApp(reg, cfg.ChainID, oracleMetrics)

	reportingClient := mustOptionalReporting(cfg)
	auditMirror := mustOptionalAudit(cfg)
	anchorPublisher := mustOptionalAnchor(reg, cfg)
	app.SetOnAccepted(func(rec oracle.AttestationRecord) {
		ctx := context.Background()
		if reportingClient != nil {
			if err := reportingClient.MirrorAttestation(ctx, rec); err != nil {
				log.Printf("⚠️ reporting mirror: %v", err)
			}
		}
		if auditMirror != nil {
			if err := auditMirror.RecordAccepted(ctx, rec); err != nil {
				log.Printf("⚠️ audit mirror: %v", err)
			}
		}
	})

	cometCfg := host.NewCometConfig(cfg.DataDir, cfg.P2PPort, cfg.RPCPort)
	node, err := host.NewNode(cometCfg, app, cfg.ChainID, nil)
	if err != nil {
		log.Fatalf("creating cometbft node: %v", err)
	}

	mux := server.NewHandlers(reg, oracleMetrics, nil).Mux()
	mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := node.Start(); err != nil {
		log.Fatalf("starting cometbft node: %v", err)
	}
	log.Printf("✅ cometbft consensus engine started (chain=%s)", cfg.ChainID)

	if anchorPublisher != nil {
		go func() {
			if err := anchorPublisher.Start(ctx); err != nil {
				log.Printf("anchor publisher stopped: %v", err)
			}
		}()
	}

	go func() {
		log.Printf("🌐 oracle API listening on %s", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("🛑 shutting down tls-oracle host")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("http server shutdown error: %v", err)
	}
	if err := node.Stop(); err != nil {
		log.Printf("cometbft node stop error: %v", err)
	}
	if reportingClient != nil {
		reportingClient.Close()
	}

	log.Printf("✅ tls-oracle host stopped")
}

func bootstrapNotaries(reg *oracle.Registry, owner string, cfg *config.Config) error {
	notaries, err := cfg.LoadNotaryBootstrap()
	if err != nil {
		return err
	}
	for _, n := range notaries {
		if err := reg.AddNotary(owner, n.PubkeyHash, n.Name, n.URL, n.RawPubkey, 0); err != nil {
			return err
		}
		log.Printf("📋 bootstrapped notary %s (%s)", n.Name, n.PubkeyHash)
	}
	return nil
}

func mustOptionalReporting(cfg *config.Config) *reporting.Client {
	if cfg.ReportingDSN == "" {
		return nil
	}
	c, err := reporting.NewClient(reporting.Config{
		DSN:             cfg.ReportingDSN,
		MaxOpenConns:    cfg.ReportingMaxOpenConn,
		MaxIdleConns:    cfg.ReportingMaxIdleConn,
		ConnMaxLifetime: cfg.ReportingConnLifetime,
	})
	if err != nil {
		log.Printf("⚠️ reporting mirror disabled: %v", err)
		return nil
	}
	if err := c.Migrate(context.Background()); err != nil {
		log.Printf("⚠️ reporting migration failed: %v", err)
	}
	return c
}

func mustOptionalAudit(cfg *config.Config) *audit.Mirror {
	fsClient, err := firestore.NewClient(context.Background(), &firestore.ClientConfig{
		ProjectID:       cfg.FirebaseProjectID,
		CredentialsFile: cfg.FirebaseCredentialsFile,
		Enabled:         cfg.FirestoreEnabled,
	})
	if err != nil {
		log.Printf("⚠️ firestore audit mirror disabled: %v", err)
		return nil
	}
	return audit.NewMirror(fsClient, "", nil)
}

func mustOptionalAnchor(reg *oracle.Registry, cfg *config.Config) *anchor.Publisher {
	if cfg.AccumulateURL == "" {
		return nil
	}
	accClient, err := accumulate.NewLiteClientAdapter(&accumulate.LiteClientConfig{
		NetworkURL:     cfg.AccumulateURL,
		EnableCaching:  true,
		RequestTimeout: 30 * time.Second,
	})
	if err != nil {
		log.Printf("⚠️ anchor publisher disabled, accumulate client failed: %v", err)
		return nil
	}
	principal := "acc://" + cfg.ChainID + ".acme/anchors"
	return anchor.NewPublisher(reg, accClient, principal, cfg.AnchorCadence, nil)
}

func printHelp() {
	log.Println("tls-oracle: CometBFT-hosted TLS attestation oracle")
	log.Println("  -owner string   owner principal to initialize the registry with on first run")
	log.Println("  -help           show this message")
}
