package main

import (
	"context"
	"log"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/devdash/profile-backend/config"
	"github.com/devdash/profile-backend/internal/auth"
	"github.com/devdash/profile-backend/internal/bootstrap"
	"github.com/devdash/profile-backend/internal/budget"
	"github.com/devdash/profile-backend/internal/chain"
	"github.com/devdash/profile-backend/internal/extensions"
	"github.com/devdash/profile-backend/internal/ipfs"
	profilehttp "github.com/devdash/profile-backend/internal/profile/http"
	"github.com/devdash/profile-backend/internal/profile/repository"
	"github.com/devdash/profile-backend/internal/profile/service"
	"github.com/devdash/profile-backend/internal/publish"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
		DSN:      cfg.DB.DSN,
		MaxConns: cfg.DB.MaxConns,
		MinConns: cfg.DB.MinConns,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, bootstrap.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	eth, err := ethclient.DialContext(ctx, cfg.Chain.RPCURL)
	if err != nil {
		log.Fatalf("chain rpc: %v", err)
	}
	defer eth.Close()

	ipfsClient := ipfs.NewClient(ipfs.Options{
		APIURL:  cfg.IPFS.APIURL,
		Gateway: cfg.IPFS.GatewayURL,
		Timeout: cfg.IPFS.Timeout,
	})

	budgetRepo := budget.NewRepo(db)
	spot := budget.NewSpotClient("")
	budgetSvc := budget.NewService(budgetRepo, eth, spot, cfg.Chain.RecipientWallet)

	relay, err := chain.NewRelay(eth, budgetRepo, cfg.Chain.ContractAddress, cfg.Chain.OperatorKeyHex, int64(cfg.Chain.ChainID))
	if err != nil {
		log.Fatalf("relay: %v", err)
	}
	walletBridge := chain.NewWalletBridge(cfg.Chain.WalletBridgeURL)
	pointerReader := chain.NewPointerReader(eth, cfg.Chain.ContractAddress)

	cacheRepo := repository.NewCacheRepository(db)
	draftRepo := repository.NewDraftRepository(rdb)

	retryQueue := publish.NewRedisRetryQueue(rdb)
	pipeline := publish.NewPipeline(ipfsClient, relay, walletBridge, cacheRepo, retryQueue)

	engine := service.NewEngine(draftRepo, cacheRepo, pointerReader, ipfsClient, pipeline)

	flusher := publish.NewRetryFlusher(retryQueue, cacheRepo)
	flusher.Start()
	defer flusher.Stop()

	challenges := auth.NewChallengeStore(rdb, cfg.Auth.NonceTTL)
	sessions := auth.NewSessionStore(rdb, cfg.Auth.SessionTTL)
	authHandler := auth.NewHandler(challenges, sessions, engine, auth.HandlerOptions{
		Domain:    cfg.Auth.Domain,
		URI:       cfg.Auth.URI,
		Statement: cfg.Auth.Statement,
		ChainID:   cfg.Chain.ChainID,
		Secure:    cfg.Auth.CookieSecure,
	})

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: "profile-backend",
		Version:     cfg.App.Version,
		CORSOrigins: cfg.Server.CORSOrigins,
		DB:          db,
		Redis:       rdb,
		Sessions:    sessions,
		Auth:        authHandler,
		Profile:     profilehttp.NewHandler(engine),
		Budget:      budget.NewHandler(budgetSvc),
		Extensions:  extensions.NewHandler(extensions.NewRepo(rdb)),
	})

	log.Printf("listening on :%s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
