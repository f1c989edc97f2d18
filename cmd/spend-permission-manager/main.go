package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/cyphera/spend-permission-manager/client"
	"github.com/cyphera/spend-permission-manager/logger"
	"github.com/cyphera/spend-permission-manager/services"
	"github.com/cyphera/spend-permission-manager/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: Error loading .env file: %v. Proceeding with environment variables.", err)
	}

	stage := os.Getenv("STAGE")
	if stage == "" {
		stage = "local"
		log.Printf("Warning: STAGE environment variable not set, defaulting to '%s'", stage)
	}
	logger.InitLogger(stage)
	defer func() { _ = logger.Sync() }()

	rpcURL := os.Getenv("RPC_URL")
	if rpcURL == "" {
		logger.Fatal("RPC_URL environment variable is required")
	}

	chainID, err := strconv.ParseUint(os.Getenv("CHAIN_ID"), 10, 64)
	if err != nil {
		logger.Fatal("CHAIN_ID environment variable must be a valid chain ID", zap.Error(err))
	}

	managerAddress := common.HexToAddress(os.Getenv("MANAGER_ADDRESS"))
	if managerAddress == (common.Address{}) {
		logger.Fatal("MANAGER_ADDRESS environment variable is required")
	}
	fundingAddress := common.HexToAddress(os.Getenv("FUNDING_ADDRESS"))

	ctx := context.Background()

	evmClient, err := client.NewEvmClient(ctx, rpcURL, os.Getenv("OPERATOR_KEY"))
	if err != nil {
		logger.Fatal("Failed to connect to EVM RPC", zap.Error(err))
	}
	defer evmClient.Close()

	store := storage.NewMemoryStore()
	hasher := services.NewHashService(chainID, managerAddress)
	emitter := services.NewLogEmitter(logger.Log)
	periodService := services.NewPeriodService(store, hasher)
	permissionService := services.NewPermissionService(store, hasher, evmClient, emitter)
	signatureService := services.NewSignatureService(hasher, evmClient, permissionService)
	spendService := services.NewSpendService(
		store, hasher, periodService, permissionService,
		evmClient, evmClient, emitter, managerAddress, fundingAddress,
	)

	app := &application{
		permissions: permissionService,
		signatures:  signatureService,
		spends:      spendService,
	}

	logger.Info("spend permission manager initialized",
		zap.Uint64("chain_id", chainID),
		zap.String("manager_address", managerAddress.Hex()),
		zap.String("funding_address", fundingAddress.Hex()),
		zap.String("stage", stage),
		zap.Bool("ready", app.ready()),
	)
}

// application holds the wired service graph.
type application struct {
	permissions *services.PermissionService
	signatures  *services.SignatureService
	spends      *services.SpendService
}

func (a *application) ready() bool {
	return a.permissions != nil && a.signatures != nil && a.spends != nil
}
