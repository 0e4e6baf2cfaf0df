package app

import (
	"fmt"
	"log"
	"sort"

	"bridge-indexer/internal/clients"
	"bridge-indexer/internal/config"
	"bridge-indexer/internal/events"
	"bridge-indexer/internal/handlers"
	"bridge-indexer/internal/models"
	"bridge-indexer/internal/repository"
	"bridge-indexer/internal/router"
	"bridge-indexer/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const natsStreamName = "BRIDGE_INDEXER"

// ServiceContainer wires stores, collaborators and services
type ServiceContainer struct {
	Config *config.Config
	Logger *logrus.Logger

	// Database
	DB *gorm.DB

	// Repositories
	TransactionRepo repository.TransactionRepository
	DeBridgeRepo    repository.DeBridgeRepository
	MayanRepo       repository.MayanRepository
	CctxRepo        repository.CctxRepository
	FailedEventRepo repository.FailedEventRepository

	// Decoders
	DeBridgeEVM    *services.DeBridgeEventProcessor
	DeBridgeSolana *services.DeBridgeSolanaProcessor
	MayanEVM       *services.MayanEventProcessor
	MayanSolana    *services.MayanSolanaProcessor

	// Core Services
	ExtractionService *services.ExtractionService
	MiddleInfoService *services.MiddleInfoService
	CctxGenerator     *services.CctxGenerator
	MonitoringService *services.MonitoringService

	// Notifications
	NATSClient *clients.NATSClient
	Publisher  events.Publisher

	evmClients []*clients.EVMClient
}

// NewServiceContainer builds every service on top of an open database
func NewServiceContainer(cfg *config.Config, db *gorm.DB, logger *logrus.Logger) (*ServiceContainer, error) {
	log.Println("🚀 Initializing Service Container...")

	c := &ServiceContainer{Config: cfg, Logger: logger, DB: db}

	// 1. Initialize Repositories
	c.initRepositories()

	// 2. Initialize Event Services (optional, based on config)
	if err := c.initEventServices(); err != nil {
		// Event services are optional, log but don't fail
		log.Printf("⚠️ Event services initialization skipped or failed: %v", err)
		c.Publisher = events.NopPublisher{}
	}

	// 3. Initialize Core Services
	if err := c.initCoreServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize core services: %w", err)
	}

	log.Println("✅ Service Container initialized successfully")
	return c, nil
}

// initRepositories  Repository
func (c *ServiceContainer) initRepositories() {
	log.Println("📦 Initializing Repositories...")

	c.TransactionRepo = repository.NewTransactionRepository(c.DB)
	c.DeBridgeRepo = repository.NewDeBridgeRepository(c.DB)
	c.MayanRepo = repository.NewMayanRepository(c.DB)
	c.CctxRepo = repository.NewCctxRepository(c.DB)
	c.FailedEventRepo = repository.NewFailedEventRepository(c.DB)

	log.Println("✅ Repositories initialized")
}

// initEventServices NATS is optional; an empty URL disables it
func (c *ServiceContainer) initEventServices() error {
	if c.Config.NATS.URL == "" {
		c.Publisher = events.NopPublisher{}
		return nil
	}

	natsClient, err := clients.NewNATSClient(c.Config.NATS, natsStreamName)
	if err != nil {
		return err
	}
	c.NATSClient = natsClient
	c.Publisher = events.NewNATSPublisher(natsClient, c.Logger)
	log.Println("✅ NATS publisher initialized")
	return nil
}

// initCoreServices
func (c *ServiceContainer) initCoreServices() error {
	log.Println("🔧 Initializing Core Services...")

	contracts := c.Config.Contracts
	windows := c.Config.Extraction

	c.DeBridgeEVM = services.NewDeBridgeEventProcessor(c.DeBridgeRepo, c.FailedEventRepo, contracts.DeBridge, c.Logger)
	c.DeBridgeSolana = services.NewDeBridgeSolanaProcessor(c.DeBridgeRepo, c.FailedEventRepo, contracts, windows, c.Logger)
	c.MayanEVM = services.NewMayanEventProcessor(c.MayanRepo, c.FailedEventRepo, contracts.Mayan, c.Logger)
	c.MayanSolana = services.NewMayanSolanaProcessor(c.MayanRepo, c.FailedEventRepo, contracts, windows, c.Logger)

	c.ExtractionService = services.NewExtractionService(c.TransactionRepo, c.FailedEventRepo, c.Publisher, c.Logger)
	c.ExtractionService.RegisterLogProcessor(models.BridgeDeBridge, c.DeBridgeEVM)
	c.ExtractionService.RegisterLogProcessor(models.BridgeMayan, c.MayanEVM)
	c.ExtractionService.RegisterInstructionProcessor(models.BridgeDeBridge, c.DeBridgeSolana)
	c.ExtractionService.RegisterInstructionProcessor(models.BridgeMayan, c.MayanSolana)

	c.MiddleInfoService = services.NewMiddleInfoService(c.DeBridgeRepo, c.MayanRepo, c.TransactionRepo, c.Logger)

	var valuator services.Valuator = clients.NopValuator{}
	if c.Config.Valuation.BaseURL != "" {
		valuator = clients.NewValuationClient(c.Config.Valuation)
	}
	c.CctxGenerator = services.NewCctxGenerator(c.DeBridgeRepo, c.MayanRepo, c.TransactionRepo, c.CctxRepo, valuator, contracts, c.Logger)

	c.MonitoringService = services.NewMonitoringService(c.DB, c.CctxRepo)

	log.Println("✅ Core Services initialized")
	return nil
}

// InitChainClients dials every enabled network. Only extraction needs it.
func (c *ServiceContainer) InitChainClients() error {
	log.Printf("🔍 [InitChainClients] %d networks configured", len(c.Config.Blockchain.Networks))

	for _, name := range c.EVMChainNames() {
		network, err := c.Config.GetNetworkConfig(name)
		if err != nil {
			return err
		}
		client, err := clients.NewEVMClient(name, network)
		if err != nil {
			return err
		}
		c.evmClients = append(c.evmClients, client)
		c.ExtractionService.AddEVMChain(name, client, network.LogBatchSize)
	}

	if network, err := c.Config.GetNetworkConfig("solana"); err == nil {
		solanaClient, err := clients.NewSolanaClient(network, c.Config.Extraction.SignaturePageSize)
		if err != nil {
			return err
		}
		if c.Config.Extraction.DecodedDumpDir == "" {
			return fmt.Errorf("solana is enabled but extraction.decodedDumpDir is not set")
		}
		c.ExtractionService.SetSolana(solanaClient, clients.NewDumpInstructionDecoder(c.Config.Extraction.DecodedDumpDir))
	} else {
		log.Printf("⏭️  [InitChainClients] solana skipped: %v", err)
	}

	log.Printf("🎉 [InitChainClients] %d EVM client(s) ready", len(c.evmClients))
	return nil
}

// EVMChainNames enabled EVM networks in name order
func (c *ServiceContainer) EVMChainNames() []string {
	var names []string
	for name, network := range c.Config.Blockchain.Networks {
		if network.Enabled && network.Family == "evm" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Router builds the HTTP API
func (c *ServiceContainer) Router() *gin.Engine {
	return router.SetupRouter(router.Handlers{
		Health:       handlers.NewHealthHandler(c.DB),
		Cctx:         handlers.NewCctxHandler(c.CctxRepo, c.Logger),
		FailedEvents: handlers.NewFailedEventHandler(c.FailedEventRepo, c.Logger),
	}, c.Config.Server.AdminAllowedIPs, c.Logger)
}

// Close releases network clients
func (c *ServiceContainer) Close() {
	for _, client := range c.evmClients {
		client.Close()
	}
	if c.NATSClient != nil {
		c.NATSClient.Close()
	}
}
