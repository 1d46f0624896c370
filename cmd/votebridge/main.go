package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/votebridge/VoteBridge/internal/binding"
	config "github.com/votebridge/VoteBridge/internal/config"
	"github.com/votebridge/VoteBridge/internal/coordinator"
	db "github.com/votebridge/VoteBridge/internal/database/connection"
	repositories "github.com/votebridge/VoteBridge/internal/database/repositories"
	"github.com/votebridge/VoteBridge/internal/identity"
	"github.com/votebridge/VoteBridge/internal/ledger"
	"github.com/votebridge/VoteBridge/internal/ledger/chaincode"
	"github.com/votebridge/VoteBridge/internal/ledger/ethereum"
	"github.com/votebridge/VoteBridge/internal/log"
	"github.com/votebridge/VoteBridge/internal/provision"
	"github.com/votebridge/VoteBridge/internal/results"
	"github.com/votebridge/VoteBridge/internal/voters"
)

var configFile string

var (
	electionId  uint
	candidateId uint
	voterId     uint
	ledgerKind  string
)

type app struct {
	cache       *binding.Cache
	clients     map[ledger.Kind]ledger.Client
	provisioner *provision.Provisioner
	mapper      *identity.Mapper
	coordinator *coordinator.Coordinator
	resolver    *results.Resolver
	refresher   *binding.Refresher
	voters      *voters.Service
}

func initializeApp() (*app, error) {
	err := config.InitializeGlobalConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	err = db.InitializeGlobalDB(config.GlobalConfig.DatabaseConfig.File)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	err = repositories.InitializeGlobalRepositories(db.GlobalDB)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize repositories: %w", err)
	}

	bindingConfig := config.GlobalConfig.BindingConfig
	cache := binding.NewCache(bindingConfig.Size(), bindingConfig.TTL())

	clients := make(map[ledger.Kind]ledger.Client)
	var ethereumCaller ethereum.ContractCaller

	if config.GlobalConfig.EthereumConfig.Enabled {
		caller, err := ethereum.NewRPCCaller(config.GlobalConfig.EthereumConfig.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to immutable ledger node: %w", err)
		}

		client, err := ethereum.NewImmutableClient(config.GlobalConfig.EthereumConfig, caller, cache)
		if err != nil {
			return nil, err
		}

		clients[ledger.Immutable] = client
		ethereumCaller = caller
	}

	if config.GlobalConfig.MutableConfig.Enabled {
		caller, err := ethereum.NewRPCCaller(config.GlobalConfig.MutableConfig.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mutable ledger node: %w", err)
		}

		client, err := ethereum.NewMutableClient(config.GlobalConfig.MutableConfig, caller, cache)
		if err != nil {
			return nil, err
		}

		clients[ledger.Mutable] = client

		if ethereumCaller == nil {
			ethereumCaller = caller
		}
	}

	if config.GlobalConfig.ChaincodeConfig.Enabled {
		invoker := chaincode.NewPeerInvoker(config.GlobalConfig.ChaincodeConfig)
		clients[ledger.Chaincode] = chaincode.NewClient(config.GlobalConfig.ChaincodeConfig, invoker, cache)
	}

	provisioner := provision.NewProvisioner(repositories.GlobalElectionRepository, repositories.GlobalCandidateRepository)
	mapper := identity.NewMapper(repositories.GlobalCandidateRepository)

	voteCoordinator := coordinator.NewCoordinator(
		repositories.GlobalElectionRepository,
		repositories.GlobalCandidateRepository,
		repositories.GlobalBallotRepository,
		repositories.GlobalVoterRepository,
		provisioner,
		mapper,
	)

	resolver := results.NewResolver(
		repositories.GlobalElectionRepository,
		repositories.GlobalCandidateRepository,
		repositories.GlobalBallotRepository,
		mapper,
		clients[ledger.Mutable],
		clients[ledger.Immutable],
	)

	clientList := make([]ledger.Client, 0, len(clients))
	for _, client := range clients {
		clientList = append(clientList, client)
	}

	refresher := binding.NewRefresher(
		cache,
		repositories.GlobalElectionRepository,
		repositories.GlobalCandidateRepository,
		provisioner,
		clientList,
	)

	var voterService *voters.Service
	if ethereumCaller != nil {
		voterService = voters.NewService(
			repositories.GlobalVoterRepository,
			repositories.GlobalBallotRepository,
			repositories.GlobalCandidateRepository,
			ethereumCaller,
		)
	}

	return &app{
		cache:       cache,
		clients:     clients,
		provisioner: provisioner,
		mapper:      mapper,
		coordinator: voteCoordinator,
		resolver:    resolver,
		refresher:   refresher,
		voters:      voterService,
	}, nil
}

func (application *app) client(name string) (ledger.Client, error) {
	kind := ledger.Kind(name)

	client, ok := application.clients[kind]
	if !ok {
		return nil, fmt.Errorf("ledger %q is not enabled", name)
	}

	return client, nil
}

var mainCmd = &cobra.Command{
	Use:   "votebridge",
	Short: "Coordinates election state between the relational store and the vote ledgers",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep active elections provisioned on every enabled ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			provisionActiveElections(ctx, application)

			select {
			case <-ctx.Done():
				log.Info("shutting down")
				return db.CloseDatabaseConnection(db.GlobalDB)
			case <-ticker.C:
			}
		}
	},
}

func provisionActiveElections(ctx context.Context, application *app) {
	elections, err := repositories.GlobalElectionRepository.GetActiveElections()
	if err != nil {
		log.Error("failed to list active elections", zap.Error(err))
		return
	}

	for _, election := range elections {
		for kind, client := range application.clients {
			_, err := application.provisioner.EnsureProvisioned(ctx, client, election.Id)

			if err != nil {
				log.Warn("provisioning failed",
					zap.Uint("electionId", election.Id),
					zap.String("kind", string(kind)),
					zap.Error(err))
			}
		}
	}
}

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Mirror an election and its candidates onto a ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		client, err := application.client(ledgerKind)
		if err != nil {
			return err
		}

		election, err := application.provisioner.EnsureProvisioned(cmd.Context(), client, electionId)
		if err != nil {
			return err
		}

		record := election.Ledgers[client.Kind()]
		fmt.Printf("election %d provisioned on %s as %d (binding %s)\n",
			election.Id, ledgerKind, record.NativeId, record.Binding)

		return nil
	},
}

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Resolve election results from the best available source",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		tally, err := application.resolver.Resolve(cmd.Context(), electionId)
		if err != nil {
			return err
		}

		fmt.Printf("election %d results (source: %s, total votes: %d)\n",
			electionId, tally.Source, tally.TotalVotes)

		for _, entry := range tally.Results {
			fmt.Printf("  %-30s %d\n", entry.Name, entry.VoteCount)
		}

		return nil
	},
}

var refreshBindingCmd = &cobra.Command{
	Use:   "refresh-binding",
	Short: "Force fresh ledger bindings and re-provision active elections",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		err = application.refresher.Refresh(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Println("ledger bindings refreshed")
		return nil
	},
}

var castCmd = &cobra.Command{
	Use:   "cast",
	Short: "Cast a ballot through a ledger",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		client, err := application.client(ledgerKind)
		if err != nil {
			return err
		}

		ballot, err := application.coordinator.CastVote(cmd.Context(), client, electionId, candidateId, voterId)
		if err != nil {
			return err
		}

		fmt.Printf("ballot cast, tx %s\n", ballot.TxRef)
		return nil
	},
}

var updateVoteCmd = &cobra.Command{
	Use:   "update-vote",
	Short: "Move an existing ballot to another candidate",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		client, err := application.client(ledgerKind)
		if err != nil {
			return err
		}

		update := application.coordinator.UpdateVote
		if client.Kind() == ledger.Chaincode {
			update = application.coordinator.UpdateChaincodeVote
		}

		ballot, err := update(cmd.Context(), client, electionId, candidateId, voterId)
		if err != nil {
			return err
		}

		fmt.Printf("ballot updated, tx %s\n", ballot.TxRef)
		return nil
	},
}

var assignWalletCmd = &cobra.Command{
	Use:   "assign-wallet",
	Short: "Assign an unlocked node account to a voter",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := initializeApp()
		if err != nil {
			return err
		}

		if application.voters == nil {
			return fmt.Errorf("no ethereum ledger enabled, nothing to assign from")
		}

		wallet, err := application.voters.AssignWallet(cmd.Context(), voterId)
		if err != nil {
			return err
		}

		fmt.Printf("voter %d wallet: %s\n", voterId, wallet)
		return nil
	},
}

func main() {
	mainFlags := mainCmd.PersistentFlags()
	mainFlags.StringVar(&configFile, "config", "config/config.yml", "path to configuration file")

	for _, cmd := range []*cobra.Command{provisionCmd, resultsCmd, castCmd, updateVoteCmd} {
		cmd.Flags().UintVar(&electionId, "election", 0, "local election id")
		cmd.MarkFlagRequired("election")
	}

	for _, cmd := range []*cobra.Command{castCmd, updateVoteCmd} {
		cmd.Flags().UintVar(&candidateId, "candidate", 0, "local candidate id")
		cmd.Flags().UintVar(&voterId, "voter", 0, "local voter id")
		cmd.MarkFlagRequired("candidate")
		cmd.MarkFlagRequired("voter")
	}

	provisionCmd.Flags().StringVar(&ledgerKind, "ledger", string(ledger.Immutable), "ledger kind (immutable, mutable, chaincode)")
	castCmd.Flags().StringVar(&ledgerKind, "ledger", string(ledger.Immutable), "ledger kind (immutable, chaincode)")
	updateVoteCmd.Flags().StringVar(&ledgerKind, "ledger", string(ledger.Mutable), "ledger kind (mutable, chaincode)")

	assignWalletCmd.Flags().UintVar(&voterId, "voter", 0, "local voter id")
	assignWalletCmd.MarkFlagRequired("voter")

	mainCmd.AddCommand(runCmd)
	mainCmd.AddCommand(provisionCmd)
	mainCmd.AddCommand(resultsCmd)
	mainCmd.AddCommand(refreshBindingCmd)
	mainCmd.AddCommand(castCmd)
	mainCmd.AddCommand(updateVoteCmd)
	mainCmd.AddCommand(assignWalletCmd)

	if mainCmd.Execute() != nil {
		os.Exit(1)
	}
}
