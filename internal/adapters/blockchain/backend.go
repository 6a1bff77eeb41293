package blockchain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/zkdeploy/internal/adapters/abi"
	"github.com/trebuchet-org/zkdeploy/internal/domain"
	"github.com/trebuchet-org/zkdeploy/internal/domain/config"
	"github.com/trebuchet-org/zkdeploy/internal/domain/models"
	"github.com/trebuchet-org/zkdeploy/internal/usecase"
)

// gasHeadroomPercent is applied on top of the node's gas estimate
const gasHeadroomPercent = 120

// ChainClient is the part of ethclient.Client a deployment needs
type ChainClient interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	Close()
}

// Dialer opens a ChainClient for an RPC URL
type Dialer func(ctx context.Context, rpcURL string) (ChainClient, error)

// DialEthClient dials a JSON-RPC endpoint with ethclient
func DialEthClient(ctx context.Context, rpcURL string) (ChainClient, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// Backend opens deployment sessions over JSON-RPC
type Backend struct {
	dial      Dialer
	artifacts usecase.ArtifactLoader
	timeout   time.Duration
	log       *slog.Logger
}

// NewBackend creates a backend that dials with ethclient
func NewBackend(cfg *config.RuntimeConfig, artifacts usecase.ArtifactLoader, log *slog.Logger) *Backend {
	return NewBackendWithDialer(DialEthClient, artifacts, cfg.Timeout, log)
}

// NewBackendWithDialer creates a backend over a custom dialer
func NewBackendWithDialer(dial Dialer, artifacts usecase.ArtifactLoader, timeout time.Duration, log *slog.Logger) *Backend {
	return &Backend{
		dial:      dial,
		artifacts: artifacts,
		timeout:   timeout,
		log:       log,
	}
}

// Connect dials the network and binds the deployer key to it
func (b *Backend) Connect(ctx context.Context, network *config.Network, privateKey string) (usecase.DeploymentSession, error) {
	// Parse the key before dialing so a bad key never touches the network
	signer, err := NewLocalSigner(privateKey, nil)
	if err != nil {
		return nil, &domain.ConfigError{
			Setting: network.PrivateKeyEnv,
			Message: fmt.Sprintf("invalid private key in %s: %v", network.PrivateKeyEnv, err),
		}
	}

	client, err := b.dial(ctx, network.RPCURL)
	if err != nil {
		return nil, &domain.BackendError{Op: "connect to " + network.RPCURL, Err: err}
	}

	chainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, &domain.BackendError{Op: "get chain ID", Err: err}
	}
	if network.ChainID != 0 && chainID.Uint64() != network.ChainID {
		client.Close()
		return nil, fmt.Errorf("%w: %s expects chain %d but %s reports %s",
			domain.ErrNetworkMismatch, network.Name, network.ChainID, network.RPCURL, chainID)
	}
	signer.chainID = chainID

	b.log.Info("connected",
		slog.String("network", network.Name),
		slog.String("chain_id", chainID.String()),
		slog.String("deployer", signer.Address().Hex()),
	)

	return &Session{
		ArtifactLoader: b.artifacts,
		client:         client,
		signer:         signer,
		timeout:        b.timeout,
		log:            b.log.With(slog.String("network", network.Name)),
	}, nil
}

// Session deploys and estimates with one client and one signer
type Session struct {
	usecase.ArtifactLoader

	client  ChainClient
	signer  *LocalSigner
	timeout time.Duration
	log     *slog.Logger
}

// Deployer returns the deploying account
func (s *Session) Deployer() common.Address {
	return s.signer.Address()
}

// Deploy sends a contract creation transaction and waits for it to be mined
func (s *Session) Deploy(ctx context.Context, artifact *models.Artifact, args []any) (*usecase.DeployReceipt, error) {
	data, encodedArgs, err := creationData(artifact, args)
	if err != nil {
		return nil, err
	}

	from := s.signer.Address()
	nonce, err := s.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, &domain.BackendError{Op: "get nonce", Err: err}
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &domain.BackendError{Op: "get gas price", Err: err}
	}

	gasLimit, err := s.client.EstimateGas(ctx, ethereum.CallMsg{From: from, Data: data})
	if err != nil {
		return nil, &domain.BackendError{Op: "estimate gas for " + artifact.ContractName, Err: err}
	}
	gasLimit = gasLimit * gasHeadroomPercent / 100

	tx := types.NewContractCreation(nonce, big.NewInt(0), gasLimit, gasPrice, data)
	signedTx, err := s.signer.SignTransaction(ctx, tx)
	if err != nil {
		return nil, &domain.BackendError{Op: "sign transaction", Err: err}
	}

	s.log.Debug("sending deployment",
		slog.String("contract", artifact.ContractName),
		slog.Uint64("nonce", nonce),
		slog.Uint64("gas_limit", gasLimit),
		slog.String("gas_price", gasPrice.String()),
	)

	if err := s.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, &domain.BackendError{Op: "send transaction", Err: err}
	}

	txHash := signedTx.Hash()
	s.log.Info("deployment submitted, waiting for confirmation",
		slog.String("contract", artifact.ContractName),
		slog.String("tx_hash", txHash.Hex()),
	)

	waitCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	receipt, err := bind.WaitMined(waitCtx, s.client, signedTx)
	if err != nil {
		// The transaction may still be mined; the hash lets the operator follow it
		s.log.Warn("stopped waiting for deployment",
			slog.String("contract", artifact.ContractName),
			slog.String("tx_hash", txHash.Hex()),
			slog.String("error", err.Error()),
		)
		return nil, &domain.BackendError{Op: "wait for transaction " + txHash.Hex(), Err: err}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, &domain.BackendError{
			Op:  "deploy " + artifact.ContractName,
			Err: fmt.Errorf("%w: transaction %s", domain.ErrTransactionReverted, txHash.Hex()),
		}
	}

	address := receipt.ContractAddress
	if address == (common.Address{}) {
		address = crypto.CreateAddress(from, nonce)
	}

	s.log.Info("deployment confirmed",
		slog.String("contract", artifact.ContractName),
		slog.String("address", address.Hex()),
		slog.Uint64("gas_used", receipt.GasUsed),
	)

	return &usecase.DeployReceipt{
		Address:         address,
		TxHash:          txHash,
		ConstructorArgs: encodedArgs,
	}, nil
}

// EstimateDeployGas returns the estimated deployment fee in wei: gas units
// times the suggested gas price. No transaction is sent.
func (s *Session) EstimateDeployGas(ctx context.Context, artifact *models.Artifact, args []any) (*big.Int, error) {
	data, _, err := creationData(artifact, args)
	if err != nil {
		return nil, err
	}

	gas, err := s.client.EstimateGas(ctx, ethereum.CallMsg{From: s.signer.Address(), Data: data})
	if err != nil {
		return nil, &domain.BackendError{Op: "estimate gas for " + artifact.ContractName, Err: err}
	}

	gasPrice, err := s.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, &domain.BackendError{Op: "get gas price", Err: err}
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gas), gasPrice)
	s.log.Debug("estimated deployment",
		slog.String("contract", artifact.ContractName),
		slog.Uint64("gas", gas),
		slog.String("gas_price", gasPrice.String()),
		slog.String("fee", fee.String()),
	)
	return fee, nil
}

// Close releases the RPC connection
func (s *Session) Close() {
	s.client.Close()
}

// creationData returns bytecode followed by the encoded constructor arguments
func creationData(artifact *models.Artifact, args []any) ([]byte, []byte, error) {
	code := artifact.Bytecode.Bytes()
	if len(code) == 0 {
		return nil, nil, &domain.ArtifactError{Name: artifact.ContractName, Err: errors.New("artifact has no creation bytecode")}
	}

	encoded, err := abi.EncodeConstructorArgs(artifact.ABI, args)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", artifact.ContractName, err)
	}

	data := make([]byte, 0, len(code)+len(encoded))
	data = append(data, code...)
	data = append(data, encoded...)
	return data, encoded, nil
}

var (
	_ usecase.DeploymentBackend = (*Backend)(nil)
	_ usecase.DeploymentSession = (*Session)(nil)
)
