package contract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"credit-scoring-service/internal/pkg/config"
	"credit-scoring-service/internal/pkg/consts"
	"credit-scoring-service/internal/pkg/logger"
	"credit-scoring-service/internal/pkg/models"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainBackend is the slice of the RPC client the gateway needs.
// *ethclient.Client satisfies it; tests substitute a fake.
type ChainBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// TxSigner signs transactions for the service account. Key custody lives in
// the wallet provider; the gateway never sees private keys.
type TxSigner interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Dial connects an RPC client to the configured endpoint.
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %v", rpcURL, consts.ErrorNetwork, err)
	}
	return client, nil
}

// Gateway wraps the RPC client and the deployed-contract handle. Reads go
// out as eth_call; writes are signed transactions with fixed-count retry.
type Gateway struct {
	cfg      config.NetworkConfig
	backend  ChainBackend
	signer   TxSigner
	contract common.Address
	abi      abi.ABI
	chainID  *big.Int

	// serializes nonce allocation across concurrent writes
	nonceMu sync.Mutex

	// indexed string event topics carry keccak(nid); the index maps them
	// back to the identifiers this service has touched
	nidMu    sync.RWMutex
	nidIndex map[common.Hash]string

	borrowerAddedTopic common.Hash
	loanRequestedTopic common.Hash
}

func NewGateway(cfg config.NetworkConfig, backend ChainBackend, signer TxSigner) (*Gateway, error) {
	if err := config.ValidateNetworkConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", consts.ErrorConfiguration, err)
	}

	parsed, err := abi.JSON(strings.NewReader(CreditScoringABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w: %v", consts.ErrorConfiguration, err)
	}

	return &Gateway{
		cfg:                cfg,
		backend:            backend,
		signer:             signer,
		contract:           common.HexToAddress(cfg.ContractAddress),
		abi:                parsed,
		nidIndex:           make(map[common.Hash]string),
		borrowerAddedTopic: parsed.Events["BorrowerAdded"].ID,
		loanRequestedTopic: parsed.Events["LoanRequested"].ID,
	}, nil
}

// Connect verifies the connected network matches the configured chain id.
// Every write is chain-id-bound; a mismatch is a configuration fault, not a
// transient one.
func (g *Gateway) Connect(ctx context.Context) error {
	chainID, err := g.backend.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("chain id probe: %w", classifyRPCError(err))
	}
	if chainID.Int64() != g.cfg.ChainID {
		return fmt.Errorf("expected chain %d, connected to %d: %w",
			g.cfg.ChainID, chainID.Int64(), consts.ErrorChainIDMismatch)
	}
	g.chainID = chainID
	logger.CtxInfo(ctx, "Chain connection verified",
		slog.Int64("chain_id", chainID.Int64()),
		slog.String("contract", g.cfg.ContractAddress))
	return nil
}

// BlockNumber reports the current head, used as the connection-health probe.
func (g *Gateway) BlockNumber(ctx context.Context) (uint64, error) {
	head, err := g.backend.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("block number: %w", classifyRPCError(err))
	}
	return head, nil
}

// Call performs a read-only contract call. No retry; callers decide.
func (g *Gateway) Call(ctx context.Context, method string, args ...interface{}) ([]interface{}, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: pack: %w: %v", method, consts.ErrorDecode, err)
	}

	out, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, classifyRPCError(err))
	}

	values, err := g.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("%s: unpack: %w: %v", method, consts.ErrorDecode, err)
	}
	return values, nil
}

// Send submits a state-changing transaction with fixed-count retry and fixed
// delay between attempts. Non-retryable failures surface immediately without
// consuming attempts; exhaustion wraps the last underlying error.
func (g *Gateway) Send(ctx context.Context, method string, args ...interface{}) (string, error) {
	if g.chainID == nil {
		return "", fmt.Errorf("%s: gateway not connected: %w", method, consts.ErrorConfiguration)
	}

	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxRetryAttempts; attempt++ {
		hash, err := g.sendOnce(ctx, method, args...)
		if err == nil {
			return hash, nil
		}
		if !IsRetryable(err) {
			return "", fmt.Errorf("%s: %w", method, err)
		}
		lastErr = err
		logger.CtxWarn(ctx, "Transaction attempt failed",
			slog.String("method", method),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if attempt < g.cfg.MaxRetryAttempts {
			select {
			case <-time.After(g.cfg.RetryDelay):
			case <-ctx.Done():
				return "", fmt.Errorf("%s: %w: %v", method, consts.ErrorTimeout, ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("%s: %w: %w", method, consts.ErrorRetryExhausted, lastErr)
}

func (g *Gateway) sendOnce(ctx context.Context, method string, args ...interface{}) (string, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("pack: %w: %v", consts.ErrorDecode, err)
	}

	g.nonceMu.Lock()
	defer g.nonceMu.Unlock()

	nonce, err := g.backend.PendingNonceAt(ctx, g.signer.Address())
	if err != nil {
		return "", classifyRPCError(err)
	}

	gasPrice := big.NewInt(g.cfg.GasPriceWei)
	if g.cfg.GasPriceWei == 0 {
		gasPrice, err = g.backend.SuggestGasPrice(ctx)
		if err != nil {
			return "", classifyRPCError(err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &g.contract,
		Value:    big.NewInt(0),
		Gas:      g.cfg.GasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := g.signer.SignTx(tx, g.chainID)
	if err != nil {
		return "", fmt.Errorf("sign: %w: %v", consts.ErrorConfiguration, err)
	}

	if err := g.backend.SendTransaction(ctx, signed); err != nil {
		return "", classifyRPCError(err)
	}
	return signed.Hash().Hex(), nil
}

// ReceiptStatus looks up a transaction receipt. found=false means the
// transaction is still pending.
func (g *Gateway) ReceiptStatus(ctx context.Context, txHash string) (found bool, succeeded bool, err error) {
	receipt, err := g.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return false, false, nil
		}
		return false, false, fmt.Errorf("receipt %s: %w", txHash, classifyRPCError(err))
	}
	return true, receipt.Status == types.ReceiptStatusSuccessful, nil
}

func (g *Gateway) recordNID(nid string) {
	topic := crypto.Keccak256Hash([]byte(nid))
	g.nidMu.Lock()
	g.nidIndex[topic] = nid
	g.nidMu.Unlock()
}

// ResolveNID maps an indexed-string event topic back to the identifier, if
// this service has seen it.
func (g *Gateway) ResolveNID(topic common.Hash) (string, bool) {
	g.nidMu.RLock()
	defer g.nidMu.RUnlock()
	nid, ok := g.nidIndex[topic]
	return nid, ok
}

// FilterEvents scans the block range for contract events and maps them onto
// sync events. Logs whose identifier cannot be resolved are skipped.
func (g *Gateway) FilterEvents(ctx context.Context, fromBlock, toBlock uint64) ([]models.SyncEvent, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []common.Address{g.contract},
		Topics:    [][]common.Hash{{g.borrowerAddedTopic, g.loanRequestedTopic}},
	}

	logs, err := g.backend.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("filter logs: %w", classifyRPCError(err))
	}

	events := make([]models.SyncEvent, 0, len(logs))
	for _, lg := range logs {
		if len(lg.Topics) < 2 {
			continue
		}
		nid, ok := g.ResolveNID(lg.Topics[1])
		if !ok {
			logger.CtxWarn(ctx, "Skipping event for unknown identifier topic",
				slog.String("topic", lg.Topics[1].Hex()),
				slog.String("tx_hash", lg.TxHash.Hex()))
			continue
		}

		var eventType string
		switch lg.Topics[0] {
		case g.borrowerAddedTopic:
			eventType = models.EventBorrowerUpdated
		case g.loanRequestedTopic:
			eventType = models.EventLoanProcessed
		default:
			continue
		}

		events = append(events, models.SyncEvent{
			Type:      eventType,
			NID:       nid,
			TxHash:    lg.TxHash.Hex(),
			Timestamp: time.Now().UTC(),
		})
	}
	return events, nil
}

// Typed operations. Each records the identifier so later chain events can be
// resolved back from their hashed topics.

func (g *Gateway) AddBorrower(ctx context.Context, b models.BorrowerRecord) (string, error) {
	g.recordNID(b.NID)
	return g.Send(ctx, "addBorrower",
		b.NID, b.Name, b.Profession,
		new(big.Int).SetUint64(b.AccountBalance),
		new(big.Int).SetUint64(b.TotalTransactions),
		new(big.Int).SetUint64(b.OnTimePayments),
		new(big.Int).SetUint64(b.MissedPayments),
		new(big.Int).SetUint64(b.TotalRemainingLoan),
		new(big.Int).SetUint64(b.CreditAgeMonths),
		new(big.Int).SetUint64(b.ProfessionRiskScore),
	)
}

func (g *Gateway) RequestLoan(ctx context.Context, nid string, amount uint64) (string, error) {
	g.recordNID(nid)
	return g.Send(ctx, "requestLoan", nid, new(big.Int).SetUint64(amount))
}

func (g *Gateway) CalculateCreditScore(ctx context.Context, nid string) (uint64, error) {
	g.recordNID(nid)
	values, err := g.Call(ctx, "calculateCreditScore", nid)
	if err != nil {
		return 0, err
	}
	score, err := asUint256(values, 0)
	if err != nil {
		return 0, fmt.Errorf("calculateCreditScore %s: %w", nid, err)
	}
	return score, nil
}

func (g *Gateway) GetCreditRating(ctx context.Context, nid string) (string, error) {
	g.recordNID(nid)
	values, err := g.Call(ctx, "getCreditRating", nid)
	if err != nil {
		return "", err
	}
	if len(values) < 1 {
		return "", fmt.Errorf("getCreditRating %s: empty result: %w", nid, consts.ErrorDecode)
	}
	rating, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("getCreditRating %s: unexpected type %T: %w", nid, values[0], consts.ErrorDecode)
	}
	return rating, nil
}

func (g *Gateway) GetMaxLoanAmount(ctx context.Context, nid string, monthlyIncome uint64) (uint64, error) {
	g.recordNID(nid)
	values, err := g.Call(ctx, "getMaxLoanAmount", nid, new(big.Int).SetUint64(monthlyIncome))
	if err != nil {
		return 0, err
	}
	amount, err := asUint256(values, 0)
	if err != nil {
		return 0, fmt.Errorf("getMaxLoanAmount %s: %w", nid, err)
	}
	return amount, nil
}

func (g *Gateway) GetBorrower(ctx context.Context, nid string) (models.BorrowerRecord, error) {
	g.recordNID(nid)
	values, err := g.Call(ctx, "getBorrower", nid)
	if err != nil {
		return models.BorrowerRecord{}, err
	}
	if len(values) != 10 {
		return models.BorrowerRecord{}, fmt.Errorf("getBorrower %s: expected 10 values, got %d: %w",
			nid, len(values), consts.ErrorDecode)
	}

	exists, ok := values[9].(bool)
	if !ok {
		return models.BorrowerRecord{}, fmt.Errorf("getBorrower %s: unexpected exists type %T: %w",
			nid, values[9], consts.ErrorDecode)
	}
	if !exists {
		return models.BorrowerRecord{}, fmt.Errorf("borrower %s: %w", nid, consts.ErrorNotFound)
	}

	name, _ := values[0].(string)
	profession, _ := values[1].(string)
	record := models.BorrowerRecord{
		NID:        nid,
		Name:       name,
		Profession: profession,
		Exists:     true,
	}
	numeric := []*uint64{
		&record.AccountBalance, &record.TotalTransactions,
		&record.OnTimePayments, &record.MissedPayments,
		&record.TotalRemainingLoan, &record.CreditAgeMonths,
		&record.ProfessionRiskScore,
	}
	for i, target := range numeric {
		v, err := asUint256(values, i+2)
		if err != nil {
			return models.BorrowerRecord{}, fmt.Errorf("getBorrower %s: %w", nid, err)
		}
		*target = v
	}
	return record, nil
}

func (g *Gateway) GetScoreBreakdown(ctx context.Context, nid string) (models.ScoreBreakdown, error) {
	g.recordNID(nid)
	values, err := g.Call(ctx, "getScoreBreakdown", nid)
	if err != nil {
		return models.ScoreBreakdown{}, err
	}
	if len(values) != 6 {
		return models.ScoreBreakdown{}, fmt.Errorf("getScoreBreakdown %s: expected 6 values, got %d: %w",
			nid, len(values), consts.ErrorDecode)
	}

	var breakdown models.ScoreBreakdown
	targets := []*uint64{
		&breakdown.AccountScore, &breakdown.TxnScore, &breakdown.PaymentScore,
		&breakdown.RemainingScore, &breakdown.AgeScore, &breakdown.ProfessionScore,
	}
	for i, target := range targets {
		v, err := asUint256(values, i)
		if err != nil {
			return models.ScoreBreakdown{}, fmt.Errorf("getScoreBreakdown %s: %w", nid, err)
		}
		*target = v
	}
	return breakdown, nil
}

func asUint256(values []interface{}, idx int) (uint64, error) {
	if idx >= len(values) {
		return 0, fmt.Errorf("missing value at index %d: %w", idx, consts.ErrorDecode)
	}
	v, ok := values[idx].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected type %T at index %d: %w", values[idx], idx, consts.ErrorDecode)
	}
	return v.Uint64(), nil
}
