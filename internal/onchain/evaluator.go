package onchain

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/swagly/proof-validator/internal/domain"
	"github.com/swagly/proof-validator/internal/logger"
)

// Evaluation is the outcome of checking a receipt's logs against an activity rule
type Evaluation struct {
	IsValid bool
	Error   string
	Details map[string]any
}

func accept(details map[string]any) Evaluation {
	return Evaluation{IsValid: true, Details: details}
}

func reject(format string, args ...any) Evaluation {
	return Evaluation{IsValid: false, Error: fmt.Sprintf(format, args...)}
}

// Evaluator applies on-chain validation rules to receipt logs
type Evaluator struct {
	defaultDecimals int
}

// NewEvaluator returns an evaluator using defaultDecimals for stablecoin
// transfers when the activity config does not specify decimals
func NewEvaluator(defaultDecimals int) *Evaluator {
	if defaultDecimals < 0 {
		defaultDecimals = domain.DefaultTokenDecimals
	}
	return &Evaluator{defaultDecimals: defaultDecimals}
}

// Evaluate checks logs against the rule for validationType. Logs are scanned in
// order and the first qualifying one wins. Logs that fail to decode are skipped.
func (e *Evaluator) Evaluate(
	logs []domain.TransactionLog,
	validationType domain.OnChainValidationType,
	cfg domain.ValidationConfig,
) Evaluation {
	switch validationType {
	case domain.OnChainValidationUSDCTransfer:
		return e.evaluateUSDCTransfer(logs, cfg)
	case domain.OnChainValidationTokenTransfer:
		return e.evaluateTokenTransfer(logs, cfg)
	case domain.OnChainValidationCashbackEvent:
		return e.evaluateCashbackEvent(logs, cfg)
	default:
		return reject("Unsupported on-chain validation type: %q", validationType)
	}
}

func (e *Evaluator) evaluateUSDCTransfer(logs []domain.TransactionLog, cfg domain.ValidationConfig) Evaluation {
	decimals := e.defaultDecimals
	if cfg.Decimals != nil {
		decimals = *cfg.Decimals
	}

	transfers := decodeTransfers(logs)
	for _, t := range transfers {
		if !meetsMinimum(t.Value, decimals, cfg.MinAmount) {
			continue
		}
		return accept(transferDetails(t, decimals))
	}

	if len(transfers) == 0 {
		return reject("No USDC transfer found in this transaction (minimum %s USDC required)", formatFloat(cfg.MinAmount))
	}
	return reject("No USDC transfer of at least %s USDC found in this transaction", formatFloat(cfg.MinAmount))
}

func (e *Evaluator) evaluateTokenTransfer(logs []domain.TransactionLog, cfg domain.ValidationConfig) Evaluation {
	if len(cfg.TokenAddresses) == 0 {
		return reject("No token addresses are configured for this activity")
	}

	allowed := make(map[common.Address]struct{}, len(cfg.TokenAddresses))
	for _, addr := range cfg.TokenAddresses {
		if common.IsHexAddress(addr) {
			allowed[common.HexToAddress(addr)] = struct{}{}
		}
	}

	// decimals is fixed for this rule; cfg.Decimals only applies to usdc_transfer
	decimals := domain.TokenTransferDecimals

	matched := 0
	for _, t := range decodeTransfers(logs) {
		if _, ok := allowed[t.Contract]; !ok {
			continue
		}
		matched++

		if cfg.MinAmount > 0 {
			if !meetsMinimum(t.Value, decimals, cfg.MinAmount) {
				continue
			}
		} else if t.Value.Sign() <= 0 {
			continue
		}

		return accept(transferDetails(t, decimals))
	}

	if matched == 0 {
		return reject("No transfer of the required token found in this transaction")
	}
	if cfg.MinAmount > 0 {
		return reject("Token transfer amount is below the required minimum of %s", formatFloat(cfg.MinAmount))
	}
	return reject("Token transfer amount must be greater than zero")
}

func (e *Evaluator) evaluateCashbackEvent(logs []domain.TransactionLog, cfg domain.ValidationConfig) Evaluation {
	sig := CashbackEventSignature
	if custom := strings.TrimSpace(cfg.EventSignature); custom != "" {
		parsed, err := ResolveEventSignature(custom)
		if err != nil {
			return reject("Invalid cashback event signature configured for this activity")
		}
		sig = parsed
	}

	candidates := FilterBySignature(logs, sig)
	if len(candidates) == 0 {
		return reject("No cashback event found in this transaction")
	}

	if !cfg.RequirePaid {
		return accept(map[string]any{
			"event":           EventKindCashback.String(),
			"contractAddress": strings.ToLower(candidates[0].Address),
			"logIndex":        candidates[0].LogIndex,
		})
	}

	for _, log := range candidates {
		event, err := DecodeCashbackWithSignature(log, sig)
		if err != nil {
			logger.Debug("skipping undecodable cashback log",
				zap.String("logIndex", log.LogIndex),
				zap.Error(err))
			continue
		}
		if !event.Paid {
			continue
		}

		details := map[string]any{
			"event":           EventKindCashback.String(),
			"contractAddress": strings.ToLower(event.Contract.Hex()),
			"paid":            true,
			"logIndex":        event.LogIndex,
		}
		if event.Account != nil {
			details["account"] = strings.ToLower(event.Account.Hex())
		}
		return accept(details)
	}

	return reject("Cashback event found but it is not marked as paid")
}

// ResolveEventSignature accepts either a topic hash or a canonical event
// signature such as "Cashback(address,address,bool,uint256)"
func ResolveEventSignature(sig string) (common.Hash, error) {
	if strings.HasPrefix(sig, "0x") {
		return parseTopic(sig)
	}
	if !strings.Contains(sig, "(") || !strings.HasSuffix(sig, ")") {
		return common.Hash{}, fmt.Errorf("invalid event signature %q", sig)
	}
	return keccakSignature(sig), nil
}

// decodeTransfers returns the decodable Transfer logs in order
func decodeTransfers(logs []domain.TransactionLog) []*TransferEvent {
	var transfers []*TransferEvent
	for _, log := range FilterBySignature(logs, TransferEventSignature) {
		event, err := DecodeTransfer(log)
		if err != nil {
			logger.Debug("skipping undecodable transfer log",
				zap.String("contract", log.Address),
				zap.String("logIndex", log.LogIndex),
				zap.Error(err))
			continue
		}
		transfers = append(transfers, event)
	}
	return transfers
}

func transferDetails(t *TransferEvent, decimals int) map[string]any {
	details := map[string]any{
		"event":           EventKindTransfer.String(),
		"contractAddress": strings.ToLower(t.Contract.Hex()),
		"rawAmount":       t.Value.String(),
		"amount":          FormatUnits(t.Value, decimals),
		"decimals":        decimals,
		"logIndex":        t.LogIndex,
	}
	if t.From != nil {
		details["from"] = strings.ToLower(t.From.Hex())
	}
	if t.To != nil {
		details["to"] = strings.ToLower(t.To.Hex())
	}
	return details
}

// meetsMinimum compares raw / 10^decimals >= min using exact rational arithmetic
func meetsMinimum(raw *big.Int, decimals int, min float64) bool {
	if raw == nil {
		return false
	}

	minimum, ok := new(big.Rat).SetString(formatFloat(min))
	if !ok {
		return false
	}

	amount := new(big.Rat).SetFrac(raw, pow10(decimals))
	return amount.Cmp(minimum) >= 0
}

// FormatUnits renders raw / 10^decimals as a decimal string without trailing zeros
func FormatUnits(raw *big.Int, decimals int) string {
	if raw == nil {
		return "0"
	}
	if decimals <= 0 {
		return raw.String()
	}

	s := new(big.Rat).SetFrac(raw, pow10(decimals)).FloatString(decimals)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func pow10(decimals int) *big.Int {
	if decimals <= 0 {
		return big.NewInt(1)
	}
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
