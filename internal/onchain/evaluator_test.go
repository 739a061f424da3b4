package onchain

import (
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagly/proof-validator/internal/domain"
)

func intPtr(i int) *int { return &i }

func tokens(whole int64, decimals int) *big.Int {
	return new(big.Int).Mul(big.NewInt(whole), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
}

func TestEvaluate_USDCTransfer(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)
	cfg := domain.ValidationConfig{MinAmount: 25}

	tests := []struct {
		name    string
		logs    []domain.TransactionLog
		cfg     domain.ValidationConfig
		valid   bool
		errPart string
	}{
		{
			name:  "exactly the minimum",
			logs:  []domain.TransactionLog{transferLog(usdcAddress, big.NewInt(25_000_000), "0x0")},
			cfg:   cfg,
			valid: true,
		},
		{
			name:    "one unit below the minimum",
			logs:    []domain.TransactionLog{transferLog(usdcAddress, big.NewInt(24_999_999), "0x0")},
			cfg:     cfg,
			errPart: "at least 25 USDC",
		},
		{
			name:    "no transfer logs",
			logs:    []domain.TransactionLog{cashbackLog(swagAddress, true, "0x0")},
			cfg:     cfg,
			errPart: "minimum 25 USDC",
		},
		{
			name:    "empty logs",
			cfg:     cfg,
			errPart: "No USDC transfer found",
		},
		{
			name:  "fractional minimum",
			logs:  []domain.TransactionLog{transferLog(usdcAddress, big.NewInt(100_000), "0x0")},
			cfg:   domain.ValidationConfig{MinAmount: 0.1},
			valid: true,
		},
		{
			name:  "decimals override",
			logs:  []domain.TransactionLog{transferLog(usdcAddress, tokens(25, 18), "0x0")},
			cfg:   domain.ValidationConfig{MinAmount: 25, Decimals: intPtr(18)},
			valid: true,
		},
		{
			name:    "decimals override makes small amount insufficient",
			logs:    []domain.TransactionLog{transferLog(usdcAddress, big.NewInt(25_000_000), "0x0")},
			cfg:     domain.ValidationConfig{MinAmount: 25, Decimals: intPtr(18)},
			errPart: "at least 25 USDC",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluator.Evaluate(tt.logs, domain.OnChainValidationUSDCTransfer, tt.cfg)
			assert.Equal(t, tt.valid, result.IsValid)
			if tt.valid {
				assert.Empty(t, result.Error)
				assert.NotEmpty(t, result.Details)
			} else {
				assert.Contains(t, result.Error, tt.errPart)
			}
		})
	}
}

func TestEvaluate_USDCTransferDetails(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)
	result := evaluator.Evaluate(
		[]domain.TransactionLog{transferLog(usdcAddress, big.NewInt(25_500_000), "0x3")},
		domain.OnChainValidationUSDCTransfer,
		domain.ValidationConfig{MinAmount: 25},
	)

	require.True(t, result.IsValid)
	assert.Equal(t, "25.5", result.Details["amount"])
	assert.Equal(t, "25500000", result.Details["rawAmount"])
	assert.Equal(t, strings.ToLower(usdcAddress), result.Details["contractAddress"])
	assert.Equal(t, strings.ToLower(senderAddr), result.Details["from"])
	assert.Equal(t, strings.ToLower(receiverAddr), result.Details["to"])
	assert.Equal(t, "0x3", result.Details["logIndex"])
}

func TestEvaluate_SkipsMalformedLogs(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)

	malformed := transferLog(usdcAddress, big.NewInt(1), "0x1")
	malformed.Data = "0xnothex"

	logs := []domain.TransactionLog{
		transferLog(usdcAddress, big.NewInt(1_000_000), "0x0"),
		malformed,
		transferLog(usdcAddress, big.NewInt(30_000_000), "0x2"),
	}

	result := evaluator.Evaluate(logs, domain.OnChainValidationUSDCTransfer, domain.ValidationConfig{MinAmount: 25})
	require.True(t, result.IsValid)
	assert.Equal(t, "0x2", result.Details["logIndex"])
}

func TestEvaluate_FirstMatchWins(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)
	logs := []domain.TransactionLog{
		transferLog(usdcAddress, big.NewInt(40_000_000), "0x0"),
		transferLog(usdcAddress, big.NewInt(90_000_000), "0x1"),
	}

	result := evaluator.Evaluate(logs, domain.OnChainValidationUSDCTransfer, domain.ValidationConfig{MinAmount: 25})
	require.True(t, result.IsValid)
	assert.Equal(t, "0x0", result.Details["logIndex"])
}

func TestEvaluate_TokenTransfer(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)

	tests := []struct {
		name    string
		logs    []domain.TransactionLog
		cfg     domain.ValidationConfig
		valid   bool
		errPart string
	}{
		{
			name:    "empty allow-list",
			logs:    []domain.TransactionLog{transferLog(swagAddress, tokens(1, 18), "0x0")},
			cfg:     domain.ValidationConfig{},
			errPart: "No token addresses",
		},
		{
			name:    "token not in allow-list",
			logs:    []domain.TransactionLog{transferLog(otherAddress, tokens(1, 18), "0x0")},
			cfg:     domain.ValidationConfig{TokenAddresses: []string{swagAddress}},
			errPart: "required token",
		},
		{
			name:  "allow-list is case-insensitive",
			logs:  []domain.TransactionLog{transferLog(strings.ToLower(usdcAddress), tokens(1, 18), "0x0")},
			cfg:   domain.ValidationConfig{TokenAddresses: []string{"0x" + strings.ToUpper(usdcAddress[2:])}},
			valid: true,
		},
		{
			name:  "any positive amount without minimum",
			logs:  []domain.TransactionLog{transferLog(swagAddress, big.NewInt(1), "0x0")},
			cfg:   domain.ValidationConfig{TokenAddresses: []string{swagAddress}},
			valid: true,
		},
		{
			name:    "zero amount without minimum",
			logs:    []domain.TransactionLog{transferLog(swagAddress, big.NewInt(0), "0x0")},
			cfg:     domain.ValidationConfig{TokenAddresses: []string{swagAddress}},
			errPart: "greater than zero",
		},
		{
			name:  "meets 18-decimal minimum",
			logs:  []domain.TransactionLog{transferLog(swagAddress, tokens(100, 18), "0x0")},
			cfg:   domain.ValidationConfig{TokenAddresses: []string{swagAddress}, MinAmount: 100},
			valid: true,
		},
		{
			name: "below 18-decimal minimum",
			logs: []domain.TransactionLog{transferLog(swagAddress,
				new(big.Int).Sub(tokens(100, 18), big.NewInt(1)), "0x0")},
			cfg:     domain.ValidationConfig{TokenAddresses: []string{swagAddress}, MinAmount: 100},
			errPart: "below the required minimum of 100",
		},
		{
			name:    "decimals override does not apply",
			logs:    []domain.TransactionLog{transferLog(swagAddress, tokens(100, 6), "0x0")},
			cfg:     domain.ValidationConfig{TokenAddresses: []string{swagAddress}, MinAmount: 100, Decimals: intPtr(6)},
			errPart: "below the required minimum of 100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := evaluator.Evaluate(tt.logs, domain.OnChainValidationTokenTransfer, tt.cfg)
			assert.Equal(t, tt.valid, result.IsValid)
			if !tt.valid {
				assert.Contains(t, result.Error, tt.errPart)
			}
		})
	}
}

func TestEvaluate_CashbackEvent(t *testing.T) {
	evaluator := NewEvaluator(domain.DefaultTokenDecimals)

	t.Run("paid with requirePaid", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{cashbackLog(swagAddress, true, "0x4")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true},
		)
		require.True(t, result.IsValid)
		assert.Equal(t, true, result.Details["paid"])
		assert.Equal(t, "0x4", result.Details["logIndex"])
	})

	t.Run("not paid with requirePaid", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{cashbackLog(swagAddress, false, "0x4")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true},
		)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Error, "not marked as paid")
	})

	t.Run("not paid without requirePaid", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{cashbackLog(swagAddress, false, "0x4")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{},
		)
		assert.True(t, result.IsValid)
	})

	t.Run("second log paid", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{
				cashbackLog(swagAddress, false, "0x1"),
				cashbackLog(swagAddress, true, "0x2"),
			},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true},
		)
		require.True(t, result.IsValid)
		assert.Equal(t, "0x2", result.Details["logIndex"])
	})

	t.Run("missing paid topic is skipped", func(t *testing.T) {
		truncated := cashbackLog(swagAddress, true, "0x1")
		truncated.Topics = truncated.Topics[:2]
		result := evaluator.Evaluate(
			[]domain.TransactionLog{truncated},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true},
		)
		assert.False(t, result.IsValid)
	})

	t.Run("no cashback event", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{transferLog(usdcAddress, big.NewInt(1), "0x0")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{},
		)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Error, "No cashback event")
	})

	t.Run("custom event signature", func(t *testing.T) {
		sig := "Refund(address,address,bool,uint256)"
		log := cashbackLog(swagAddress, true, "0x0")
		log.Topics[0] = keccakSignature(sig).Hex()

		result := evaluator.Evaluate(
			[]domain.TransactionLog{log},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true, EventSignature: sig},
		)
		assert.True(t, result.IsValid)

		result = evaluator.Evaluate(
			[]domain.TransactionLog{cashbackLog(swagAddress, true, "0x0")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{RequirePaid: true, EventSignature: sig},
		)
		assert.False(t, result.IsValid)
	})

	t.Run("invalid custom signature", func(t *testing.T) {
		result := evaluator.Evaluate(
			[]domain.TransactionLog{cashbackLog(swagAddress, true, "0x0")},
			domain.OnChainValidationCashbackEvent,
			domain.ValidationConfig{EventSignature: "not a signature"},
		)
		assert.False(t, result.IsValid)
		assert.Contains(t, result.Error, "Invalid cashback event signature")
	})
}

func TestEvaluate_UnknownType(t *testing.T) {
	result := NewEvaluator(domain.DefaultTokenDecimals).Evaluate(nil, "nft_mint", domain.ValidationConfig{})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Error, "Unsupported")
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "25", FormatUnits(big.NewInt(25_000_000), 6))
	assert.Equal(t, "24.999999", FormatUnits(big.NewInt(24_999_999), 6))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatUnits(big.NewInt(0), 6))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
}

func TestMeetsMinimum(t *testing.T) {
	assert.True(t, meetsMinimum(big.NewInt(25_000_000), 6, 25))
	assert.False(t, meetsMinimum(big.NewInt(24_999_999), 6, 25))
	assert.True(t, meetsMinimum(big.NewInt(0), 6, 0))
	assert.False(t, meetsMinimum(nil, 6, 0))
	// 0.1 must compare exactly as a decimal, not as its binary float approximation
	assert.True(t, meetsMinimum(big.NewInt(100_000), 6, 0.1))
	assert.False(t, meetsMinimum(big.NewInt(99_999), 6, 0.1))
}
