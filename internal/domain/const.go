package domain

const (
	// ValidatedByAuto marks proofs approved or rejected by the automatic pipeline
	ValidatedByAuto = "auto"

	// DefaultTokenDecimals is the decimals used for usdc_transfer when the activity does not override it
	DefaultTokenDecimals = 6

	// TokenTransferDecimals is the decimals assumed by the token_transfer rule
	TokenTransferDecimals = 18

	// Blockchain constants
	ETHEREUM_ZERO_ADDRESS = "0x0000000000000000000000000000000000000000"
)
