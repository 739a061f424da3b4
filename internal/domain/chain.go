package domain

// ChainTransaction is a transaction as returned by the block explorer
type ChainTransaction struct {
	Hash        string
	From        string
	To          string
	Value       string
	BlockNumber uint64
}

// Confirmed reports whether the transaction was included in a block
func (t *ChainTransaction) Confirmed() bool {
	return t != nil && t.BlockNumber > 0
}

// TransactionReceipt is a transaction receipt with its raw event logs
type TransactionReceipt struct {
	TransactionHash string
	BlockNumber     uint64
	// Status is "0x1" for success and "0x0" for a reverted transaction (empty on pre-Byzantium receipts)
	Status string
	Logs   []TransactionLog
}

// Reverted reports whether the receipt marks the transaction as failed
func (r *TransactionReceipt) Reverted() bool {
	return r != nil && r.Status == "0x0"
}

// TransactionLog is a raw EVM event log
type TransactionLog struct {
	// Address is the emitting contract
	Address string `json:"address"`
	// Topics are 32-byte hex words; Topics[0] is the event signature hash
	Topics []string `json:"topics"`
	// Data is the hex encoded non-indexed payload
	Data     string `json:"data"`
	LogIndex string `json:"logIndex,omitempty"`
}
