// Package onchain decodes the small, fixed set of EVM event logs the proof
// pipeline cares about and evaluates activity rules against them.
//
// Decoding is signature specific and works on the raw hex topics and data of
// a receipt log. No contract ABI is involved.
package onchain

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/swagly/proof-validator/internal/domain"
)

var (
	// Transfer event signature - shared by ERC20 and ERC721
	// ERC20: Transfer(address indexed from, address indexed to, uint256 value) - value in data
	// ERC721: Transfer(address indexed from, address indexed to, uint256 indexed tokenId) - empty data
	TransferEventSignature = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

	// Sponsor cashback event
	// Cashback(address indexed account, address indexed token, bool indexed paid, uint256 amount)
	CashbackEventSignature = crypto.Keccak256Hash([]byte("Cashback(address,address,bool,uint256)"))
)

var (
	// ErrSignatureMismatch is returned when a log's topic0 is not the expected event signature
	ErrSignatureMismatch = errors.New("event signature mismatch")
	// ErrMissingTopic is returned when an indexed argument is absent from the topics
	ErrMissingTopic = errors.New("missing topic")
	// ErrMalformedTopic is returned when a topic is not a 32-byte hex word
	ErrMalformedTopic = errors.New("malformed topic")
	// ErrMalformedData is returned when the data blob cannot hold the expected value
	ErrMalformedData = errors.New("malformed log data")
	// ErrMalformedAddress is returned when the emitting contract address is invalid
	ErrMalformedAddress = errors.New("malformed contract address")
)

// EventKind identifies the decoded event shape
type EventKind int

const (
	EventKindUnknown EventKind = iota
	EventKindTransfer
	EventKindCashback
)

func (k EventKind) String() string {
	switch k {
	case EventKindTransfer:
		return "transfer"
	case EventKindCashback:
		return "cashback"
	default:
		return "unknown"
	}
}

// TransferEvent is a decoded fungible Transfer log
type TransferEvent struct {
	Contract common.Address
	From     *common.Address
	To       *common.Address
	Value    *big.Int
	LogIndex string
}

// CashbackEvent is a decoded Cashback log
type CashbackEvent struct {
	Contract common.Address
	Account  *common.Address
	Paid     bool
	LogIndex string
}

// DecodedEvent is a tagged union over the supported event kinds
type DecodedEvent struct {
	Kind     EventKind
	Transfer *TransferEvent
	Cashback *CashbackEvent
}

func keccakSignature(sig string) common.Hash {
	return crypto.Keccak256Hash([]byte(sig))
}

// decoders maps an event signature to its decode function
var decoders = map[common.Hash]func(domain.TransactionLog) (*DecodedEvent, error){
	TransferEventSignature: func(log domain.TransactionLog) (*DecodedEvent, error) {
		event, err := DecodeTransfer(log)
		if err != nil {
			return nil, err
		}
		return &DecodedEvent{Kind: EventKindTransfer, Transfer: event}, nil
	},
	CashbackEventSignature: func(log domain.TransactionLog) (*DecodedEvent, error) {
		event, err := DecodeCashback(log)
		if err != nil {
			return nil, err
		}
		return &DecodedEvent{Kind: EventKindCashback, Cashback: event}, nil
	},
}

// Decode dispatches a log to the decoder registered for its topic0.
// Logs with an unknown signature decode to EventKindUnknown without error.
func Decode(log domain.TransactionLog) (*DecodedEvent, error) {
	sig, err := EventSignature(log)
	if err != nil {
		return nil, err
	}

	decode, ok := decoders[sig]
	if !ok {
		return &DecodedEvent{Kind: EventKindUnknown}, nil
	}

	return decode(log)
}

// EventSignature returns the topic0 of a log
func EventSignature(log domain.TransactionLog) (common.Hash, error) {
	if len(log.Topics) == 0 {
		return common.Hash{}, fmt.Errorf("%w: topic0", ErrMissingTopic)
	}
	return parseTopic(log.Topics[0])
}

// HasSignature reports whether the log's topic0 equals sig
func HasSignature(log domain.TransactionLog, sig common.Hash) bool {
	topic0, err := EventSignature(log)
	if err != nil {
		return false
	}
	return topic0 == sig
}

// FilterBySignature returns the logs whose topic0 equals sig, preserving order
func FilterBySignature(logs []domain.TransactionLog, sig common.Hash) []domain.TransactionLog {
	var filtered []domain.TransactionLog
	for _, log := range logs {
		if HasSignature(log, sig) {
			filtered = append(filtered, log)
		}
	}
	return filtered
}

// DecodeTransfer decodes a Transfer log whose value is carried in data as a single
// right-aligned 256-bit integer. ERC721 transfers (value in topics, empty data) are rejected.
func DecodeTransfer(log domain.TransactionLog) (*TransferEvent, error) {
	if !HasSignature(log, TransferEventSignature) {
		return nil, ErrSignatureMismatch
	}

	contract, err := parseAddress(log.Address)
	if err != nil {
		return nil, err
	}

	value, err := parseUint256Data(log.Data)
	if err != nil {
		return nil, err
	}

	event := &TransferEvent{
		Contract: contract,
		Value:    value,
		LogIndex: log.LogIndex,
	}

	if len(log.Topics) >= 3 {
		from, err := topicAddress(log.Topics[1])
		if err != nil {
			return nil, err
		}
		to, err := topicAddress(log.Topics[2])
		if err != nil {
			return nil, err
		}
		event.From = &from
		event.To = &to
	}

	return event, nil
}

// DecodeCashback decodes the default Cashback event
func DecodeCashback(log domain.TransactionLog) (*CashbackEvent, error) {
	return DecodeCashbackWithSignature(log, CashbackEventSignature)
}

// DecodeCashbackWithSignature decodes a Cashback-shaped log identified by sig.
// The paid flag is the indexed boolean in topics[3]; a log without it returns ErrMissingTopic.
func DecodeCashbackWithSignature(log domain.TransactionLog, sig common.Hash) (*CashbackEvent, error) {
	if !HasSignature(log, sig) {
		return nil, ErrSignatureMismatch
	}

	contract, err := parseAddress(log.Address)
	if err != nil {
		return nil, err
	}

	if len(log.Topics) < 4 {
		return nil, fmt.Errorf("%w: paid flag (topics[3])", ErrMissingTopic)
	}

	paid, err := topicBool(log.Topics[3])
	if err != nil {
		return nil, err
	}

	event := &CashbackEvent{
		Contract: contract,
		Paid:     paid,
		LogIndex: log.LogIndex,
	}

	account, err := topicAddress(log.Topics[1])
	if err == nil {
		event.Account = &account
	}

	return event, nil
}

// parseTopic parses a 32-byte hex word
func parseTopic(topic string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(topic))
	if err != nil {
		return common.Hash{}, fmt.Errorf("%w: %v", ErrMalformedTopic, err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrMalformedTopic, common.HashLength, len(b))
	}
	return common.BytesToHash(b), nil
}

// topicAddress decodes an indexed address (right-aligned in the 32-byte topic)
func topicAddress(topic string) (common.Address, error) {
	h, err := parseTopic(topic)
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(h.Bytes()), nil
}

// topicBool decodes an indexed bool; only 0 and 1 are valid encodings
func topicBool(topic string) (bool, error) {
	h, err := parseTopic(topic)
	if err != nil {
		return false, err
	}

	v := h.Big()
	switch {
	case v.Sign() == 0:
		return false, nil
	case v.Cmp(big.NewInt(1)) == 0:
		return true, nil
	default:
		return false, fmt.Errorf("%w: boolean topic out of range", ErrMalformedTopic)
	}
}

// parseUint256Data decodes the data blob as a single uint256
func parseUint256Data(data string) (*big.Int, error) {
	b, err := hexutil.Decode(strings.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedData, err)
	}
	if len(b) == 0 || len(b) > 32 {
		return nil, fmt.Errorf("%w: expected up to 32 bytes, got %d", ErrMalformedData, len(b))
	}
	return new(big.Int).SetBytes(b), nil
}

func parseAddress(address string) (common.Address, error) {
	if !common.IsHexAddress(address) {
		return common.Address{}, fmt.Errorf("%w: %q", ErrMalformedAddress, address)
	}
	return common.HexToAddress(address), nil
}
