package onchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swagly/proof-validator/internal/domain"
)

const (
	usdcAddress  = "0x06eFdBFf2a14a7c8E15944D1F4A48F9F95F663A4"
	swagAddress  = "0x1111111111111111111111111111111111111111"
	otherAddress = "0x2222222222222222222222222222222222222222"
	senderAddr   = "0x457ee5f723C7606c12a7264b52e285906F91eEA6"
	receiverAddr = "0x99fc8AD516FBCC9bA3123D56e63A35d05AA9EFB8"
)

func addressTopic(addr string) string {
	return common.BytesToHash(common.HexToAddress(addr).Bytes()).Hex()
}

func uint256Data(v *big.Int) string {
	return hexutil.Encode(common.LeftPadBytes(v.Bytes(), 32))
}

func boolTopic(b bool) string {
	if b {
		return common.BigToHash(big.NewInt(1)).Hex()
	}
	return common.Hash{}.Hex()
}

func transferLog(contract string, value *big.Int, logIndex string) domain.TransactionLog {
	return domain.TransactionLog{
		Address: contract,
		Topics: []string{
			TransferEventSignature.Hex(),
			addressTopic(senderAddr),
			addressTopic(receiverAddr),
		},
		Data:     uint256Data(value),
		LogIndex: logIndex,
	}
}

func cashbackLog(contract string, paid bool, logIndex string) domain.TransactionLog {
	return domain.TransactionLog{
		Address: contract,
		Topics: []string{
			CashbackEventSignature.Hex(),
			addressTopic(senderAddr),
			addressTopic(usdcAddress),
			boolTopic(paid),
		},
		Data:     uint256Data(big.NewInt(5_000_000)),
		LogIndex: logIndex,
	}
}

func TestEventSignatures(t *testing.T) {
	assert.Equal(t,
		"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		TransferEventSignature.Hex())
	assert.NotEqual(t, TransferEventSignature, CashbackEventSignature)
}

func TestDecodeTransfer(t *testing.T) {
	t.Run("decodes value from data", func(t *testing.T) {
		event, err := DecodeTransfer(transferLog(usdcAddress, big.NewInt(25_000_000), "0x1"))
		require.NoError(t, err)
		assert.Equal(t, common.HexToAddress(usdcAddress), event.Contract)
		assert.Equal(t, "25000000", event.Value.String())
		require.NotNil(t, event.From)
		require.NotNil(t, event.To)
		assert.Equal(t, common.HexToAddress(senderAddr), *event.From)
		assert.Equal(t, common.HexToAddress(receiverAddr), *event.To)
		assert.Equal(t, "0x1", event.LogIndex)
	})

	t.Run("accepts unpadded data", func(t *testing.T) {
		log := transferLog(usdcAddress, big.NewInt(1), "0x0")
		log.Data = "0x0f"
		event, err := DecodeTransfer(log)
		require.NoError(t, err)
		assert.Equal(t, int64(15), event.Value.Int64())
	})

	t.Run("rejects empty data", func(t *testing.T) {
		log := transferLog(usdcAddress, big.NewInt(1), "0x0")
		log.Data = "0x"
		_, err := DecodeTransfer(log)
		assert.ErrorIs(t, err, ErrMalformedData)
	})

	t.Run("rejects non-hex data", func(t *testing.T) {
		log := transferLog(usdcAddress, big.NewInt(1), "0x0")
		log.Data = "0xzz"
		_, err := DecodeTransfer(log)
		assert.ErrorIs(t, err, ErrMalformedData)
	})

	t.Run("rejects oversized data", func(t *testing.T) {
		log := transferLog(usdcAddress, big.NewInt(1), "0x0")
		log.Data = "0x" + "00000000000000000000000000000000000000000000000000000000000000000001"
		_, err := DecodeTransfer(log)
		assert.ErrorIs(t, err, ErrMalformedData)
	})

	t.Run("rejects wrong signature", func(t *testing.T) {
		_, err := DecodeTransfer(cashbackLog(usdcAddress, true, "0x0"))
		assert.ErrorIs(t, err, ErrSignatureMismatch)
	})

	t.Run("rejects malformed contract address", func(t *testing.T) {
		log := transferLog("0x1234", big.NewInt(1), "0x0")
		_, err := DecodeTransfer(log)
		assert.ErrorIs(t, err, ErrMalformedAddress)
	})
}

func TestDecodeCashback(t *testing.T) {
	t.Run("paid", func(t *testing.T) {
		event, err := DecodeCashback(cashbackLog(swagAddress, true, "0x2"))
		require.NoError(t, err)
		assert.True(t, event.Paid)
		require.NotNil(t, event.Account)
		assert.Equal(t, common.HexToAddress(senderAddr), *event.Account)
	})

	t.Run("not paid", func(t *testing.T) {
		event, err := DecodeCashback(cashbackLog(swagAddress, false, "0x2"))
		require.NoError(t, err)
		assert.False(t, event.Paid)
	})

	t.Run("missing paid topic", func(t *testing.T) {
		log := cashbackLog(swagAddress, true, "0x2")
		log.Topics = log.Topics[:3]
		_, err := DecodeCashback(log)
		assert.ErrorIs(t, err, ErrMissingTopic)
	})

	t.Run("boolean out of range", func(t *testing.T) {
		log := cashbackLog(swagAddress, true, "0x2")
		log.Topics[3] = common.BigToHash(big.NewInt(2)).Hex()
		_, err := DecodeCashback(log)
		assert.ErrorIs(t, err, ErrMalformedTopic)
	})
}

func TestDecode(t *testing.T) {
	event, err := Decode(transferLog(usdcAddress, big.NewInt(7), "0x0"))
	require.NoError(t, err)
	assert.Equal(t, EventKindTransfer, event.Kind)
	require.NotNil(t, event.Transfer)

	event, err = Decode(cashbackLog(swagAddress, true, "0x1"))
	require.NoError(t, err)
	assert.Equal(t, EventKindCashback, event.Kind)
	require.NotNil(t, event.Cashback)

	unknown := domain.TransactionLog{
		Address: otherAddress,
		Topics:  []string{common.HexToHash("0xabcdef").Hex()},
		Data:    "0x",
	}
	event, err = Decode(unknown)
	require.NoError(t, err)
	assert.Equal(t, EventKindUnknown, event.Kind)

	_, err = Decode(domain.TransactionLog{Address: otherAddress})
	assert.ErrorIs(t, err, ErrMissingTopic)
}

func TestFilterBySignature(t *testing.T) {
	logs := []domain.TransactionLog{
		transferLog(usdcAddress, big.NewInt(1), "0x0"),
		cashbackLog(swagAddress, true, "0x1"),
		transferLog(swagAddress, big.NewInt(2), "0x2"),
		{Address: otherAddress, Topics: []string{"not-a-topic"}},
	}

	filtered := FilterBySignature(logs, TransferEventSignature)
	require.Len(t, filtered, 2)
	assert.Equal(t, "0x0", filtered[0].LogIndex)
	assert.Equal(t, "0x2", filtered[1].LogIndex)
}
