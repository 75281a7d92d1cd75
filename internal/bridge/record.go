package bridge

import (
	"github.com/ethereum/go-ethereum/common/hexutil"

	"bridgewatch/internal/model"
)

// NewMessageRecord flattens a decoded message with its source log metadata.
func NewMessageRecord(log model.LogRecord, msg model.Message) model.MessageRecord {
	rec := model.MessageRecord{
		ChainID:     log.ChainID,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		TxHash:      log.TxHash,
		LogIndex:    log.LogIndex,
		BankAddress: log.Address,
		Timestamp:   log.Timestamp,
		Kind:        msg.Kind().String(),
		Raw:         &model.RawLogRef{Topic0: log.Topic0(), Data: log.Data},
	}

	switch m := msg.(type) {
	case model.SendNative:
		rec.Sender = m.Sender.Hex()
		rec.Recipient = hexutil.Encode(m.Recipient[:])
		rec.Amount = m.Amount.String()
		rec.Nonce = m.Nonce
	case model.SendToken:
		rec.Sender = m.Sender.Hex()
		rec.Recipient = hexutil.Encode(m.Recipient[:])
		rec.Token = m.Token.Hex()
		rec.Amount = m.Amount.String()
		rec.Nonce = m.Nonce
	}

	return rec
}
