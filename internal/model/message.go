package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// MessageKind discriminates the two bridge message variants. The values
// match the on-wire tag encoding of the bank contract.
type MessageKind uint8

const (
	KindSendNative MessageKind = 0
	KindSendToken  MessageKind = 1
)

func (k MessageKind) String() string {
	switch k {
	case KindSendNative:
		return "send_native"
	case KindSendToken:
		return "send_token"
	default:
		return "unknown"
	}
}

// Message is a decoded bridge transfer. Exactly two implementations exist:
// SendNative and SendToken.
type Message interface {
	Kind() MessageKind
}

// SendNative is a native-asset transfer to the receiving chain.
type SendNative struct {
	Sender    common.Address
	Recipient [32]byte
	Amount    *big.Int
	Nonce     uint64
}

func (SendNative) Kind() MessageKind { return KindSendNative }

// Equal reports structural equality with other.
func (m SendNative) Equal(other SendNative) bool {
	return m.Sender == other.Sender &&
		m.Recipient == other.Recipient &&
		bigIntEqual(m.Amount, other.Amount) &&
		m.Nonce == other.Nonce
}

// SendToken is a token transfer; Token is the source-chain token contract.
type SendToken struct {
	Sender    common.Address
	Recipient [32]byte
	Token     common.Address
	Amount    *big.Int
	Nonce     uint64
}

func (SendToken) Kind() MessageKind { return KindSendToken }

// Equal reports structural equality with other.
func (m SendToken) Equal(other SendToken) bool {
	return m.Sender == other.Sender &&
		m.Recipient == other.Recipient &&
		m.Token == other.Token &&
		bigIntEqual(m.Amount, other.Amount) &&
		m.Nonce == other.Nonce
}

func bigIntEqual(a, b *big.Int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Cmp(b) == 0
}
