package bridge

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"bridgewatch/internal/model"
)

// Decoder decodes bank contract AppEvent logs into bridge messages. The
// decode is a strict two-layer pass: the log is validated against the event
// schema to extract a tag and an opaque payload blob, then the blob is
// validated against the fixed 5-field payload layout. Every failure aborts
// the whole decode; no partial message is ever produced.
//
// A Decoder is stateless after construction and safe for concurrent use.
type Decoder struct {
	event       abi.Event
	payloadArgs abi.Arguments
}

// payload carries the five decoded fields between the payload decode and the
// variant selection. It never leaves this package.
type payload struct {
	Sender    common.Address
	Recipient [32]byte
	Token     common.Address
	Amount    *big.Int
	Nonce     uint64
}

// NewDecoder builds a Decoder from the fixed event schema.
func NewDecoder() (*Decoder, error) {
	parsed, err := AppEventABI()
	if err != nil {
		return nil, err
	}
	args, err := PayloadArguments()
	if err != nil {
		return nil, err
	}
	return &Decoder{
		event:       parsed.Events["AppEvent"],
		payloadArgs: args,
	}, nil
}

// CanDecode checks whether topic0 is the AppEvent signature hash.
func (d *Decoder) CanDecode(topic0 string) bool {
	if topic0 == "" {
		return false
	}
	return strings.EqualFold(topic0, d.event.ID.Hex())
}

// Decode converts a LogRecord into a bridge Message.
func (d *Decoder) Decode(log model.LogRecord) (model.Message, error) {
	if !common.IsHexAddress(log.Address) {
		return nil, fmt.Errorf("%w: bank contract %q", ErrInvalidAddress, log.Address)
	}

	tag, blob, err := d.decodeFrame(log)
	if err != nil {
		return nil, err
	}

	fields, err := d.decodePayload(blob)
	if err != nil {
		return nil, err
	}

	return assembleMessage(tag, fields)
}

// decodeFrame validates the log against the AppEvent schema and extracts the
// tag word and the opaque payload blob.
func (d *Decoder) decodeFrame(log model.LogRecord) (uint8, []byte, error) {
	topics, err := parseTopicHashes(log.Topics)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	// AppEvent is non-anonymous with no indexed inputs: topic0 only.
	if len(topics) != 1 || topics[0] != d.event.ID {
		return 0, nil, fmt.Errorf("%w: topics do not match %s", ErrInvalidData, d.event.Sig)
	}

	data, err := hexutil.Decode(log.Data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: log data: %v", ErrInvalidData, err)
	}

	values, err := d.event.Inputs.Unpack(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: unpack %s: %v", ErrInvalidData, d.event.Name, err)
	}

	return assembleFrame(values)
}

// assembleFrame checks the two frame tokens for presence and kind. The tag
// word is narrowed to its low 8 bits; the variant check happens at assembly.
func assembleFrame(values []interface{}) (uint8, []byte, error) {
	if len(values) < 2 {
		return 0, nil, fmt.Errorf("%w: expected 2 frame tokens, got %d", ErrInvalidPayload, len(values))
	}
	tagWord, err := asBigInt(values[0])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: tag: %v", ErrInvalidPayload, err)
	}
	blob, ok := values[1].([]byte)
	if !ok {
		return 0, nil, fmt.Errorf("%w: payload token %T", ErrInvalidPayload, values[1])
	}
	tag := uint8(new(big.Int).And(tagWord, big.NewInt(0xff)).Uint64())
	return tag, blob, nil
}

// decodePayload validates the opaque blob against the fixed payload layout
// and extracts the typed fields.
func (d *Decoder) decodePayload(blob []byte) (payload, error) {
	values, err := d.payloadArgs.Unpack(blob)
	if err != nil {
		return payload{}, fmt.Errorf("%w: unpack payload: %v", ErrInvalidData, err)
	}
	return assemblePayload(values)
}

// assemblePayload checks each of the five payload tokens for presence and
// kind. No semantic validation happens here.
func assemblePayload(values []interface{}) (payload, error) {
	if len(values) != 5 {
		return payload{}, fmt.Errorf("%w: expected 5 payload tokens, got %d", ErrInvalidPayload, len(values))
	}

	sender, err := asAddress(values[0])
	if err != nil {
		return payload{}, fmt.Errorf("%w: sender: %v", ErrInvalidPayload, err)
	}
	recipient, err := asFixedBytes32(values[1])
	if err != nil {
		return payload{}, fmt.Errorf("%w: recipient: %v", ErrInvalidPayload, err)
	}
	token, err := asAddress(values[2])
	if err != nil {
		return payload{}, fmt.Errorf("%w: token: %v", ErrInvalidPayload, err)
	}
	amount, err := asBigInt(values[3])
	if err != nil {
		return payload{}, fmt.Errorf("%w: amount: %v", ErrInvalidPayload, err)
	}
	nonceWord, err := asBigInt(values[4])
	if err != nil {
		return payload{}, fmt.Errorf("%w: nonce: %v", ErrInvalidPayload, err)
	}

	return payload{
		Sender:    sender,
		Recipient: recipient,
		Token:     token,
		Amount:    amount,
		// The wire nonce is uint256; only the low 64 bits are kept.
		Nonce: truncateUint64(nonceWord),
	}, nil
}

// assembleMessage selects the message variant for the tag. For SendNative the
// decoded token field is discarded, not an error.
func assembleMessage(tag uint8, fields payload) (model.Message, error) {
	switch model.MessageKind(tag) {
	case model.KindSendNative:
		return model.SendNative{
			Sender:    fields.Sender,
			Recipient: fields.Recipient,
			Amount:    fields.Amount,
			Nonce:     fields.Nonce,
		}, nil
	case model.KindSendToken:
		return model.SendToken{
			Sender:    fields.Sender,
			Recipient: fields.Recipient,
			Token:     fields.Token,
			Amount:    fields.Amount,
			Nonce:     fields.Nonce,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrInvalidTag, tag)
	}
}

func parseTopicHashes(topics []string) ([]common.Hash, error) {
	out := make([]common.Hash, 0, len(topics))
	for _, topic := range topics {
		data, err := hexutil.Decode(topic)
		if err != nil {
			return nil, fmt.Errorf("invalid topic: %w", err)
		}
		if len(data) > 32 {
			return nil, fmt.Errorf("topic length %d", len(data))
		}
		out = append(out, common.BytesToHash(data))
	}
	return out, nil
}

func asAddress(value interface{}) (common.Address, error) {
	switch v := value.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		return *v, nil
	default:
		return common.Address{}, fmt.Errorf("unsupported address type %T", value)
	}
}

func asFixedBytes32(value interface{}) ([32]byte, error) {
	switch v := value.(type) {
	case [32]byte:
		return v, nil
	case []byte:
		// Stricter than the grammar: exactly 32 bytes, no padding.
		if len(v) != 32 {
			return [32]byte{}, fmt.Errorf("fixed bytes length %d", len(v))
		}
		var out [32]byte
		copy(out[:], v)
		return out, nil
	default:
		return [32]byte{}, fmt.Errorf("unsupported fixed bytes type %T", value)
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case big.Int:
		return new(big.Int).Set(&v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func truncateUint64(value *big.Int) uint64 {
	mask := new(big.Int).SetUint64(math.MaxUint64)
	return new(big.Int).And(value, mask).Uint64()
}
