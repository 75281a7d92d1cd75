package bridge

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"bridgewatch/internal/model"
)

func TestDecodeSendNative(t *testing.T) {
	decoder := newTestDecoder(t)

	sender := common.HexToAddress("0xcffeaaf7681c89285d65cfbe808b80e502696573")
	recipient := recipientFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	blob := packPayload(t, sender, recipient, common.Address{}, big.NewInt(10), big.NewInt(7))
	log := buildAppEventLog(t, big.NewInt(0), blob)

	msg, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	native, ok := msg.(model.SendNative)
	if !ok {
		t.Fatalf("expected SendNative, got %T", msg)
	}

	want := model.SendNative{
		Sender:    sender,
		Recipient: recipient,
		Amount:    big.NewInt(10),
		Nonce:     7,
	}
	if !native.Equal(want) {
		t.Fatalf("message mismatch: %+v != %+v", native, want)
	}
	if native.Kind() != model.KindSendNative {
		t.Fatalf("kind mismatch: %v", native.Kind())
	}
}

func TestDecodeSendToken(t *testing.T) {
	decoder := newTestDecoder(t)

	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	recipient := recipientFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	blob := packPayload(t, sender, recipient, token, big.NewInt(500), big.NewInt(42))
	log := buildAppEventLog(t, big.NewInt(1), blob)

	msg, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	transfer, ok := msg.(model.SendToken)
	if !ok {
		t.Fatalf("expected SendToken, got %T", msg)
	}

	want := model.SendToken{
		Sender:    sender,
		Recipient: recipient,
		Token:     token,
		Amount:    big.NewInt(500),
		Nonce:     42,
	}
	if !transfer.Equal(want) {
		t.Fatalf("message mismatch: %+v != %+v", transfer, want)
	}
}

func TestDecodeNativeDiscardsToken(t *testing.T) {
	decoder := newTestDecoder(t)

	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress("0x4444444444444444444444444444444444444444")
	recipient := recipientFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	// tag 0 with a non-zero token field: the token is decoded but unused.
	blob := packPayload(t, sender, recipient, token, big.NewInt(10), big.NewInt(7))
	log := buildAppEventLog(t, big.NewInt(0), blob)

	msg, err := decoder.Decode(log)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	native, ok := msg.(model.SendNative)
	if !ok {
		t.Fatalf("expected SendNative, got %T", msg)
	}
	if native.Sender != sender || native.Nonce != 7 {
		t.Fatalf("field mismatch: %+v", native)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	decoder := newTestDecoder(t)
	blob := defaultPayload(t)

	for _, tag := range []int64{2, 3, 17, 255} {
		log := buildAppEventLog(t, big.NewInt(tag), blob)
		_, err := decoder.Decode(log)
		if !errors.Is(err, ErrInvalidTag) {
			t.Fatalf("tag %d: expected ErrInvalidTag, got %v", tag, err)
		}
	}
}

func TestDecodeTagWordTruncated(t *testing.T) {
	decoder := newTestDecoder(t)
	blob := defaultPayload(t)

	// The tag word is narrowed to its low 8 bits before the variant check,
	// so 256 decodes as tag 0 and 257 as tag 1.
	msg, err := decoder.Decode(buildAppEventLog(t, big.NewInt(256), blob))
	if err != nil {
		t.Fatalf("decode tag 256: %v", err)
	}
	if _, ok := msg.(model.SendNative); !ok {
		t.Fatalf("expected SendNative for tag 256, got %T", msg)
	}

	msg, err = decoder.Decode(buildAppEventLog(t, big.NewInt(257), blob))
	if err != nil {
		t.Fatalf("decode tag 257: %v", err)
	}
	if _, ok := msg.(model.SendToken); !ok {
		t.Fatalf("expected SendToken for tag 257, got %T", msg)
	}
}

func TestDecodeNonceTruncated(t *testing.T) {
	decoder := newTestDecoder(t)

	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	recipient := recipientFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")

	// nonce = 2^64 + 7 keeps only the low 64 bits.
	nonce := new(big.Int).Add(new(big.Int).Lsh(big.NewInt(1), 64), big.NewInt(7))
	blob := packPayload(t, sender, recipient, common.Address{}, big.NewInt(10), nonce)

	msg, err := decoder.Decode(buildAppEventLog(t, big.NewInt(0), blob))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	native, ok := msg.(model.SendNative)
	if !ok {
		t.Fatalf("expected SendNative, got %T", msg)
	}
	if native.Nonce != 7 {
		t.Fatalf("nonce mismatch: %d", native.Nonce)
	}
}

func TestDecodeRejectsWrongTopics(t *testing.T) {
	decoder := newTestDecoder(t)
	blob := defaultPayload(t)
	log := buildAppEventLog(t, big.NewInt(0), blob)

	wrongTopic := log
	wrongTopic.Topics = []string{common.HexToHash("0x01").Hex()}
	if _, err := decoder.Decode(wrongTopic); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("wrong topic0: expected ErrInvalidData, got %v", err)
	}

	noTopics := log
	noTopics.Topics = nil
	if _, err := decoder.Decode(noTopics); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("no topics: expected ErrInvalidData, got %v", err)
	}

	extraTopic := log
	extraTopic.Topics = append([]string{log.Topics[0]}, common.HexToHash("0x02").Hex())
	if _, err := decoder.Decode(extraTopic); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("extra topic: expected ErrInvalidData, got %v", err)
	}
}

func TestDecodeRejectsMalformedData(t *testing.T) {
	decoder := newTestDecoder(t)
	log := buildAppEventLog(t, big.NewInt(0), defaultPayload(t))

	badHex := log
	badHex.Data = "0xzz"
	if _, err := decoder.Decode(badHex); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("bad hex: expected ErrInvalidData, got %v", err)
	}

	truncated := log
	truncated.Data = "0xdeadbeef"
	if _, err := decoder.Decode(truncated); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("truncated data: expected ErrInvalidData, got %v", err)
	}

	empty := log
	empty.Data = "0x"
	if _, err := decoder.Decode(empty); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("empty data: expected ErrInvalidData, got %v", err)
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	decoder := newTestDecoder(t)

	// Valid frame whose inner blob is too short for the 5-field layout.
	log := buildAppEventLog(t, big.NewInt(0), []byte{0x01, 0x02, 0x03})
	if _, err := decoder.Decode(log); !errors.Is(err, ErrInvalidData) {
		t.Fatalf("short payload: expected ErrInvalidData, got %v", err)
	}
}

func TestDecodeRejectsBadBankAddress(t *testing.T) {
	decoder := newTestDecoder(t)
	log := buildAppEventLog(t, big.NewInt(0), defaultPayload(t))
	log.Address = "not-an-address"

	if _, err := decoder.Decode(log); !errors.Is(err, ErrInvalidAddress) {
		t.Fatalf("expected ErrInvalidAddress, got %v", err)
	}
}

func TestAssembleFrameKindMismatch(t *testing.T) {
	// Token kinds swapped: bytes where the tag belongs, uint where the
	// payload belongs. Field extraction must not be attempted.
	if _, _, err := assembleFrame([]interface{}{[]byte{0x01}, big.NewInt(0)}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("swapped kinds: expected ErrInvalidPayload, got %v", err)
	}
	if _, _, err := assembleFrame([]interface{}{big.NewInt(0)}); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("single token: expected ErrInvalidPayload, got %v", err)
	}
	if _, _, err := assembleFrame(nil); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("no tokens: expected ErrInvalidPayload, got %v", err)
	}
}

func TestAssemblePayloadStrictChecks(t *testing.T) {
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")

	valid := []interface{}{sender, make([]byte, 32), token, big.NewInt(1), big.NewInt(1)}
	if _, err := assemblePayload(valid); err != nil {
		t.Fatalf("valid tokens rejected: %v", err)
	}

	short := []interface{}{sender, make([]byte, 31), token, big.NewInt(1), big.NewInt(1)}
	if _, err := assemblePayload(short); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("31-byte recipient: expected ErrInvalidPayload, got %v", err)
	}

	long := []interface{}{sender, make([]byte, 33), token, big.NewInt(1), big.NewInt(1)}
	if _, err := assemblePayload(long); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("33-byte recipient: expected ErrInvalidPayload, got %v", err)
	}

	wrongKind := []interface{}{sender, make([]byte, 32), "not-an-address", big.NewInt(1), big.NewInt(1)}
	if _, err := assemblePayload(wrongKind); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("wrong token kind: expected ErrInvalidPayload, got %v", err)
	}

	missing := []interface{}{sender, make([]byte, 32), token, big.NewInt(1)}
	if _, err := assemblePayload(missing); !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("missing field: expected ErrInvalidPayload, got %v", err)
	}
}

func TestDecodeTotality(t *testing.T) {
	decoder := newTestDecoder(t)
	topic0 := appEventTopic(t).Hex()

	inputs := []model.LogRecord{
		{},
		{Address: "0x1111111111111111111111111111111111111111"},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{topic0}},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{topic0}, Data: "0x"},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{topic0}, Data: "0x00"},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{"garbage"}, Data: "0x00"},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{topic0}, Data: "0x" + repeatHex("ff", 512)},
		{Address: "0x1111111111111111111111111111111111111111", Topics: []string{topic0}, Data: "0x" + repeatHex("00", 64)},
	}

	for i, log := range inputs {
		msg, err := decoder.Decode(log)
		if err == nil && msg == nil {
			t.Fatalf("input %d: nil message without error", i)
		}
		if err != nil && ErrorKind(err) == "" {
			t.Fatalf("input %d: error outside taxonomy: %v", i, err)
		}
	}
}

func TestCanDecode(t *testing.T) {
	decoder := newTestDecoder(t)
	topic0 := appEventTopic(t)

	if !decoder.CanDecode(topic0.Hex()) {
		t.Fatalf("expected CanDecode for AppEvent topic")
	}
	if !decoder.CanDecode(strings.ToUpper(topic0.Hex())) {
		t.Fatalf("expected case-insensitive topic match")
	}
	if decoder.CanDecode("") {
		t.Fatalf("empty topic must not decode")
	}
	if decoder.CanDecode(common.HexToHash("0x01").Hex()) {
		t.Fatalf("foreign topic must not decode")
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[error]string{
		ErrInvalidRLP:     "invalid_rlp",
		ErrInvalidData:    "invalid_data",
		ErrInvalidTag:     "invalid_tag",
		ErrInvalidAddress: "invalid_address",
		ErrInvalidPayload: "invalid_payload",
	}
	for err, want := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("kind mismatch for %v: %s != %s", err, got, want)
		}
	}
	if got := ErrorKind(errors.New("other")); got != "" {
		t.Fatalf("unexpected kind for foreign error: %s", got)
	}
}

func newTestDecoder(t *testing.T) *Decoder {
	t.Helper()
	decoder, err := NewDecoder()
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	return decoder
}

func appEventTopic(t *testing.T) common.Hash {
	t.Helper()
	id, err := AppEventID()
	if err != nil {
		t.Fatalf("app event id: %v", err)
	}
	return id
}

func packPayload(t *testing.T, sender common.Address, recipient [32]byte, token common.Address, amount, nonce *big.Int) []byte {
	t.Helper()
	args, err := PayloadArguments()
	if err != nil {
		t.Fatalf("payload arguments: %v", err)
	}
	blob, err := args.Pack(sender, recipient, token, amount, nonce)
	if err != nil {
		t.Fatalf("pack payload: %v", err)
	}
	return blob
}

func defaultPayload(t *testing.T) []byte {
	t.Helper()
	sender := common.HexToAddress("0x2222222222222222222222222222222222222222")
	token := common.HexToAddress("0x3333333333333333333333333333333333333333")
	recipient := recipientFromHex(t, "8eaf04151687736326c9fea17e25fc5287613693c912909cb226aa4794f26a48")
	return packPayload(t, sender, recipient, token, big.NewInt(10), big.NewInt(7))
}

func buildAppEventLog(t *testing.T, tag *big.Int, blob []byte) model.LogRecord {
	t.Helper()
	parsed, err := AppEventABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	data, err := parsed.Events["AppEvent"].Inputs.NonIndexed().Pack(tag, blob)
	if err != nil {
		t.Fatalf("pack event data: %v", err)
	}

	return model.LogRecord{
		ChainID:     1,
		BlockNumber: 12345,
		BlockHash:   "0xabc",
		TxHash:      "0xdef",
		LogIndex:    1,
		Address:     "0x1111111111111111111111111111111111111111",
		Topics:      []string{parsed.Events["AppEvent"].ID.Hex()},
		Data:        hexutil.Encode(data),
		Timestamp:   1700000000,
	}
}

func recipientFromHex(t *testing.T, input string) [32]byte {
	t.Helper()
	data := common.Hex2Bytes(input)
	if len(data) != 32 {
		t.Fatalf("recipient fixture length %d", len(data))
	}
	var out [32]byte
	copy(out[:], data)
	return out
}

func repeatHex(pair string, count int) string {
	out := ""
	for i := 0; i < count; i++ {
		out += pair
	}
	return out
}
