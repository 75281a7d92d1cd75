package bridge

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// appEventABIJSON is the fixed event schema of the bank contract. Any wire
// change on the emitting chain requires a synchronized update here.
const appEventABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": false, "internalType": "uint256", "name": "tag", "type": "uint256"},
      {"indexed": false, "internalType": "bytes", "name": "payload", "type": "bytes"}
    ],
    "name": "AppEvent",
    "type": "event"
  }
]`

var (
	appABI      abi.ABI
	payloadArgs abi.Arguments
	schemaOnce  sync.Once
	schemaErr   error
)

func initSchema() {
	appABI, schemaErr = abi.JSON(strings.NewReader(appEventABIJSON))
	if schemaErr != nil {
		return
	}

	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		schemaErr = err
		return
	}
	bytes32Type, err := abi.NewType("bytes32", "", nil)
	if err != nil {
		schemaErr = err
		return
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		schemaErr = err
		return
	}

	payloadArgs = abi.Arguments{
		{Name: "sender", Type: addressType},
		{Name: "recipient", Type: bytes32Type},
		{Name: "token", Type: addressType},
		{Name: "amount", Type: uint256Type},
		{Name: "nonce", Type: uint256Type},
	}
}

// AppEventABI returns the parsed bank contract ABI.
func AppEventABI() (abi.ABI, error) {
	schemaOnce.Do(initSchema)
	return appABI, schemaErr
}

// PayloadArguments returns the ABI layout of the opaque payload blob carried
// inside AppEvent: (sender, recipient, token, amount, nonce).
func PayloadArguments() (abi.Arguments, error) {
	schemaOnce.Do(initSchema)
	return payloadArgs, schemaErr
}

// AppEventID returns the topic0 hash of AppEvent(uint256,bytes).
func AppEventID() (common.Hash, error) {
	parsed, err := AppEventABI()
	if err != nil {
		return common.Hash{}, err
	}
	return parsed.Events["AppEvent"].ID, nil
}
