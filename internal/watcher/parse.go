package watcher

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ParseBankAddresses converts configured bank contract addresses into
// common.Address.
func ParseBankAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if !common.IsHexAddress(input) {
			return nil, fmt.Errorf("invalid bank address: %s", input)
		}
		addresses = append(addresses, common.HexToAddress(input))
	}
	return addresses, nil
}
