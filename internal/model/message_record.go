package model

// MessageRecord is a decoded bridge message flattened with its source log
// metadata for storage.
type MessageRecord struct {
	ChainID     uint64     `json:"chain_id"`
	BlockNumber uint64     `json:"block_number"`
	BlockHash   string     `json:"block_hash"`
	TxHash      string     `json:"tx_hash"`
	LogIndex    uint64     `json:"log_index"`
	BankAddress string     `json:"bank_address"`
	Timestamp   uint64     `json:"timestamp"`
	Kind        string     `json:"kind"`
	Sender      string     `json:"sender"`
	Recipient   string     `json:"recipient"`
	Token       string     `json:"token,omitempty"`
	Amount      string     `json:"amount"`
	Nonce       uint64     `json:"nonce"`
	Raw         *RawLogRef `json:"raw,omitempty"`
}

// RawLogRef keeps a minimal raw reference for traceability.
type RawLogRef struct {
	Topic0 string `json:"topic0"`
	Data   string `json:"data"`
}
