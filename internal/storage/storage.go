package storage

import "bridgewatch/internal/model"

// Storage defines a sink for raw bank contract log records.
type Storage interface {
	PutLogBatch(logs []model.LogRecord) error
}
