package recorder

import "TradeSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTrade(_ *model.Trade) error           { return nil }
func (n *NoopRecorder) SaveDailySummary(_ *DailySummary) error     { return nil }
func (n *NoopRecorder) RecentTrades(_ int) ([]StoredTrade, error)  { return nil, nil }
func (n *NoopRecorder) Statistics() (*Statistics, error)           { return &Statistics{}, nil }
func (n *NoopRecorder) Close() error                               { return nil }
