package recorder

import (
	"main/internal/model"
	"main/pkg/conn"
)

// EventRow is the persisted form of a protocol event. Amounts are stored as
// decimal strings to keep arbitrary precision.
type EventRow struct {
	ID           uint   `gorm:"primaryKey"`
	Kind         string `gorm:"index"`
	Account      string `gorm:"index"`
	Counterparty string
	Asset        string
	Amount       string
	DebtAmount   string
	HealthFactor string
	TsNano       int64 `gorm:"index"`
}

func (EventRow) TableName() string {
	return "protocol_events"
}

// Store persists protocol events to PostgreSQL.
type Store struct {
	client *conn.Client
}

// OpenStore connects to PostgreSQL and migrates the event table.
func OpenStore(dsn string) (*Store, error) {
	client, err := conn.New(conn.Option{ConnString: dsn})
	if err != nil {
		return nil, err
	}
	if err := client.DB().AutoMigrate(&EventRow{}); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Store{client: client}, nil
}

// Save inserts one event.
func (s *Store) Save(ev model.Event) error {
	row := EventRow{
		Kind:         ev.Kind.String(),
		Account:      ev.Account.String(),
		Counterparty: ev.Counterparty.String(),
		Asset:        ev.Asset.String(),
		TsNano:       ev.TsNano,
	}
	if ev.Amount != nil {
		row.Amount = model.FormatWad(ev.Amount)
	}
	if ev.DebtAmount != nil {
		row.DebtAmount = model.FormatWad(ev.DebtAmount)
	}
	if ev.HealthFactor != nil {
		row.HealthFactor = model.FormatWad(ev.HealthFactor)
	}
	return s.client.DB().Create(&row).Error
}

// Recent returns the latest events, newest first.
func (s *Store) Recent(limit int) ([]EventRow, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []EventRow
	err := s.client.DB().Order("ts_nano desc").Limit(limit).Find(&rows).Error
	return rows, err
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.client.Close()
}
