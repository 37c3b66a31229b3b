package runsummary

import (
	"gorm.io/gorm"
)

// Record is the gorm model a Summary is persisted as.
type Record struct {
	gorm.Model
	GeneratedAtUnixNano int64
	SymbolID             uint32
	Position             int64
	CashFlowNanos        int64
	CashFlowDecimal      string
	OrdersPlaced         uint64
	OrdersFilled         uint64
	BuyQty               uint64
	SellQty              uint64
	BuyNotionalNanos     int64
	SellNotionalNanos    int64
}

// TableName pins the table name independent of the Go type name.
func (Record) TableName() string { return "run_summaries" }

func toRecord(s Summary) Record {
	return Record{
		GeneratedAtUnixNano: s.GeneratedAtUnixNano,
		SymbolID:            s.SymbolID,
		Position:            s.Position,
		CashFlowNanos:       s.CashFlowNanos,
		CashFlowDecimal:     s.CashFlowDecimal,
		OrdersPlaced:        s.OrdersPlaced,
		OrdersFilled:        s.OrdersFilled,
		BuyQty:              s.BuyQty,
		SellQty:             s.SellQty,
		BuyNotionalNanos:    s.BuyNotionalNanos,
		SellNotionalNanos:   s.SellNotionalNanos,
	}
}

// Store persists run summaries to Postgres through gorm.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db, running AutoMigrate for the Record model.
func NewStore(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// Save inserts one row per Summary.
func (s *Store) Save(summary Summary) error {
	rec := toRecord(summary)
	return s.db.Create(&rec).Error
}
