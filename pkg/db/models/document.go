package models

import (
	"encoding/json"
	"time"
)

// Document is one row of the document table backing the order store. The
// path encodes collection membership (e.g. "ordersDelivery/<id>" or
// "ordersDeliveryByUser/<userId>/<orderId>"); the value is the full JSON
// document at that path.
type Document struct {
	Path      string          `gorm:"column:path;primaryKey"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName fixes the table name regardless of gorm pluralization.
func (Document) TableName() string {
	return "documents"
}
