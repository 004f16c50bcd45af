package models

import "time"

// CodeSequence is the per-scope reservation counter for generated codes.
// Scope is a code prefix such as "IUC-D-2025-" or "IUS-F-2025-0001-".
type CodeSequence struct {
	Scope     string    `gorm:"primaryKey;column:scope;size:64" json:"scope"`
	Value     int       `gorm:"column:value;not null;default:0" json:"value"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updatedAt"`
}

// TableName specifies the table name.
func (CodeSequence) TableName() string {
	return "code_sequences"
}
