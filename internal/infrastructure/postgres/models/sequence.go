package models

// SequenceModel backs NextValue on dialects without native sequences.
type SequenceModel struct {
	Name  string `gorm:"primaryKey"`
	Value int64  `gorm:"not null"`
}

func (SequenceModel) TableName() string { return "sequences" }

// All lists every model for AutoMigrate.
func All() []any {
	return []any{
		&OrderModel{},
		&OrderItemModel{},
		&OrderHistoryModel{},
		&NotificationJobModel{},
		&NotificationDeliveryModel{},
		&SequenceModel{},
	}
}
