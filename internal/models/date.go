package models

// Date 表示一个日历日（YYYY-MM-DD），被多个用户的 Record 共享。
// 删除 Date 会级联删除其 Record 与 DateAttendee。
type Date struct {
	ID   uint   `gorm:"primaryKey"`
	Date string `gorm:"column:date;size:10;uniqueIndex;not null"`

	Records       []Record       `gorm:"constraint:OnDelete:CASCADE"`
	DateAttendees []DateAttendee `gorm:"constraint:OnDelete:CASCADE"`
}

func (Date) TableName() string { return "date" }
