package entities

type Tag struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:32" json:"name"`
	Slug string `gorm:"uniqueIndex;size:32" json:"slug"`
}
