package entities

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Email     string `gorm:"uniqueIndex;size:254" json:"email"`
	Username  string `gorm:"uniqueIndex;size:150" json:"username"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Password  string `json:"-"`
	AvatarURL string `json:"avatar,omitempty"`
	Role      string `gorm:"size:16;default:user" json:"role"`

	Recipes []*Recipe `gorm:"foreignKey:AuthorID"`
	Timestamp
}
