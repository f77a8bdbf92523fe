package entities

import "time"

type Recipe struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	AuthorID    uint   `json:"author_id"`
	Name        string `gorm:"size:256" json:"name"`
	Text        string `gorm:"type:text" json:"text"`
	ImageURL    string `json:"image,omitempty"`
	CookingTime int    `json:"cooking_time"`

	Author            *User               `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Tags              []*Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
	RecipeIngredients []*RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Timestamp
}

type RecipeIngredient struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	RecipeID     uint `gorm:"uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `json:"amount"`

	Recipe     *Recipe     `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Ingredient *Ingredient `gorm:"foreignKey:IngredientID;constraint:OnDelete:CASCADE"`
}

type Favorite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_favorite" json:"user_id"`
	RecipeID  uint      `gorm:"uniqueIndex:idx_user_favorite" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}

type ShoppingCart struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex:idx_user_cart" json:"user_id"`
	RecipeID  uint      `gorm:"uniqueIndex:idx_user_cart" json:"recipe_id"`
	CreatedAt time.Time `gorm:"type:timestamp" json:"created_at"`

	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
}
