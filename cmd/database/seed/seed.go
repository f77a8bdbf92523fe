package seed

import (
	"fmt"
	"log"

	"gorm.io/gorm"

	"recipebook/entities"
)

var defaultTags = []entities.Tag{
	{Name: "Breakfast", Slug: "breakfast"},
	{Name: "Lunch", Slug: "lunch"},
	{Name: "Dinner", Slug: "dinner"},
}

func Seed(db *gorm.DB) error {
	for _, tag := range defaultTags {
		var count int64
		if err := db.Model(&entities.Tag{}).Where("slug = ?", tag.Slug).Count(&count).Error; err != nil {
			log.Fatalf("Error seeding tag database: %v", err)
			return err
		}
		if count > 0 {
			continue
		}
		if err := db.Create(&tag).Error; err != nil {
			log.Fatalf("Error seeding tag database: %v", err)
			return err
		}
	}

	fmt.Println("Database seeding complete")
	return nil
}
