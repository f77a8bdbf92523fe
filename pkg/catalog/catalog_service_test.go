package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"recipebook/domain"
	"recipebook/entities"
)

func newTestService(t *testing.T) (CatalogService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.AutoMigrate(&entities.Tag{}, &entities.Ingredient{}); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}

	return NewCatalogService(NewCatalogRepository(db)), db
}

func TestGetTags(t *testing.T) {
	service, db := newTestService(t)
	tags := []entities.Tag{
		{Name: "Breakfast", Slug: "breakfast"},
		{Name: "Dinner", Slug: "dinner"},
	}
	if err := db.Create(&tags).Error; err != nil {
		t.Fatalf("seed tags: %v", err)
	}

	res, err := service.GetTags(context.Background())
	if err != nil {
		t.Fatalf("GetTags: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("tags = %d, want 2", len(res))
	}

	detail, err := service.GetTagDetail(context.Background(), tags[0].ID)
	if err != nil {
		t.Fatalf("GetTagDetail: %v", err)
	}
	if detail.Slug != "breakfast" {
		t.Errorf("slug = %q, want breakfast", detail.Slug)
	}

	if _, err := service.GetTagDetail(context.Background(), 9999); !errors.Is(err, domain.ErrTagNotFound) {
		t.Errorf("missing tag err = %v, want %v", err, domain.ErrTagNotFound)
	}
}

func TestGetIngredients(t *testing.T) {
	service, db := newTestService(t)
	ingredients := []entities.Ingredient{
		{Name: "Flour", MeasurementUnit: "g"},
		{Name: "Buckwheat flour", MeasurementUnit: "g"},
		{Name: "Milk", MeasurementUnit: "ml"},
	}
	if err := db.Create(&ingredients).Error; err != nil {
		t.Fatalf("seed ingredients: %v", err)
	}

	all, err := service.GetIngredients(context.Background(), "")
	if err != nil {
		t.Fatalf("GetIngredients: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ingredients = %d, want 3", len(all))
	}

	matched, err := service.GetIngredients(context.Background(), "flour")
	if err != nil {
		t.Fatalf("GetIngredients filtered: %v", err)
	}
	if len(matched) != 2 {
		t.Errorf("filtered ingredients = %d, want 2", len(matched))
	}

	detail, err := service.GetIngredientDetail(context.Background(), ingredients[2].ID)
	if err != nil {
		t.Fatalf("GetIngredientDetail: %v", err)
	}
	if detail.Name != "Milk" || detail.MeasurementUnit != "ml" {
		t.Errorf("detail = %+v", detail)
	}

	if _, err := service.GetIngredientDetail(context.Background(), 9999); !errors.Is(err, domain.ErrIngredientNotFound) {
		t.Errorf("missing ingredient err = %v, want %v", err, domain.ErrIngredientNotFound)
	}
}
