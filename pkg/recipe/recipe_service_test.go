package recipe

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
	"recipebook/pkg/catalog"
	"recipebook/pkg/user"
)

const testImage = "data:image/png;base64,iVBORw0KGgo="

type fakeS3 struct {
	uploads []string
	deleted []string
}

func (f *fakeS3) UploadBytes(name string, data []byte, ext string, folder string, allowedExt ...string) (string, error) {
	key := fmt.Sprintf("%s/%s%s", folder, name, ext)
	f.uploads = append(f.uploads, key)
	return key, nil
}

func (f *fakeS3) DeleteFile(objectKey string) error {
	f.deleted = append(f.deleted, objectKey)
	return nil
}

func (f *fakeS3) GetPublicLinkKey(objectKey string) string {
	return "https://cdn.test/" + objectKey
}

func (f *fakeS3) KeyFromPublicLink(link string) string {
	return strings.TrimPrefix(link, "https://cdn.test/")
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	err = db.AutoMigrate(
		&entities.User{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCart{},
		&entities.Subscription{},
	)
	if err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (RecipeService, *gorm.DB) {
	t.Helper()
	db := openTestDB(t)
	service := NewRecipeService(
		NewRecipeRepository(db),
		catalog.NewCatalogRepository(db),
		user.NewUserRepository(db),
		&fakeS3{},
	)
	return service, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	u := &entities.User{
		Email:     username + "@example.com",
		Username:  username,
		FirstName: "Test",
		LastName:  strings.ToUpper(username[:1]) + username[1:],
		Password:  "secret",
		Role:      domain.RoleUser,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

func seedCatalog(t *testing.T, db *gorm.DB) ([]entities.Tag, []entities.Ingredient) {
	t.Helper()
	tags := []entities.Tag{
		{Name: "Breakfast", Slug: "breakfast"},
		{Name: "Dinner", Slug: "dinner"},
	}
	if err := db.Create(&tags).Error; err != nil {
		t.Fatalf("seed tags: %v", err)
	}
	ingredients := []entities.Ingredient{
		{Name: "Flour", MeasurementUnit: "g"},
		{Name: "Milk", MeasurementUnit: "ml"},
		{Name: "Salt", MeasurementUnit: "g"},
	}
	if err := db.Create(&ingredients).Error; err != nil {
		t.Fatalf("seed ingredients: %v", err)
	}
	return tags, ingredients
}

func createRequest(tags []entities.Tag, ingredients []entities.Ingredient) domain.CreateRecipeRequest {
	return domain.CreateRecipeRequest{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       testImage,
		CookingTime: 15,
		Tags:        []uint{tags[0].ID},
		Ingredients: []domain.RecipeIngredientInput{
			{ID: ingredients[0].ID, Amount: 200},
			{ID: ingredients[1].ID, Amount: 300},
		},
	}
}

func TestCreateRecipe(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	detail, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if detail.Name != "Pancakes" {
		t.Errorf("name = %q, want %q", detail.Name, "Pancakes")
	}
	if detail.Author.ID != author.ID {
		t.Errorf("author id = %d, want %d", detail.Author.ID, author.ID)
	}
	if len(detail.Tags) != 1 || detail.Tags[0].Slug != "breakfast" {
		t.Errorf("tags = %+v, want single breakfast tag", detail.Tags)
	}
	if len(detail.Ingredients) != 2 {
		t.Fatalf("ingredients = %d, want 2", len(detail.Ingredients))
	}
	if detail.Ingredients[0].Name == "" || detail.Ingredients[0].MeasurementUnit == "" {
		t.Errorf("ingredient view not resolved: %+v", detail.Ingredients[0])
	}
	if !strings.HasPrefix(detail.Image, "https://cdn.test/recipes/") {
		t.Errorf("image = %q, want stored object link", detail.Image)
	}
}

func TestCreateRecipeValidation(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	cases := []struct {
		name    string
		mutate  func(*domain.CreateRecipeRequest)
		wantErr error
	}{
		{
			name:    "no tags",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Tags = nil },
			wantErr: domain.ErrNoTags,
		},
		{
			name:    "no ingredients",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Ingredients = nil },
			wantErr: domain.ErrNoIngredients,
		},
		{
			name: "duplicate tags",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Tags = []uint{tags[0].ID, tags[0].ID}
			},
			wantErr: domain.ErrDuplicateTags,
		},
		{
			name: "duplicate ingredients",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientInput{
					{ID: ingredients[0].ID, Amount: 100},
					{ID: ingredients[0].ID, Amount: 200},
				}
			},
			wantErr: domain.ErrDuplicateIngredients,
		},
		{
			name: "unknown tag",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Tags = []uint{9999}
			},
			wantErr: domain.ErrTagNotFound,
		},
		{
			name: "unknown ingredient",
			mutate: func(r *domain.CreateRecipeRequest) {
				r.Ingredients = []domain.RecipeIngredientInput{{ID: 9999, Amount: 100}}
			},
			wantErr: domain.ErrIngredientNotFound,
		},
		{
			name:    "malformed image",
			mutate:  func(r *domain.CreateRecipeRequest) { r.Image = "not-an-image" },
			wantErr: domain.ErrInvalidImage,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest(tags, ingredients)
			tc.mutate(&req)
			_, err := service.CreateRecipe(context.Background(), req, author.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	update := domain.UpdateRecipeRequest{
		Name:        "Dinner pancakes",
		Text:        "Now for dinner.",
		CookingTime: 25,
		Tags:        []uint{tags[1].ID},
		Ingredients: []domain.RecipeIngredientInput{
			{ID: ingredients[2].ID, Amount: 5},
		},
	}
	detail, err := service.UpdateRecipe(context.Background(), created.ID, update, author.ID, domain.RoleUser)
	if err != nil {
		t.Fatalf("UpdateRecipe: %v", err)
	}

	if detail.Name != "Dinner pancakes" || detail.CookingTime != 25 {
		t.Errorf("scalar fields not updated: %+v", detail)
	}
	if len(detail.Tags) != 1 || detail.Tags[0].Slug != "dinner" {
		t.Errorf("tags = %+v, want replaced by dinner", detail.Tags)
	}
	if len(detail.Ingredients) != 1 || detail.Ingredients[0].Name != "Salt" {
		t.Errorf("ingredients = %+v, want replaced by salt", detail.Ingredients)
	}
	if detail.Image != created.Image {
		t.Errorf("image changed without payload: %q != %q", detail.Image, created.Image)
	}

	var rows int64
	if err := db.Model(&entities.RecipeIngredient{}).Where("recipe_id = ?", created.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count ingredient rows: %v", err)
	}
	if rows != 1 {
		t.Errorf("ingredient rows = %d, want 1", rows)
	}
}

func TestUpdateRecipeAccess(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	stranger := seedUser(t, db, "bob")
	admin := seedUser(t, db, "root")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	update := domain.UpdateRecipeRequest{
		Name:        "Hijacked",
		Text:        "x",
		CookingTime: 1,
		Tags:        []uint{tags[0].ID},
		Ingredients: []domain.RecipeIngredientInput{{ID: ingredients[0].ID, Amount: 1}},
	}

	if _, err := service.UpdateRecipe(context.Background(), created.ID, update, stranger.ID, domain.RoleUser); !errors.Is(err, domain.ErrRecipeAccessDenied) {
		t.Errorf("stranger update err = %v, want %v", err, domain.ErrRecipeAccessDenied)
	}
	if _, err := service.UpdateRecipe(context.Background(), created.ID, update, admin.ID, domain.RoleAdmin); err != nil {
		t.Errorf("admin update err = %v, want nil", err)
	}
	if err := service.DeleteRecipe(context.Background(), created.ID, stranger.ID, domain.RoleUser); !errors.Is(err, domain.ErrRecipeAccessDenied) {
		t.Errorf("stranger delete err = %v, want %v", err, domain.ErrRecipeAccessDenied)
	}
}

func TestDeleteRecipe(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if _, err := service.Favorite(context.Background(), created.ID, author.ID); err != nil {
		t.Fatalf("Favorite: %v", err)
	}

	if err := service.DeleteRecipe(context.Background(), created.ID, author.ID, domain.RoleUser); err != nil {
		t.Fatalf("DeleteRecipe: %v", err)
	}

	if _, err := service.GetRecipeDetail(context.Background(), created.ID, author.ID); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("detail err = %v, want %v", err, domain.ErrRecipeNotFound)
	}

	var favorites int64
	if err := db.Model(&entities.Favorite{}).Where("recipe_id = ?", created.ID).Count(&favorites).Error; err != nil {
		t.Fatalf("count favorites: %v", err)
	}
	if favorites != 0 {
		t.Errorf("favorite rows = %d, want 0", favorites)
	}
}

func TestFavoriteLifecycle(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	short, err := service.Favorite(context.Background(), created.ID, reader.ID)
	if err != nil {
		t.Fatalf("Favorite: %v", err)
	}
	if short.ID != created.ID || short.Name != created.Name {
		t.Errorf("short = %+v, want echo of recipe", short)
	}

	if _, err := service.Favorite(context.Background(), created.ID, reader.ID); !errors.Is(err, domain.ErrAlreadyFavorited) {
		t.Errorf("second favorite err = %v, want %v", err, domain.ErrAlreadyFavorited)
	}

	detail, err := service.GetRecipeDetail(context.Background(), created.ID, reader.ID)
	if err != nil {
		t.Fatalf("GetRecipeDetail: %v", err)
	}
	if !detail.IsFavorited {
		t.Error("is_favorited = false after favoriting")
	}

	if err := service.Unfavorite(context.Background(), created.ID, reader.ID); err != nil {
		t.Fatalf("Unfavorite: %v", err)
	}
	if err := service.Unfavorite(context.Background(), created.ID, reader.ID); !errors.Is(err, domain.ErrNotInFavorites) {
		t.Errorf("second unfavorite err = %v, want %v", err, domain.ErrNotInFavorites)
	}

	if _, err := service.Favorite(context.Background(), 9999, reader.ID); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("missing recipe err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
}

func TestShoppingCartLifecycle(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	if _, err := service.AddToShoppingCart(context.Background(), created.ID, author.ID); err != nil {
		t.Fatalf("AddToShoppingCart: %v", err)
	}
	if _, err := service.AddToShoppingCart(context.Background(), created.ID, author.ID); !errors.Is(err, domain.ErrAlreadyInCart) {
		t.Errorf("second add err = %v, want %v", err, domain.ErrAlreadyInCart)
	}
	if err := service.RemoveFromShoppingCart(context.Background(), created.ID, author.ID); err != nil {
		t.Fatalf("RemoveFromShoppingCart: %v", err)
	}
	if err := service.RemoveFromShoppingCart(context.Background(), created.ID, author.ID); !errors.Is(err, domain.ErrNotInCart) {
		t.Errorf("second remove err = %v, want %v", err, domain.ErrNotInCart)
	}
}

func TestDownloadShoppingCart(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	first := createRequest(tags, ingredients)
	second := domain.CreateRecipeRequest{
		Name:        "Bread",
		Text:        "Bake it.",
		Image:       testImage,
		CookingTime: 60,
		Tags:        []uint{tags[1].ID},
		Ingredients: []domain.RecipeIngredientInput{
			{ID: ingredients[0].ID, Amount: 500},
			{ID: ingredients[2].ID, Amount: 10},
		},
	}

	for _, req := range []domain.CreateRecipeRequest{first, second} {
		detail, err := service.CreateRecipe(context.Background(), req, author.ID)
		if err != nil {
			t.Fatalf("CreateRecipe %s: %v", req.Name, err)
		}
		if _, err := service.AddToShoppingCart(context.Background(), detail.ID, author.ID); err != nil {
			t.Fatalf("AddToShoppingCart %s: %v", req.Name, err)
		}
	}

	list, err := service.DownloadShoppingCart(context.Background(), author.ID)
	if err != nil {
		t.Fatalf("DownloadShoppingCart: %v", err)
	}

	if !strings.HasPrefix(list, "Shopping list for Test Alice:") {
		t.Errorf("list header = %q", strings.SplitN(list, "\n", 2)[0])
	}
	// Flour appears in both recipes and must be summed once.
	if !strings.Contains(list, "Flour (g) — 700") {
		t.Errorf("list missing aggregated flour line:\n%s", list)
	}
	if !strings.Contains(list, "Milk (ml) — 300") || !strings.Contains(list, "Salt (g) — 10") {
		t.Errorf("list missing single-recipe lines:\n%s", list)
	}
	if strings.Count(list, "Flour") != 1 {
		t.Errorf("flour listed more than once:\n%s", list)
	}

	flourIdx := strings.Index(list, "Flour")
	saltIdx := strings.Index(list, "Salt")
	if flourIdx > saltIdx {
		t.Errorf("lines not sorted by ingredient name:\n%s", list)
	}
}

func TestDownloadShoppingCartEmpty(t *testing.T) {
	service, db := newTestService(t)
	reader := seedUser(t, db, "bob")

	if _, err := service.DownloadShoppingCart(context.Background(), reader.ID); !errors.Is(err, domain.ErrShoppingCartEmpty) {
		t.Errorf("err = %v, want %v", err, domain.ErrShoppingCartEmpty)
	}
}

func TestGetRecipesFilters(t *testing.T) {
	service, db := newTestService(t)
	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	tags, ingredients := seedCatalog(t, db)

	breakfast, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), alice.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	dinnerReq := createRequest(tags, ingredients)
	dinnerReq.Name = "Stew"
	dinnerReq.Tags = []uint{tags[1].ID}
	if _, err := service.CreateRecipe(context.Background(), dinnerReq, bob.ID); err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}
	if _, err := service.Favorite(context.Background(), breakfast.ID, bob.ID); err != nil {
		t.Fatalf("Favorite: %v", err)
	}

	all, count, err := service.GetRecipes(context.Background(), domain.RecipeFilter{}, 1, 10)
	if err != nil {
		t.Fatalf("GetRecipes: %v", err)
	}
	if count != 2 || len(all) != 2 {
		t.Fatalf("count = %d, len = %d, want 2/2", count, len(all))
	}
	// Newest first; anonymous viewers never see personal flags.
	if all[0].Name != "Stew" {
		t.Errorf("first recipe = %q, want newest", all[0].Name)
	}
	for _, r := range all {
		if r.IsFavorited || r.IsInShoppingCart {
			t.Errorf("anonymous flags set on %q", r.Name)
		}
	}

	byTag, count, err := service.GetRecipes(context.Background(), domain.RecipeFilter{TagSlugs: []string{"breakfast"}}, 1, 10)
	if err != nil {
		t.Fatalf("GetRecipes by tag: %v", err)
	}
	if count != 1 || len(byTag) != 1 || byTag[0].ID != breakfast.ID {
		t.Errorf("tag filter returned %d/%d", count, len(byTag))
	}

	byAuthor, count, err := service.GetRecipes(context.Background(), domain.RecipeFilter{AuthorID: bob.ID}, 1, 10)
	if err != nil {
		t.Fatalf("GetRecipes by author: %v", err)
	}
	if count != 1 || len(byAuthor) != 1 || byAuthor[0].Author.ID != bob.ID {
		t.Errorf("author filter returned %d/%d", count, len(byAuthor))
	}

	favorited, count, err := service.GetRecipes(context.Background(), domain.RecipeFilter{Favorited: true, ViewerID: bob.ID}, 1, 10)
	if err != nil {
		t.Fatalf("GetRecipes favorited: %v", err)
	}
	if count != 1 || len(favorited) != 1 || favorited[0].ID != breakfast.ID {
		t.Errorf("favorited filter returned %d/%d", count, len(favorited))
	}
	if !favorited[0].IsFavorited {
		t.Error("is_favorited = false for the viewer's favorite")
	}
}

func TestShortLinkRoundtrip(t *testing.T) {
	service, db := newTestService(t)
	author := seedUser(t, db, "alice")
	tags, ingredients := seedCatalog(t, db)

	created, err := service.CreateRecipe(context.Background(), createRequest(tags, ingredients), author.ID)
	if err != nil {
		t.Fatalf("CreateRecipe: %v", err)
	}

	link, err := service.GetShortLink(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetShortLink: %v", err)
	}
	token := link.ShortLink[strings.LastIndex(link.ShortLink, "/")+1:]
	if token == "" {
		t.Fatalf("short link %q has no token", link.ShortLink)
	}

	id, err := service.ResolveShortLink(context.Background(), token)
	if err != nil {
		t.Fatalf("ResolveShortLink: %v", err)
	}
	if id != created.ID {
		t.Errorf("resolved id = %d, want %d", id, created.ID)
	}

	if _, err := service.ResolveShortLink(context.Background(), "!!!"); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("malformed token err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
	if _, err := service.ResolveShortLink(context.Background(), EncodeShortLinkToken(9999)); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("missing recipe err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
	if _, err := service.GetShortLink(context.Background(), 9999); !errors.Is(err, domain.ErrRecipeNotFound) {
		t.Errorf("missing recipe link err = %v, want %v", err, domain.ErrRecipeNotFound)
	}
}
