package database

import (
	"database/sql"
	"log"
	"time"

	"gebeya-market/internal/domain/listing"
	"gebeya-market/internal/domain/user"

	"github.com/google/uuid"
)

// SeedConfig holds configuration for seeding the database
type SeedConfig struct {
	AdminTelegramID int64
	AdminFirstName  string
	AdminCity       string
	ListingDays     int
}

// DefaultSeedConfig returns default seed configuration
func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{
		AdminTelegramID: 1,
		AdminFirstName:  "Gebeya Demo",
		AdminCity:       "Addis Ababa",
		ListingDays:     30,
	}
}

// SeedResult holds the result of the seeding operation
type SeedResult struct {
	AdminUser  *user.User
	Categories []listing.Category
	Listings   []listing.Listing
}

var demoCategories = []struct {
	slug, name string
}{
	{"electronics", "Electronics"},
	{"vehicles", "Vehicles"},
	{"home-garden", "Home & Garden"},
	{"fashion", "Fashion"},
	{"gaming", "Gaming"},
	{"kids-baby", "Kids & Baby"},
}

type demoListing struct {
	title        string
	description  string
	price        float64
	condition    string
	categorySlug string
	image        string
	area         string
}

var demoListings = []demoListing{
	{"iPhone 14 Pro Max - አዲስ", "Brand new iPhone 14 Pro Max, 256GB, Deep Purple. ከሳጥን ያልወጣ፣ ዋስትና አለው።", 85000, "new", "electronics", "https://images.unsplash.com/photo-1678685888221-cda773a3dcdb?w=400", "Bole"},
	{"Samsung Galaxy S23 Ultra", "ጥቅም ላይ የዋለ፣ ጥሩ ሁኔታ ላይ ያለ። Charger እና case ጋር።", 55000, "used", "electronics", "https://images.unsplash.com/photo-1610945415295-d9bbf067e59c?w=400", "Kazanchis"},
	{"MacBook Pro M2 - 14 inch", "MacBook Pro 14\", M2 Pro chip, 16GB RAM, 512GB SSD. ለስራ ተስማሚ!", 120000, "like_new", "electronics", "https://images.unsplash.com/photo-1517336714731-489689fd1ca8?w=400", "CMC"},
	{"Toyota Vitz 2018", "Toyota Vitz, 2018 model, automatic, 45,000 km. Very clean, accident-free.", 1200000, "used", "vehicles", "https://images.unsplash.com/photo-1549317661-bd32c8ce0db2?w=400", "Megenagna"},
	{"ሶፋ ቤድ - L-Shape", "L-shaped sofa bed, grey fabric, converts to bed. ከአዲስ የተገዛ፣ 6 ወር ያህል የዋለ።", 35000, "like_new", "home-garden", "https://images.unsplash.com/photo-1555041469-a586c61ea9bc?w=400", "Sarbet"},
	{"Nike Air Jordan 1 - Size 42", "Original Nike Air Jordan 1 High, size 42 (EU). ከውጭ የመጣ።", 8500, "new", "fashion", "https://images.unsplash.com/photo-1542291026-7eec264c27ff?w=400", "Piassa"},
	{"PlayStation 5 + 2 Controllers", "PS5 Disc Edition with 2 controllers and 3 games (FIFA 24, Spider-Man 2, GTA V).", 45000, "used", "gaming", "https://images.unsplash.com/photo-1606144042614-b2417e99c4e3?w=400", "Mexico"},
	{"Baby Stroller - Graco", "Graco stroller, excellent condition. Foldable, includes rain cover and cup holder.", 4500, "used", "kids-baby", "https://images.unsplash.com/photo-1591088398332-8a7791972843?w=400", "Gerji"},
}

// Seed inserts the demo marketplace data. It is idempotent: an existing
// marketplace (any listing present) is left untouched.
func Seed(cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	result := &SeedResult{}

	var count int64
	if err := DB.Model(&listing.Listing{}).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		log.Printf("Skipping seed: %d listings already exist", count)
		return result, nil
	}

	admin := &user.User{
		ID:         uuid.New(),
		TelegramID: cfg.AdminTelegramID,
		FirstName:  cfg.AdminFirstName,
		City:       cfg.AdminCity,
	}
	if err := DB.Create(admin).Error; err != nil {
		return nil, err
	}
	result.AdminUser = admin

	bySlug := make(map[string]uuid.UUID, len(demoCategories))
	for _, c := range demoCategories {
		cat := listing.Category{ID: uuid.New(), Slug: c.slug, Name: c.name}
		if err := DB.Create(&cat).Error; err != nil {
			return nil, err
		}
		bySlug[c.slug] = cat.ID
		result.Categories = append(result.Categories, cat)
	}

	expires := time.Now().AddDate(0, 0, cfg.ListingDays)
	for _, item := range demoListings {
		l := listing.Listing{
			ID:           uuid.New(),
			UserID:       admin.ID,
			CategoryID:   bySlug[item.categorySlug],
			Title:        item.title,
			Description:  item.description,
			Price:        item.price,
			Condition:    item.condition,
			IsNegotiable: true,
			City:         cfg.AdminCity,
			Area:         sql.NullString{String: item.area, Valid: item.area != ""},
			Images:       []string{item.image},
			Status:       listing.StatusActive,
			ExpiresAt:    sql.NullTime{Time: expires, Valid: true},
		}
		if err := DB.Create(&l).Error; err != nil {
			return nil, err
		}
		result.Listings = append(result.Listings, l)
	}

	if err := DB.Model(admin).Update("total_listings", len(result.Listings)).Error; err != nil {
		return nil, err
	}

	log.Printf("Seeded %d categories and %d demo listings", len(result.Categories), len(result.Listings))
	return result, nil
}
