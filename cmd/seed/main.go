package main

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/Tixario2/tixario-2/internal/config"
	"github.com/Tixario2/tixario-2/internal/database"
	"github.com/Tixario2/tixario-2/internal/models"
	"github.com/Tixario2/tixario-2/internal/repositories"
	"github.com/Tixario2/tixario-2/internal/services"
)

// Seeds a demo event with one offer per zone so the storefront has
// something to sell locally. If R2 is configured and an assets/ directory
// exists, its files are uploaded under their relative paths so the seeded
// map_svg/map_png keys resolve.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewConnection(database.Config{
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		DBName:   cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	offers := []*models.Offer{
		{
			ID: "indochine-co-1", Slug: "indochine", EventName: "Indochine",
			Category: "Carré Or", Price: 120, Quantity: 8, Available: true,
			EventDate: "2026-06-27", City: "Paris", Country: "France",
			ZoneID: "carre-or", MapPNG: "maps/indochine.png", MapSVG: "maps/indochine.svg",
			ArtistLogo: "logos/indochine.png",
		},
		{
			ID: "indochine-fosse-1", Slug: "indochine", EventName: "Indochine",
			Category: "Fosse", Price: 75, Quantity: 20, Available: true,
			EventDate: "2026-06-27", City: "Paris", Country: "France",
			ZoneID: "fosse", MapPNG: "maps/indochine.png", MapSVG: "maps/indochine.svg",
			ArtistLogo: "logos/indochine.png",
		},
		{
			ID: "indochine-trib-1", Slug: "indochine", EventName: "Indochine",
			Category: "Tribune Basse", Price: 95, Quantity: 12, Available: true,
			EventDate: "2026-06-27", City: "Paris", Country: "France",
			ZoneID: "tribune-basse", MapPNG: "maps/indochine.png", MapSVG: "maps/indochine.svg",
			ArtistLogo: "logos/indochine.png",
		},
		{
			ID: "indochine-trib-2", Slug: "indochine", EventName: "Indochine",
			Category: "Tribune Haute", Price: 60, Quantity: 0, Available: false,
			EventDate: "2026-06-27", City: "Paris", Country: "France",
			ZoneID: "tribune-haute", MapPNG: "maps/indochine.png", MapSVG: "maps/indochine.svg",
			ArtistLogo: "logos/indochine.png",
		},
		{
			ID: "mylene-co-1", Slug: "mylene-farmer", EventName: "Mylène Farmer",
			Category: "Carré Or", Price: 150, Quantity: 6, Available: true,
			EventDate: "2026-09-12", City: "Lyon", Country: "France",
			ZoneID: "carre-or", MapPNG: "maps/mylene.png", MapSVG: "maps/mylene.svg",
			ArtistLogo: "logos/mylene.png",
		},
	}

	repo := repositories.NewOfferRepository(db.DB)

	for _, offer := range offers {
		if err := offer.Validate(); err != nil {
			log.Fatalf("Invalid seed offer %s: %v", offer.ID, err)
		}
		if err := repo.Create(offer); err != nil {
			log.Printf("Skipping %s: %v", offer.ID, err)
			continue
		}
		fmt.Printf("Seeded offer %s (%s – %s)\n", offer.ID, offer.EventName, offer.Category)
	}

	if cfg.R2.AccessKeyID != "" && cfg.R2.SecretAccessKey != "" {
		if err := uploadAssets(cfg.R2); err != nil {
			log.Printf("Asset upload failed: %v", err)
		}
	}

	fmt.Println("Seeding complete!")
}

func uploadAssets(cfg config.R2Config) error {
	if _, err := os.Stat("assets"); os.IsNotExist(err) {
		return nil
	}

	storage, err := services.NewR2Service(cfg)
	if err != nil {
		return err
	}
	images := services.NewImageService(storage)

	return filepath.Walk("assets", func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		key, _ := filepath.Rel("assets", path)

		// Raster assets go through the image pipeline so resized
		// variants land beside them; overlays and the rest upload raw.
		switch filepath.Ext(path) {
		case ".png", ".jpg", ".jpeg":
			result, err := images.UploadImage(context.Background(), data, key, variantsFor(key))
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s -> %s (+%d variants)\n", key, result.URL, len(result.Variants))
		default:
			contentType := mime.TypeByExtension(filepath.Ext(path))
			if contentType == "" {
				contentType = "application/octet-stream"
			}
			url, err := storage.Upload(context.Background(), key, data, contentType)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s -> %s\n", key, url)
		}
		return nil
	})
}

func variantsFor(key string) []services.ImageVariant {
	if strings.HasPrefix(key, "logos/") {
		return services.LogoVariants
	}
	return services.MapVariants
}
