package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gocv.io/x/gocv"

	"sketchserver/internal/model"
	"sketchserver/internal/repository/sqlite"
	"sketchserver/internal/service/storage"
)

// migrate indexes sketch files that exist on disk but are missing from the database.
func main() {
	imagesDir := flag.String("images", "sketches", "Directory containing stored sketches")
	dbPath := flag.String("db", "data/sketches.db", "Database path")
	flag.Parse()

	fmt.Printf("Indexing sketches from %s into database %s\n", *imagesDir, *dbPath)

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewSketchRepository(db)

	files, err := os.ReadDir(*imagesDir)
	if err != nil {
		log.Fatalf("Failed to read sketch directory: %v", err)
	}

	inserted, skipped := 0, 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		timestamp, source, err := storage.ParseSketchFilename(file.Name())
		if err != nil {
			log.Printf("⚠️  Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		existing, err := repo.GetByFilename(file.Name())
		if err != nil {
			log.Fatalf("Failed to query database: %v", err)
		}
		if existing != nil {
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Printf("⚠️  Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		fullpath := filepath.Join(*imagesDir, file.Name())
		img := gocv.IMRead(fullpath, gocv.IMReadGrayScale)
		width, height := img.Cols(), img.Rows()
		empty := img.Empty()
		img.Close()
		if empty {
			log.Printf("⚠️  Skipping unreadable image %s", file.Name())
			skipped++
			continue
		}

		_, err = repo.Insert(&model.Sketch{
			Filename:  file.Name(),
			Source:    source,
			Width:     width,
			Height:    height,
			Timestamp: timestamp,
			FilePath:  fullpath,
			FileSize:  info.Size(),
		})
		if err != nil {
			log.Printf("⚠️  Failed to insert %s: %v", file.Name(), err)
			skipped++
			continue
		}
		inserted++
	}

	fmt.Printf("✅ Indexed %d sketches (%d skipped)\n", inserted, skipped)
}
