package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"sketchserver/internal/config"
	"sketchserver/internal/model"
	"sketchserver/internal/repository/sqlite"
	"sketchserver/internal/sketch"
)

// sketch converts a single image file without starting the server.
func main() {
	in := flag.String("in", "", "Input image (jpg, png, ...)")
	out := flag.String("out", "sketch.jpg", "Output JPEG path")
	quality := flag.Int("quality", 0, "JPEG quality 1-100 (default from JPEG_QUALITY)")
	dbPath := flag.String("db", "", "Record the result in this database (optional)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *quality == 0 {
		*quality = cfg.JPEGQuality
	}

	pipeline, err := sketch.New(cfg.Sketch)
	if err != nil {
		log.Fatalf("Invalid sketch parameters: %v", err)
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *in, err)
	}

	start := time.Now()
	jpeg, size, err := pipeline.SketchBytes(data, *quality)
	if err != nil {
		log.Fatalf("Failed to sketch %s: %v", *in, err)
	}

	if err := os.WriteFile(*out, jpeg, 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", *out, err)
	}
	fmt.Printf("✅ %s -> %s (%dx%d, %d bytes) in %v\n", *in, *out, size.X, size.Y, len(jpeg), time.Since(start))

	if *dbPath == "" {
		return
	}

	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	absOut, err := filepath.Abs(*out)
	if err != nil {
		absOut = *out
	}

	id, err := sqlite.NewSketchRepository(db).Insert(&model.Sketch{
		Filename:  filepath.Base(*out),
		Source:    model.SourceUpload,
		Original:  filepath.Base(*in),
		Width:     size.X,
		Height:    size.Y,
		Timestamp: time.Now(),
		FilePath:  absOut,
		FileSize:  int64(len(jpeg)),
	})
	if err != nil {
		log.Fatalf("Failed to record sketch: %v", err)
	}
	fmt.Printf("📁 Recorded as sketch #%d in %s\n", id, *dbPath)
}
