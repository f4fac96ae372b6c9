package main

import (
	"flag"
	"log"
	"os"
	"strconv"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/publish"
	"github.com/df07/go-pathtracer/web/server"
)

func main() {
	envFile := flag.String("env", ".env", "Environment file to load")
	port := flag.Int("port", 0, "Port to serve on (default RAYTRACER_PORT or 8080)")
	scenesDir := flag.String("scenes", "scenes", "Directory of JSON scene files")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Printf("Error loading configuration: %v", err)
		os.Exit(1)
	}

	if *port == 0 {
		if *port, err = strconv.Atoi(cfg.Port); err != nil {
			log.Printf("Invalid port %q: %v", cfg.Port, err)
			os.Exit(1)
		}
	}

	webServer := server.NewServer(*port, *scenesDir)

	if cfg.S3Enabled() {
		uploader, err := publish.NewUploader(cfg, log.Default())
		if err != nil {
			log.Printf("Error configuring S3 uploads: %v", err)
			os.Exit(1)
		}
		webServer.SetUploader(uploader)
		log.Printf("Uploads enabled for bucket %s", cfg.S3Bucket)
	}

	log.Printf("Path Tracer Web Server")
	log.Printf("Visit http://localhost:%d to start rendering", *port)

	if err := webServer.Start(); err != nil {
		log.Printf("Error starting server: %v", err)
		os.Exit(1)
	}
}
