package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/surveycrm/pollbridge/internal/app"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on process environment")
	}

	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Log.Info("Server starting", "addr", application.Cfg.HTTPAddr)
	if err := application.Run(); err != nil {
		application.Log.Error("Server exited", "error", err.Error())
		os.Exit(1)
	}
}
