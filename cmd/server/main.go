package main

import (
	"context"
	"log"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}

	app.Run(ctx)

}
