package main

import (
	"context"
	"log"

	"github.com/Apurer/warehouse-fulfillment/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("fulfillment API failed: %v", err)
	}
}
