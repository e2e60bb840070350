package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/bbernstein/laundrylocator/backend-go/internal/api"
	"github.com/bbernstein/laundrylocator/backend-go/internal/app"
	"github.com/bbernstein/laundrylocator/backend-go/internal/config"
	"github.com/bbernstein/laundrylocator/backend-go/internal/handler"
	"github.com/rs/zerolog/log"
)

var (
	router      *handler.Router
	setupOnce   sync.Once
	lambdaStart = lambda.Start
	initRouter  = defaultInitRouter
)

func defaultInitRouter(ctx context.Context) (*handler.Router, error) {
	cfg := config.LoadFromEnv()
	cfg.InitializeLogging()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a, err := app.New(ctx, cfg, config.GetCacheConfig())
	if err != nil {
		return nil, err
	}
	return a.Router, nil
}

func handleRequest(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if router == nil {
		resp, _ := api.Error("Handler not initialized", http.StatusInternalServerError)
		return resp, fmt.Errorf("handler not initialized")
	}
	return router.HandleRequest(ctx, event)
}

func InitializeService() error {
	var initError error
	setupOnce.Do(func() {
		log.Debug().Msg("Initializing laundromat locator service...")
		var err error
		router, err = initRouter(context.Background())
		if err != nil {
			initError = fmt.Errorf("failed to initialize service: %w", err)
			return
		}
		log.Debug().Msg("Service initialized successfully")
	})
	return initError
}

func main() {
	if err := InitializeService(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize service")
	}
	lambdaStart(handleRequest)
}
