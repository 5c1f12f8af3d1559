// Command lambda serves the courses API from AWS Lambda behind an API Gateway HTTP API.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	chiadapter "github.com/awslabs/aws-lambda-go-api-proxy/chi"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/makoye224/cwru-courses-backend/internal/app"
	"github.com/makoye224/cwru-courses-backend/internal/config"
	logpkg "github.com/makoye224/cwru-courses-backend/internal/logger"
	"github.com/makoye224/cwru-courses-backend/internal/version"
)

func main() {
	env := config.GetEnv()
	cfg := config.MustLoad(env)

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Cold start",
		zap.String("build", version.String()),
		zap.String("env", env),
		zap.String("db_driver", cfg.Database.Driver),
	)

	// The store lives for the whole execution environment; it is never closed.
	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to start", zap.Error(err))
	}

	r := chi.NewRouter()
	r.Mount("/", a.Handler)
	adapter := chiadapter.NewV2(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return adapter.ProxyWithContextV2(ctx, req) //nolint:wrapcheck // returned to the runtime as-is
	})
}
