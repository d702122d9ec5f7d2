// Command api runs the student registry REST API together with its ops
// gRPC health service and ops HTTP server.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"student-registry/cmd/api/app"
	"student-registry/cmd/api/server"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}

	ctx, stop := server.WithSignal(context.Background(), a.Logger)
	defer stop()

	if err := a.Run(ctx); err != nil {
		stop()
		a.Logger.Fatal("application exited with error", zap.Error(err))
	}
}
