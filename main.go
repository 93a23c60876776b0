package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/example/chat-relay-demo/modules/api"
	"github.com/example/chat-relay-demo/modules/directory"
	"github.com/example/chat-relay-demo/modules/relay"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
)

const shutdownTimeout = 30 * time.Second

func main() {
	log.Println("=== Chat Relay - Fiber + EventBus Pubsub ===")

	// Create mono application
	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Create modules
	directoryModule := directory.NewModule()
	relayModule := relay.NewModule()
	apiModule := api.NewModule()

	// Inject relay state where the ServiceContainer cannot carry it:
	// live member counts for room listings, and the hub for the API module.
	directoryModule.SetMemberCounter(relayModule.Hub().MemberCount)
	apiModule.SetRelay(relayModule)

	// Register modules with the framework.
	// Order: independent modules first, then modules with dependencies
	// - directory: room metadata (ServiceProviderModule + EventEmitterModule)
	// - relay: connection registry + fan-out (EventConsumerModule)
	// - api: driving adapter (Fiber HTTP/WebSocket server)
	app.Register(directoryModule)
	app.Register(relayModule)
	app.Register(apiModule)

	// Start application
	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo()

	// Graceful shutdown
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	log.Println("")
	log.Println("Application started successfully!")
	log.Println("")
	log.Printf("REST API Endpoints (http://localhost:%s):", port)
	log.Println("  GET    /health                       - Health check")
	log.Println("  GET    /api/v1/rooms                 - List rooms with member counts")
	log.Println("  POST   /api/v1/rooms                 - Create a room (optional password)")
	log.Println("  POST   /api/v1/rooms/join            - Pre-check room credentials")
	log.Println("  PUT    /api/v1/rooms/:id/password    - Change a room password")
	log.Println("")
	log.Printf("WebSocket Endpoint (ws://localhost:%s/ws):", port)
	log.Println("  Client frames: join, chat, ping")
	log.Println("  Server frames: joined, chat, user_joined, user_left, room_created, error, pong")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}
