package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/slotd/slotd/pkg/filestore"
	"github.com/slotd/slotd/pkg/handler"
	"github.com/slotd/slotd/pkg/hooks"
)

// Serve sets up the handler according to the flags and runs the HTTP server
// until it receives a SIGINT or SIGTERM, after which open requests get the
// shutdown timeout to complete.
func Serve() {
	dirMode := fileMode(Flags.DirModeString, "dir-mode")

	if err := os.MkdirAll(Flags.UploadDir, dirMode); err != nil {
		stderr.Fatalf("Unable to ensure directory exists: %s", err)
	}

	store := filestore.New(Flags.UploadDir)
	store.FileMode = fileMode(Flags.FileModeString, "file-mode")
	store.DirMode = dirMode

	config := handler.Config{
		Store:               store,
		Secret:              Flags.Secret,
		StripPrefixSegments: Flags.StripPrefixSegments,
		ExtraHeaders:        extraHeaders(),
		Logger:              structuredLogger,
	}

	var slotHandler *handler.Handler
	var err error
	if hookHandler := getHookHandler(); hookHandler != nil {
		slotHandler, err = hooks.NewHandlerWithHooks(&config, hookHandler)
	} else {
		slotHandler, err = handler.NewHandler(config)
	}
	if err != nil {
		stderr.Fatalf("Unable to create handler: %s", err)
	}

	basepath := Flags.Basepath
	address := Flags.HttpHost + ":" + Flags.HttpPort

	if Flags.ShowStartupLogs {
		if Flags.HttpSock != "" {
			stdout.Printf("Using %s as socket to listen.\n", Flags.HttpSock)
		} else {
			stdout.Printf("Using %s as address to listen.\n", address)
		}
		stdout.Printf("Using %s as the base path.\n", basepath)
		stdout.Printf("Using %s as the upload directory.\n", Flags.UploadDir)
		stdout.Printf("Stripping %d path segment(s) before MAC validation.\n", Flags.StripPrefixSegments)
	}

	if Flags.Secret == "" {
		stderr.Printf("Warning: no secret is configured, all PUT requests will be rejected. Set the -secret flag or the SECRET environment variable.\n")
	}

	mux := http.NewServeMux()

	// The handler strips the base path segments itself while deriving the MAC
	// message, so it is mounted without http.StripPrefix.
	mux.Handle(basepath, slotHandler)
	if basepath != "/" {
		mux.Handle("/", http.NotFoundHandler())
	}

	if Flags.ExposeMetrics {
		SetupMetrics(mux, slotHandler)
	}
	if Flags.ExposePprof {
		SetupPprof(mux)
	}

	var rootHandler http.Handler = mux
	if Flags.EnableH2C {
		rootHandler = h2c.NewHandler(mux, &http2.Server{})
	}

	var listener net.Listener
	if Flags.HttpSock != "" {
		listener, err = NewUnixListener(Flags.HttpSock, Flags.NetworkTimeout, Flags.NetworkTimeout)
	} else {
		listener, err = NewListener(address, Flags.NetworkTimeout, Flags.NetworkTimeout)
	}
	if err != nil {
		stderr.Fatalf("Unable to create listener: %s", err)
	}

	server := &http.Server{
		Handler: rootHandler,
	}

	shutdownComplete := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint
		signal.Stop(sigint)

		stdout.Println("Received interrupt signal. Shutting down slotd...")

		ctx, cancel := context.WithTimeout(context.Background(), Flags.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			stderr.Printf("Failed to shutdown gracefully: %s\n", err)
		}

		close(shutdownComplete)
	}()

	if err := server.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		stderr.Fatalf("Unable to serve: %s", err)
	}

	<-shutdownComplete
	stdout.Println("Shutdown completed. Goodbye!")
}
