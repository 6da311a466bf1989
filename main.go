// Command ludo starts the Ludo game server.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Settings are read from the environment (and .env) and can be overridden by
// flags: host/port, config directory, session store, debug logging and an
// optional ngrok tunnel for easy external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"github.com/wricardo/ludo-game/api"
	"github.com/wricardo/ludo-game/game/config"
	"github.com/wricardo/ludo-game/game/service"
	"github.com/wricardo/ludo-game/game/session"
	"github.com/wricardo/ludo-game/transport/mcp"
	"github.com/wricardo/ludo-game/transport/websocket"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Ludo Game Server"
)

const externalURL = "http://localhost:8080"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	loadDotEnv()

	settings, err := loadSettings()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(settings).Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("ludo exited")
	}
}

// newApp builds the command tree. Flag defaults come from settings, so an
// explicit flag wins over the environment.
func newApp(settings *Settings) *cli.Command {
	return &cli.Command{
		Name:    "ludo",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: settings.Host, Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Value: settings.Port, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Value: settings.ConfigDir, Usage: "directory containing game configurations"},
			&cli.StringFlag{Name: "store", Value: settings.Store, Usage: "session store: file or sqlite"},
			&cli.StringFlag{Name: "sessions-dir", Value: settings.SessionsDir, Usage: "directory for the file session store"},
			&cli.StringFlag{Name: "db", Value: settings.DBPath, Usage: "database path for the sqlite session store"},
			&cli.DurationFlag{Name: "session-ttl", Value: settings.SessionTTL, Usage: "evict sessions idle for longer than this from memory"},
			&cli.BoolFlag{Name: "debug", Value: settings.Debug, Usage: "enable debug logging"},
			&cli.BoolFlag{Name: "ngrok", Value: settings.Ngrok.Enabled, Usage: "enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Value: settings.Ngrok.AuthToken, Usage: "ngrok auth token (or NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Value: settings.Ngrok.Domain, Usage: "custom ngrok domain"},
		},
		DefaultCommand: "serve",
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "run the HTTP server with API, WebSocket, and MCP endpoint",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := configure(settings, cmd); err != nil {
						return err
					}
					return runHTTPServer(ctx, settings)
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "run an MCP stdio server backed by an HTTP API",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					if err := configure(settings, cmd); err != nil {
						return err
					}
					return runStdioMCP(ctx, settings)
				},
			},
		},
	}
}

// configure applies flags to settings and sets the log level. It runs in
// the subcommand so flags given after the mode name are seen too.
func configure(settings *Settings, cmd *cli.Command) error {
	applyFlags(settings, cmd)
	if settings.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return settings.Validate()
}

func applyFlags(s *Settings, cmd *cli.Command) {
	s.Host = cmd.String("host")
	s.Port = int(cmd.Int("port"))
	s.ConfigDir = cmd.String("config-dir")
	s.Store = cmd.String("store")
	s.SessionsDir = cmd.String("sessions-dir")
	s.DBPath = cmd.String("db")
	s.SessionTTL = cmd.Duration("session-ttl")
	s.Debug = cmd.Bool("debug")
	s.Ngrok.Enabled = cmd.Bool("ngrok")
	s.Ngrok.AuthToken = cmd.String("ngrok-auth")
	s.Ngrok.Domain = cmd.String("ngrok-domain")
}

// services is everything a running server owns.
type services struct {
	game     service.GameService
	sessions *session.Manager
	store    session.SessionPersistence
	sqlite   *session.SQLitePersistence
	hub      *websocket.Hub
}

// Close releases the session store.
func (s *services) Close() error {
	if s.sqlite != nil {
		return s.sqlite.Close()
	}
	return nil
}

// initializeServices wires the config manager, the session store, the
// session manager, and the game service. Engine notifications of every
// session are streamed to the hub.
func initializeServices(settings *Settings) (*services, error) {
	configManager, err := config.NewManager(settings.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	svc := &services{hub: websocket.NewHub()}
	switch settings.Store {
	case StoreSQLite:
		svc.sqlite, err = session.OpenSQLitePersistence(settings.DBPath, configManager)
		svc.store = svc.sqlite
	default:
		svc.store, err = session.NewFilePersistence(settings.SessionsDir, configManager)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create session persistence: %w", err)
	}

	svc.sessions = session.NewManagerWithPersistence(svc.store)
	if err := svc.sessions.LoadPersistedSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to load persisted sessions")
	}

	svc.game = service.NewGameService(svc.sessions, configManager,
		service.WithNotifierFactory(svc.hub.Notifier))
	log.Info().
		Str("store", settings.Store).
		Int("sessions", svc.sessions.Count()).
		Msg("services initialized")
	return svc, nil
}

// newRouter combines the API server and the /mcp endpoint, whose tools call
// back into the API at baseURL.
func newRouter(svc *services, baseURL string) http.Handler {
	apiServer := api.NewServer(svc.game, svc.hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		defer r.Body.Close()
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	})
	return mainRouter
}

// runHTTPServer serves the API until ctx is cancelled. If ngrok is enabled
// it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, settings *Settings) error {
	svc, err := initializeServices(settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close session store")
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	background := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	background(func() { svc.hub.Run(ctx) })
	background(func() { sessionCleanupRoutine(ctx, svc, settings, time.Hour) })
	if settings.Store == StoreFile {
		background(func() { filesystemSyncRoutine(ctx, svc.sessions, svc.store, 5*time.Second) })
	}

	addr := settings.Addr()
	handler := newRouter(svc, "http://"+addr)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("api", fmt.Sprintf("http://%s/api", addr)).
			Str("ws", fmt.Sprintf("ws://%s/ws?session=<session_id>", addr)).
			Str("mcp", fmt.Sprintf("http://%s/mcp", addr)).
			Msgf("%s v%s listening", AppName, Version)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	if settings.Ngrok.Enabled {
		background(func() { runNgrokTunnel(ctx, settings.Ngrok, handler) })
	}

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-serveErr:
		if err != nil {
			cancel()
			wg.Wait()
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// The ngrok listener drains its own requests; wait for it and the
	// background routines before the final save.
	wg.Wait()

	if err := svc.sessions.SaveAllSessions(); err != nil {
		log.Warn().Err(err).Msg("failed to save sessions on shutdown")
	}
	log.Info().Msg("server stopped")
	return nil
}

func runNgrokTunnel(ctx context.Context, settings NgrokSettings, handler http.Handler) {
	if settings.AuthToken == "" {
		log.Warn().Msg("ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN)")
		return
	}

	log.Info().Msg("starting ngrok tunnel")

	var tunnel ngrokConfig.Tunnel
	if settings.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(settings.Domain))
		log.Info().Str("domain", settings.Domain).Msg("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(settings.AuthToken))
	if err != nil {
		log.Error().Err(err).Msg("failed to start ngrok tunnel")
		return
	}

	ngrokURL := tun.URL()
	log.Info().
		Str("api", ngrokURL+"/api").
		Str("ws", ngrokURL+"/ws?session=<session_id>").
		Str("mcp", ngrokURL+"/mcp").
		Msgf("ngrok tunnel established: %s", ngrokURL)

	srv := &http.Server{Handler: handler}
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Shutdown closes the tunnel listener and waits for in-flight requests.
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("ngrok server shutdown error")
		}
	}()

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("ngrok server error")
		_ = tun.Close()
	}
	<-drained
	log.Info().Msg("ngrok tunnel closed")
}

// sessionCleanupRoutine evicts sessions idle for longer than the TTL from
// memory. With the SQLite store it also prunes rows past the retention
// window.
func sessionCleanupRoutine(ctx context.Context, svc *services, settings *Settings, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if removed := svc.sessions.CleanupExpiredSessions(settings.SessionTTL); removed > 0 {
			log.Info().Int("removed", removed).Msg("cleaned up expired sessions")
		}
		if svc.sqlite != nil && settings.Retention > 0 {
			pruned, err := svc.sqlite.PruneBefore(ctx, time.Now().Add(-settings.Retention))
			if err != nil {
				log.Error().Err(err).Msg("failed to prune stored sessions")
			} else if pruned > 0 {
				log.Info().Int64("pruned", pruned).Msg("pruned stored sessions")
			}
		}
	}
}

// filesystemSyncRoutine drops sessions from memory whose files were deleted
// out from under the server.
func filesystemSyncRoutine(ctx context.Context, manager *session.Manager, persistence session.SessionPersistence, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		syncWithStore(manager, persistence)
	}
}

func syncWithStore(manager *session.Manager, persistence session.SessionPersistence) int {
	pruned := 0
	for _, s := range manager.List() {
		if persistence.Exists(s.ID) {
			continue
		}
		if err := manager.DeleteFromMemory(s.ID); err == nil {
			pruned++
			log.Debug().Str("session", s.ID).Msg("pruned session from memory (file deleted)")
		}
	}
	if pruned > 0 {
		log.Info().Int("pruned", pruned).Msg("filesystem sync pruned orphaned sessions")
	}
	return pruned
}

// runStdioMCP runs an MCP stdio server. It reuses an external API at
// localhost:8080 when one answers; otherwise it starts an internal API on a
// random loopback port.
func runStdioMCP(ctx context.Context, settings *Settings) error {
	baseURL := externalURL
	log.Info().Str("url", externalURL).Msg("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/health")
	if err == nil {
		resp.Body.Close()
	}
	if err != nil || resp.StatusCode >= 500 {
		stopInternal, url, err := startInternalServer(ctx, settings)
		if err != nil {
			return err
		}
		defer stopInternal()
		baseURL = url
	} else {
		log.Info().Msg("external API server found, using it for MCP")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Info().Str("api", baseURL).Msg("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

func startInternalServer(ctx context.Context, settings *Settings) (func(), string, error) {
	svc, err := initializeServices(settings)
	if err != nil {
		return nil, "", err
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		svc.Close()
		return nil, "", fmt.Errorf("failed to get available port: %w", err)
	}
	internalAddr := listener.Addr().String()
	log.Info().Str("addr", internalAddr).Msg("starting internal HTTP server for MCP stdio")

	hubCtx, cancel := context.WithCancel(ctx)
	go svc.hub.Run(hubCtx)

	httpServer := &http.Server{Handler: api.NewServer(svc.game, svc.hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("internal HTTP server error")
		}
	}()

	stop := func() {
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("internal HTTP server shutdown error")
		}
		if err := svc.sessions.SaveAllSessions(); err != nil {
			log.Warn().Err(err).Msg("failed to save sessions")
		}
		svc.Close()
	}
	return stop, "http://" + internalAddr, nil
}
