package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/option"

	"github.com/centinela-app/centinela/internal/client/alert"
	"github.com/centinela-app/centinela/internal/client/config"
	"github.com/centinela-app/centinela/internal/client/docstore"
	"github.com/centinela-app/centinela/internal/client/feed"
	"github.com/centinela-app/centinela/internal/client/location"
	"github.com/centinela-app/centinela/internal/client/models"
	"github.com/centinela-app/centinela/internal/client/profiles"
	"github.com/centinela-app/centinela/internal/client/realtime"
	"github.com/centinela-app/centinela/internal/logging"

	_ "modernc.org/sqlite"
)

// App wires the client together: gateway connection, document store, local
// cache, and the view models the REPL drives.
type App struct {
	config     *config.Config
	logger     logging.Logger
	conn       realtime.Conn
	store      docstore.Store
	cache      *location.Cache
	feed       *feed.ViewModel
	alerts     *alert.Feed
	dispatcher *alert.Dispatcher
	directory  *profiles.Directory
	repos      *Repositories
	reader     *bufio.Reader
	closers    []func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	a := &App{
		config: cfg,
		logger: logger,
		reader: bufio.NewReader(os.Stdin),
	}

	conn, err := realtime.Dial(ctx, cfg.GatewayURL, logger)
	if err != nil {
		return nil, fmt.Errorf("dial gateway: %w", err)
	}
	a.conn = conn
	a.closers = append(a.closers, conn.Close)

	a.store, err = a.initStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	repos, err := InitDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init local cache: %w", err)
	}
	a.closers = append(a.closers, repos.Close)

	a.repos = repos
	a.directory = profiles.NewDirectory(a.store, repos.Profiles, logger)
	a.cache = location.NewCache()
	probe := location.NewProbe(location.NullProvider{}, a.cache, cfg.PreciseLocationTimeout, logger)

	session := feed.Session{UID: cfg.UserID, DisplayName: cfg.UserName}
	a.feed = feed.NewViewModel(conn, a.store, session, logger)
	a.alerts = alert.NewFeed(conn, a.cache)
	a.dispatcher = alert.NewDispatcher(conn, a.store, probe, a.directory, cfg.UserID, logger)

	return a, nil
}

// initStore picks the durable store: Firestore when a project is configured,
// otherwise an in-process store so the client works against the gateway
// alone.
func (a *App) initStore(ctx context.Context) (docstore.Store, error) {
	if a.config.FirestoreProjectID == "" {
		a.logger.Warn(ctx, "no Firestore project configured, durable writes stay local")
		return docstore.NewMemory(), nil
	}
	var opts []option.ClientOption
	if a.config.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(a.config.CredentialsFile))
	}
	fs, err := docstore.NewFirestoreStore(ctx, a.config.FirestoreProjectID, opts...)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fs.Close)
	return fs, nil
}

// Run starts the live queries and hands control to the REPL until the user
// exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	a.feed.OnChange(func(posts []models.Post) { a.warmAuthors(ctx, posts) })
	if err := a.feed.Start(ctx); err != nil {
		return err
	}
	defer a.feed.Stop()

	if err := a.alerts.Start(ctx); err != nil {
		return err
	}
	defer a.alerts.Stop()

	a.Root(ctx)
	a.dispatcher.Wait()
	return nil
}

// warmAuthors caches the attribution already present in a feed snapshot so
// author handles survive offline restarts.
func (a *App) warmAuthors(ctx context.Context, posts []models.Post) {
	seen := make(map[string]struct{}, len(posts))
	var batch []models.UserProfile
	for _, p := range posts {
		if p.Anonymous() || p.AuthorDisplayName == "" {
			continue
		}
		if _, ok := seen[p.AuthorID]; ok {
			continue
		}
		seen[p.AuthorID] = struct{}{}
		batch = append(batch, models.UserProfile{UID: p.AuthorID, DisplayName: p.AuthorDisplayName})
	}
	if len(batch) == 0 {
		return
	}
	if err := a.repos.WarmProfiles(ctx, batch, time.Now()); err != nil {
		a.logger.Warn(ctx, "author warm failed", "error", err)
	}
}

// Close releases everything NewApp opened, in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn(context.Background(), "close failed", "error", err)
		}
	}
	a.closers = nil
}
