package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/AeroNyxNetwork/nodeboard/internal/cliconfig"
	"github.com/AeroNyxNetwork/nodeboard/internal/credentials"
	"github.com/AeroNyxNetwork/nodeboard/pkg/auth"
	"github.com/AeroNyxNetwork/nodeboard/pkg/cache"
	"github.com/AeroNyxNetwork/nodeboard/pkg/clients"
	aeronyx "github.com/AeroNyxNetwork/nodeboard/pkg/clients/aeronyx"
	"github.com/AeroNyxNetwork/nodeboard/pkg/datafetcher"
	"github.com/AeroNyxNetwork/nodeboard/pkg/logging"
	"github.com/AeroNyxNetwork/nodeboard/pkg/wallet"
)

// app is the per-invocation wiring: context config, auth manager, API
// client and cached fetcher, bound to each other the same way in every
// command.
type app struct {
	cfgCtx   cliconfig.Context
	logger   logging.Logger
	registry *wallet.Registry
	auth     *auth.Manager
	client   *aeronyx.Client
	fetcher  *datafetcher.Fetcher
}

type appOptions struct {
	// logger replaces the default CLI logger. Watch mode injects a
	// component-tagged service logger.
	logger logging.Logger
	// cacheHooks feeds cache traffic into Prometheus (watch mode).
	cacheHooks cache.MetricsHooks
	// circuitBreaker guards long-running pollers against a flapping
	// backend. Interactive commands leave it off.
	circuitBreaker bool
}

func newApp() (*app, error) {
	return newAppWith(appOptions{})
}

// newAuthedApp is newApp plus the requirement that stored credentials
// exist. Commands that read or mutate operator data use it.
func newAuthedApp() (*app, error) {
	return newAuthedAppWith(appOptions{})
}

func newAuthedAppWith(opts appOptions) (*app, error) {
	a, err := newAppWith(opts)
	if err != nil {
		return nil, err
	}
	if a.auth.State() != auth.StateAuthenticated {
		return nil, fmt.Errorf("not logged in; run 'nodeboard login' first")
	}
	return a, nil
}

func newAppWith(opts appOptions) (*app, error) {
	cfg, _, err := cliconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	ctxCfg, err := cliconfig.GetCurrent(cfg, contextName)
	if err != nil {
		return nil, err
	}

	// Resolution order: flag > NODEBOARD_API_URL > context file.
	if v := viper.GetString("api_url"); v != "" {
		ctxCfg.APIURL = v
	}
	if apiURL != "" {
		ctxCfg.APIURL = apiURL
	}

	// Context cache tuning maps onto the env keys the cache constructors
	// read. Explicit env always wins.
	for k, v := range ctxCfg.EnvOverrides() {
		if _, set := os.LookupEnv(k); !set {
			_ = os.Setenv(k, v)
		}
	}

	logger := opts.logger
	if logger == nil {
		logger = logging.NewCLILogger()
	}
	if verbose {
		logger.SetLevel(logging.DebugLevel)
	}

	credPath, err := credentials.DefaultPath()
	if err != nil {
		return nil, err
	}
	store := credentials.NewStore(credPath)

	walletDir := ctxCfg.WalletDir
	if walletDir == "" {
		walletDir, err = defaultWalletDir()
		if err != nil {
			return nil, err
		}
	}

	a := &app{cfgCtx: ctxCfg, logger: logger}
	a.registry = wallet.NewRegistry(walletDir, logger)
	a.auth = auth.NewManager(auth.ManagerConfig{
		Registry: a.registry,
		Store:    store,
		Logger:   logger,
	})

	clientCfg := aeronyx.Config{
		BaseURL:          ctxCfg.APIURL,
		Credentials:      a.auth,
		Logger:           logger,
		OnSessionExpired: a.onSessionExpired,
	}
	if opts.circuitBreaker {
		cb := clients.DefaultCircuitBreakerConfig()
		clientCfg.CircuitBreakerConfig = &cb
	}
	a.client = aeronyx.NewClient(clientCfg)
	a.auth.SetClient(a.client)

	a.fetcher = datafetcher.New(datafetcher.Config{
		API:    a.client,
		Logger: logger,
		Caches: datafetcher.DefaultCaches(opts.cacheHooks),
	})

	a.auth.Initialize()
	return a, nil
}

// onSessionExpired is the 401 signal path: drop credentials, then drop
// every cached read so stale authorized data does not outlive them.
func (a *app) onSessionExpired() {
	a.auth.SessionExpired()
	if a.fetcher != nil {
		a.fetcher.FlushAll()
	}
}

func defaultWalletDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nodeboard", "wallets"), nil
}
