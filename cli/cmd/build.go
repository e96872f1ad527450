package cmd

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/sigbench/adapter"
	"github.com/pithecene-io/sigbench/adapter/redis"
	"github.com/pithecene-io/sigbench/adapter/webhook"
	"github.com/pithecene-io/sigbench/cli/config"
	"github.com/pithecene-io/sigbench/cli/reader"
	"github.com/pithecene-io/sigbench/iox"
	"github.com/pithecene-io/sigbench/lode"
	"github.com/pithecene-io/sigbench/log"
	"github.com/pithecene-io/sigbench/metrics"
	"github.com/pithecene-io/sigbench/runtime"
	"github.com/pithecene-io/sigbench/transport"
	"github.com/pithecene-io/sigbench/types"
)

// buildTransferConfig resolves the transfer parameters from flags and config.
func buildTransferConfig(c *cli.Context, cfg *config.Config) (runtime.TransferConfig, error) {
	protocol, err := types.ParseProtocol(resolveString(c, "protocol", configVal(cfg, func(c *config.Config) string { return c.Protocol })))
	if err != nil {
		return runtime.TransferConfig{}, err
	}
	scheme, err := types.ParseScheme(resolveString(c, "scheme", configVal(cfg, func(c *config.Config) string { return c.Scheme })))
	if err != nil {
		return runtime.TransferConfig{}, err
	}

	tc := runtime.DefaultTransferConfig(protocol, scheme)
	tc.PayloadSize = resolveInt(c, "payload-size", configVal(cfg, func(c *config.Config) int { return c.PayloadSize }))
	tc.ChunkSize = resolveInt(c, "chunk-size", configVal(cfg, func(c *config.Config) int { return c.ChunkSize }))
	tc.MaxSignatureSize = resolveInt(c, "max-signature-size", configVal(cfg, func(c *config.Config) int { return c.MaxSignatureSize }))
	tc.SampleInterval = resolveDuration(c, "sample-interval", configVal(cfg, func(c *config.Config) time.Duration { return c.SampleInterval.Duration }))
	tc.DrainTimeout = resolveDuration(c, "drain-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.DrainTimeout.Duration }))
	tc.CloseTimeout = resolveDuration(c, "close-timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.CloseTimeout.Duration }))

	if err := tc.Validate(); err != nil {
		return runtime.TransferConfig{}, fmt.Errorf("invalid transfer config: %w", err)
	}
	return tc, nil
}

func buildLogger(c *cli.Context, cfg *config.Config) (*log.Logger, error) {
	level, err := log.ParseLevel(resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.LogLevel })))
	if err != nil {
		return nil, err
	}
	return log.NewLogger(level), nil
}

func keysDir(c *cli.Context, cfg *config.Config) string {
	return resolveString(c, "keys-dir", configVal(cfg, func(c *config.Config) string { return c.KeysDir }))
}

func buildServerTLS(c *cli.Context, cfg *config.Config) (*tls.Config, error) {
	return transport.NewServerTLSConfig(transport.TLSConfig{
		CertFile: resolveString(c, "tls-cert", configVal(cfg, func(c *config.Config) string { return c.TLS.Cert })),
		KeyFile:  resolveString(c, "tls-key", configVal(cfg, func(c *config.Config) string { return c.TLS.Key })),
	})
}

func buildClientTLS(c *cli.Context, cfg *config.Config) *tls.Config {
	return transport.NewClientTLSConfig(transport.TLSConfig{
		ServerName:         resolveString(c, "tls-server-name", configVal(cfg, func(c *config.Config) string { return c.TLS.ServerName })),
		InsecureSkipVerify: resolveBool(c, "tls-insecure", configVal(cfg, func(c *config.Config) bool { return c.TLS.Insecure })),
	})
}

// storageChoice holds resolved Lode storage configuration.
type storageChoice struct {
	dataset   string
	backend   string // "fs" or "s3"
	path      string // fs: directory, s3: bucket/prefix
	region    string
	endpoint  string
	pathStyle bool
	writeCSV  bool
}

func resolveStorage(c *cli.Context, cfg *config.Config) storageChoice {
	sc := configVal(cfg, func(c *config.Config) config.StorageConfig { return c.Storage })
	choice := storageChoice{
		dataset:   resolveString(c, "storage-dataset", sc.Dataset),
		backend:   resolveString(c, "storage-backend", sc.Backend),
		path:      resolveString(c, "storage-path", sc.Path),
		region:    resolveString(c, "storage-region", sc.Region),
		endpoint:  resolveString(c, "storage-endpoint", sc.Endpoint),
		pathStyle: resolveBool(c, "storage-s3-path-style", sc.S3PathStyle),
	}
	if c.IsSet("storage-write-csv") {
		choice.writeCSV = c.Bool("storage-write-csv")
	} else {
		choice.writeCSV = sc.WriteCSV
	}
	return choice
}

// enabled reports whether storage is configured. Backend and path must be
// given together.
func (s storageChoice) enabled() (bool, error) {
	switch {
	case s.backend == "" && s.path == "":
		return false, nil
	case s.backend == "" || s.path == "":
		return false, errors.New("both --storage-backend and --storage-path are required for Lode storage")
	}
	switch s.backend {
	case "fs", "s3":
		return true, nil
	default:
		return false, fmt.Errorf("unknown storage-backend: %s (must be fs or s3)", s.backend)
	}
}

func (s storageChoice) lodeBackend() lode.Backend {
	return lode.Backend{
		Kind:         s.backend,
		Path:         s.path,
		Region:       s.region,
		Endpoint:     s.endpoint,
		UsePathStyle: s.pathStyle,
	}
}

// adapterChoice holds resolved adapter configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries int
	secret  string
	history string
	histLen int64
}

// parseAdapterConfig resolves the adapter. It returns nil when no adapter
// is configured.
func parseAdapterConfig(c *cli.Context, cfg *config.Config) (*adapterChoice, error) {
	ac := configVal(cfg, func(c *config.Config) config.AdapterConfig { return c.Adapter })

	kind := resolveString(c, "adapter", ac.Type)
	if kind == "" {
		return nil, nil
	}

	choice := &adapterChoice{
		kind:    kind,
		url:     resolveString(c, "adapter-url", ac.URL),
		channel: resolveString(c, "adapter-channel", ac.Channel),
		timeout: resolveDuration(c, "adapter-timeout", ac.Timeout.Duration),
		headers: make(map[string]string, len(ac.Headers)),
		secret:  resolveString(c, "adapter-secret", ac.Secret),
		history: resolveString(c, "adapter-history-key", ac.HistoryKey),
		histLen: c.Int64("adapter-history-len"),
	}
	if !c.IsSet("adapter-history-len") && ac.HistoryLen > 0 {
		choice.histLen = ac.HistoryLen
	}
	for k, v := range ac.Headers {
		choice.headers[k] = v
	}
	for _, h := range c.StringSlice("adapter-header") {
		k, v, ok := strings.Cut(h, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --adapter-header %q (expected key=value)", h)
		}
		choice.headers[k] = v
	}

	switch {
	case c.IsSet("adapter-retries"):
		choice.retries = c.Int("adapter-retries")
	case ac.Retries != nil:
		choice.retries = *ac.Retries
	case kind == "redis":
		choice.retries = redis.DefaultRetries
	default:
		choice.retries = webhook.DefaultRetries
	}

	switch kind {
	case "webhook", "redis":
	default:
		return nil, fmt.Errorf("unknown adapter: %s (must be webhook or redis)", kind)
	}
	if choice.url == "" {
		return nil, fmt.Errorf("--adapter-url is required for the %s adapter", kind)
	}
	if choice.retries < 0 {
		return nil, fmt.Errorf("--adapter-retries must be >= 0, got %d", choice.retries)
	}
	return choice, nil
}

func buildAdapter(choice *adapterChoice) (adapter.Adapter, error) {
	switch choice.kind {
	case "redis":
		return redis.New(redis.Config{
			URL:        choice.url,
			Channel:    choice.channel,
			Timeout:    choice.timeout,
			Retries:    choice.retries,
			HistoryKey: choice.history,
			HistoryLen: choice.histLen,
		})
	default:
		return webhook.New(webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: choice.retries,
			Secret:  choice.secret,
		})
	}
}

// sinkSet is the record sinks of a command plus what it must close.
type sinkSet struct {
	sinks          []runtime.NamedSink
	storageBackend string
	closers        []io.Closer
}

// Close closes every sink resource.
func (s *sinkSet) Close() error {
	return iox.CloseAll(s.closers...)
}

// buildSinks assembles the record sinks selected by flags and config:
// a msgpack record file, Lode storage and a notification adapter.
func buildSinks(ctx context.Context, c *cli.Context, cfg *config.Config) (*sinkSet, error) {
	set := &sinkSet{}

	if path := resolveString(c, "record-out", configVal(cfg, func(c *config.Config) string { return c.RecordOut })); path != "" {
		set.sinks = append(set.sinks, runtime.NamedSink{Name: "file", Sink: runtime.NewFileSink(path)})
	}

	storage := resolveStorage(c, cfg)
	enabled, err := storage.enabled()
	if err != nil {
		return nil, err
	}
	if enabled {
		client, err := lode.Open(ctx, lode.Config{Dataset: storage.dataset, WriteCSV: storage.writeCSV}, storage.lodeBackend())
		if err != nil {
			return nil, fmt.Errorf("failed to create Lode client: %w", err)
		}
		set.storageBackend = storage.backend
		set.closers = append(set.closers, client)
		set.sinks = append(set.sinks, runtime.NamedSink{Name: "lode", Sink: client})
	}

	choice, err := parseAdapterConfig(c, cfg)
	if err != nil {
		_ = set.Close()
		return nil, err
	}
	if choice != nil {
		a, err := buildAdapter(choice)
		if err != nil {
			_ = set.Close()
			return nil, fmt.Errorf("failed to create %s adapter: %w", choice.kind, err)
		}
		pub := adapter.NewPublisher(a)
		set.closers = append(set.closers, pub)
		set.sinks = append(set.sinks, runtime.NamedSink{Name: choice.kind, Sink: pub, Publish: true})
	}

	return set, nil
}

// Sink returns a dispatcher over the configured sinks, or nil when there
// are none.
func (s *sinkSet) Sink(logger *log.Logger, collector *metrics.Collector) runtime.RecordSink {
	if len(s.sinks) == 0 {
		return nil
	}
	return runtime.NewDispatcher(logger, collector, s.sinks...)
}

// buildReadSource selects --file or Lode storage for read-only commands.
func buildReadSource(ctx context.Context, c *cli.Context) (reader.Source, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	if path := c.String("file"); path != "" {
		return reader.FileSource{Path: path}, nil
	}

	storage := resolveStorage(c, cfg)
	enabled, err := storage.enabled()
	if err != nil {
		return nil, err
	}
	if !enabled {
		return nil, errors.New("a record source is required: --file or --storage-backend with --storage-path")
	}
	ds, err := lode.OpenRead(ctx, storage.dataset, storage.lodeBackend())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage reader: %w", err)
	}
	return reader.LodeSource{Dataset: ds}, nil
}

// serveMetrics exposes collector at http://addr/metrics until stop is called.
func serveMetrics(addr string, collector *metrics.Collector, logger *log.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen for metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(collector))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics server stopped", map[string]any{"error": err.Error()})
		}
	}()
	logger.Info("serving metrics", map[string]any{"addr": ln.Addr().String()})

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}, nil
}
