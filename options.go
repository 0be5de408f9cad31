package vstore

import (
	"log/slog"

	"github.com/hupe1980/vstore/archive"
	"github.com/hupe1980/vstore/blobstore"
	"github.com/hupe1980/vstore/codec"
	"github.com/hupe1980/vstore/internal/fs"
)

type options struct {
	logger            *Logger
	metricsCollector  MetricsCollector
	extension         string
	ioLimit           int64
	verifyConcurrency int
	blobStore         blobstore.BlobStore
	indexCodec        codec.Codec
	compression       archive.Compression
	fileSystem        fs.FileSystem
}

// Option configures Open.
type Option func(*options)

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := vstore.NewJSONLogger(slog.LevelInfo)
//	s, _ := vstore.Open(indexPath, artifactsDir, vstore.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vstore.BasicMetricsCollector{}
//	s, _ := vstore.Open(indexPath, artifactsDir, vstore.WithMetricsCollector(metrics))
//	// ... publish ...
//	stats := metrics.GetStats()
//	fmt.Printf("Published: %d (%d bytes)\n", stats.PublishCount, stats.PublishBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithExtension sets the blob file extension (default "tgz").
// Ignored when WithBlobStore is used.
func WithExtension(ext string) Option {
	return func(o *options) {
		o.extension = ext
	}
}

// WithIOLimit caps blob copy throughput in bytes per second. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithVerifyConcurrency sets how many blobs VerifyAll hashes at once.
func WithVerifyConcurrency(n int) Option {
	return func(o *options) {
		o.verifyConcurrency = n
	}
}

// WithBlobStore replaces the local artifacts directory with a custom blob store.
// The artifactsDir argument of Open is then ignored.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithIndexCodec overrides the index file encoding, which otherwise follows
// the file extension (".json" for JSON, YAML for anything else).
func WithIndexCodec(c codec.Codec) Option {
	return func(o *options) {
		o.indexCodec = c
	}
}

// WithCompression sets the archive compression used by PublishDir (default gzip).
func WithCompression(c archive.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// withFileSystem routes index and blob I/O through fsys. Used for fault injection.
func withFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fileSystem = fsys
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:            NoopLogger(),
		metricsCollector:  NoopMetricsCollector{},
		extension:         blobstore.DefaultExtension,
		verifyConcurrency: 4,
		compression:       archive.Gzip,
		fileSystem:        fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.fileSystem == nil {
		o.fileSystem = fs.Default
	}
	if o.verifyConcurrency <= 0 {
		o.verifyConcurrency = 1
	}
	return o
}
