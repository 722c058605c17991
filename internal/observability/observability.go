package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/contrib/processors/minsev"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ScopeName identifies log records emitted through the OpenTelemetry bridge.
const ScopeName = "github.com/florianilch/tokencatch"

// Format selects the local log encoding.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Exporter selects where log records are exported.
type Exporter string

const (
	ExporterNone     Exporter = "none"
	ExporterStdout   Exporter = "stdout"
	ExporterOTLPGRPC Exporter = "otlp-grpc"
	ExporterOTLPHTTP Exporter = "otlp-http"
)

// FileOptions enables a rotating log file instead of stderr.
type FileOptions struct {
	Path       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// Options configures Instrument.
type Options struct {
	Level    slog.Level
	Format   Format
	File     FileOptions
	Exporter Exporter
	// Endpoint overrides the OTLP endpoint (host:port); empty uses the
	// OTEL_EXPORTER_OTLP_* environment variables.
	Endpoint string
	Insecure bool
}

// ShutdownFunc flushes and releases logging resources.
type ShutdownFunc func(context.Context) error

// Instrument builds the logger described by opts and installs it as the slog default.
// The returned function flushes pending records and closes the log file.
func Instrument(ctx context.Context, opts Options) (ShutdownFunc, error) {
	var closers []func(context.Context) error
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	out, closeOut, err := openOutput(opts.File)
	if err != nil {
		return nil, err
	}
	closers = append(closers, closeOut)

	var handler slog.Handler
	switch opts.Exporter {
	case "", ExporterNone:
		handler, err = localHandler(out, opts)
	default:
		var provider *sdklog.LoggerProvider
		provider, err = loggerProvider(ctx, out, opts)
		if err == nil {
			closers = append(closers, provider.Shutdown)
			global.SetLoggerProvider(provider)
			handler = otelslog.NewHandler(ScopeName, otelslog.WithLoggerProvider(provider))
		}
	}
	if err != nil {
		_ = shutdown(ctx)
		return nil, err
	}

	// The SDK reports export failures here; log them locally, never through itself.
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		_, _ = fmt.Fprintf(out, "opentelemetry: %v\n", err)
	}))

	slog.SetDefault(slog.New(handler))
	return shutdown, nil
}

func openOutput(opts FileOptions) (io.Writer, func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if opts.Path == "" {
		return os.Stderr, noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.Path), 0700); err != nil {
		return nil, nil, fmt.Errorf("creating log directory: %w", err)
	}

	lj := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return lj, func(context.Context) error { return lj.Close() }, nil
}

func localHandler(out io.Writer, opts Options) (slog.Handler, error) {
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}
	switch opts.Format {
	case "", FormatText:
		return slog.NewTextHandler(out, handlerOpts), nil
	case FormatJSON:
		return slog.NewJSONHandler(out, handlerOpts), nil
	default:
		return nil, fmt.Errorf("unsupported log format: %s", opts.Format)
	}
}

func loggerProvider(ctx context.Context, out io.Writer, opts Options) (*sdklog.LoggerProvider, error) {
	exporter, err := newExporter(ctx, out, opts)
	if err != nil {
		return nil, fmt.Errorf("creating %s log exporter: %w", opts.Exporter, err)
	}

	var processor sdklog.Processor
	if opts.Exporter == ExporterStdout {
		processor = sdklog.NewSimpleProcessor(exporter)
	} else {
		processor = sdklog.NewBatchProcessor(exporter)
	}

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(minsev.NewLogProcessor(processor, severity(opts.Level))),
	), nil
}

func newExporter(ctx context.Context, out io.Writer, opts Options) (sdklog.Exporter, error) {
	switch opts.Exporter {
	case ExporterStdout:
		return stdoutlog.New(stdoutlog.WithWriter(out))
	case ExporterOTLPGRPC:
		var grpcOpts []otlploggrpc.Option
		if opts.Endpoint != "" {
			grpcOpts = append(grpcOpts, otlploggrpc.WithEndpoint(opts.Endpoint))
		}
		if opts.Insecure {
			grpcOpts = append(grpcOpts, otlploggrpc.WithInsecure())
		}
		return otlploggrpc.New(ctx, grpcOpts...)
	case ExporterOTLPHTTP:
		var httpOpts []otlploghttp.Option
		if opts.Endpoint != "" {
			httpOpts = append(httpOpts, otlploghttp.WithEndpoint(opts.Endpoint))
		}
		if opts.Insecure {
			httpOpts = append(httpOpts, otlploghttp.WithInsecure())
		}
		return otlploghttp.New(ctx, httpOpts...)
	default:
		return nil, fmt.Errorf("unsupported log exporter: %s", opts.Exporter)
	}
}

// severity maps a slog level to the closest OpenTelemetry minimum severity.
func severity(level slog.Level) minsev.Severity {
	switch {
	case level < slog.LevelInfo:
		return minsev.SeverityDebug
	case level < slog.LevelWarn:
		return minsev.SeverityInfo
	case level < slog.LevelError:
		return minsev.SeverityWarn
	default:
		return minsev.SeverityError
	}
}
