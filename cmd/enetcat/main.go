// Package main provides enetcat, a chat relay and line client built on the
// enet transports.
//
// A server relays chat messages between clients. A client sends each line
// read from standard input and prints the messages it receives:
//
//	enetcat -mode tcp-server -addr :9000
//	enetcat -mode tcp-client -addr 127.0.0.1:9000 -key secret -compress zstd
//
// Every message is encoded with the packet codec, compressed, then sealed
// with a key derived from -key. Peers must agree on -key, -cipher and
// -compress.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/opd-ai/enet/config"
	"github.com/opd-ai/enet/logging"
	"github.com/opd-ai/enet/transport"
)

const (
	modeTCPServer = "tcp-server"
	modeTCPClient = "tcp-client"
	modeUDPServer = "udp-server"
	modeUDPClient = "udp-client"
)

var errInterrupted = errors.New("interrupted")

// CLI configuration
type CLIConfig struct {
	mode        string
	addr        string
	configPath  string
	verbosity   int
	key         string
	cipher      string
	compression string
	metricsAddr string
}

// parseCLIFlags parses command-line flags and returns the configuration.
func parseCLIFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cli := &CLIConfig{}
	fs := flag.NewFlagSet("enetcat", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&cli.mode, "mode", modeTCPClient, "Mode: tcp-server, tcp-client, udp-server or udp-client")
	fs.StringVar(&cli.addr, "addr", "", "Address to listen on or connect to (overrides config)")
	fs.StringVar(&cli.configPath, "config", "", "YAML configuration file")
	fs.IntVar(&cli.verbosity, "verbosity", -1, "Log verbosity 0-3 (overrides config)")
	fs.StringVar(&cli.key, "key", "", "Passphrase for payload encryption (overrides config)")
	fs.StringVar(&cli.cipher, "cipher", "", "Cipher suite: secretbox, chachapoly or aesgcm")
	fs.StringVar(&cli.compression, "compress", "", "Compression: none, gzip or zstd")
	fs.StringVar(&cli.metricsAddr, "metrics", "", "Serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cli.mode {
	case modeTCPServer, modeTCPClient, modeUDPServer, modeUDPClient:
	default:
		return nil, fmt.Errorf("unknown mode %q", cli.mode)
	}
	return cli, nil
}

// resolve loads the configuration file, if any, and applies flag overrides.
func (cli *CLIConfig) resolve() (*config.Config, error) {
	cfg := config.Default()
	if cli.configPath != "" {
		loaded, err := config.Load(cli.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cli.verbosity >= 0 {
		cfg.Verbosity = cli.verbosity
	}
	if cli.addr != "" {
		cfg.TCP.Address = cli.addr
		cfg.UDP.Address = cli.addr
	}
	if cli.key != "" {
		cfg.Transform.Passphrase = cli.key
	}
	if cli.cipher != "" {
		cfg.Transform.Cipher = cli.cipher
	}
	if cli.compression != "" {
		cfg.Transform.Compression = cli.compression
	}
	if cli.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Address = cli.metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newCodec(t config.TransformConfig) (codec, error) {
	alg, err := t.Algorithm()
	if err != nil {
		return codec{}, err
	}
	cipher, err := t.NewCipher()
	if err != nil {
		return codec{}, err
	}
	return codec{alg: alg, cipher: cipher}, nil
}

func main() {
	cli, err := parseCLIFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "enetcat: %v\n", err)
		os.Exit(2)
	}

	if err := run(cli, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "enetcat: %v\n", err)
		os.Exit(1)
	}
}

// run starts the signal watcher, the optional metrics server and the mode
// runner, and returns once the runner has finished.
func run(cli *CLIConfig, in io.Reader, out io.Writer) error {
	cfg, err := cli.resolve()
	if err != nil {
		return err
	}
	log := logging.New(cfg.Verbosity, os.Stderr).WithField("mode", cli.mode)

	cd, err := newCodec(cfg.Transform)
	if err != nil {
		return err
	}
	if cd.cipher != nil {
		defer cd.cipher.Close()
	}

	var metrics *transport.Metrics
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector())
		metrics = transport.NewMetrics(registry)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return watchSignals(ctx, log)
	})

	if registry != nil {
		srv := &http.Server{
			Addr:              cfg.Metrics.Address,
			Handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.WithField("addr", srv.Addr).Info("Serving metrics")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		defer cancel()
		return runMode(ctx, cli.mode, cfg, cd, log, metrics, in, out)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errInterrupted) {
		return err
	}
	return nil
}

func runMode(ctx context.Context, mode string, cfg *config.Config, cd codec, log *logging.Logger,
	metrics *transport.Metrics, in io.Reader, out io.Writer,
) error {
	switch mode {
	case modeTCPServer:
		srv := newTCPRelay(cfg.TCP.Address, cfg.TCPOptions(log, metrics), cd, log)
		return serve(ctx, srv.Start, srv.Close)
	case modeUDPServer:
		srv := newUDPEcho(cfg.UDP.Address, cfg.UDPOptions(log, metrics), cd, log)
		return serve(ctx, srv.Start, srv.Stop)
	case modeTCPClient:
		c := transport.NewTCPClient(cfg.TCP.Address, cfg.TCPOptions(log, metrics))
		return runClient(ctx, c, true, cd, in, out, log)
	case modeUDPClient:
		c := transport.NewUDPClient(cfg.UDP.Address, cfg.UDPOptions(log, metrics))
		return runClient(ctx, c, false, cd, in, out, log)
	}
	return fmt.Errorf("unknown mode %q", mode)
}

// watchSignals returns errInterrupted on SIGINT or SIGTERM, or nil once ctx
// is done.
func watchSignals(ctx context.Context, log *logging.Logger) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)

	select {
	case sig := <-sigs:
		log.WithField("signal", sig.String()).Info("Shutting down")
		return errInterrupted
	case <-ctx.Done():
		return nil
	}
}
