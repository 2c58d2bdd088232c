// Command goauth-monitor keeps an access token alive against a token-check and a
// token-renewal endpoint.
//
// Run:
//
//	goauth-monitor \
//	  --check-url=https://app.example.com/auth/token-check \
//	  --renew-url=https://app.example.com/auth/token-renew \
//	  --store=file --file=$HOME/.goauth-token.json \
//	  --metrics-addr=:9090
//
// Decode the expiry of a token without contacting any endpoint:
//
//	goauth-monitor decode "Bearer eyJ..."
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

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"

	monitor "github.com/MrEthical07/goAuthMonitor"
	"github.com/MrEthical07/goAuthMonitor/jwt"
	"github.com/MrEthical07/goAuthMonitor/metrics/export/prometheus"
	"github.com/MrEthical07/goAuthMonitor/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		klog.ErrorS(err, "goauth-monitor failed")
		klog.Flush()
		os.Exit(1)
	}
	klog.Flush()
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := newOptions()
	rootCmd := &cobra.Command{
		Use:          "goauth-monitor",
		Short:        "keep a cached access token alive",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), o, out)
		},
	}
	rootCmd.SetOut(out)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	rootCmd.PersistentFlags().AddGoFlagSet(klogFlags)

	o.addFlags(rootCmd.Flags())
	rootCmd.AddCommand(newDecodeCmd(out))
	return rootCmd
}

func newDecodeCmd(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "decode TOKEN",
		Short: "print the expiry claim of a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			exp, err := jwt.DecodeExpiry(jwt.WithScheme(args[0]))
			if err != nil {
				return err
			}
			st := monitor.Status{HasExpiry: true, Expiry: exp, TimeToExpire: time.Until(time.Unix(exp, 0))}
			if st.TimeToExpire <= 0 {
				_, err = fmt.Fprintf(out, "exp=%d expired %s ago\n", exp, st.HumanTimeToExpire())
				return err
			}
			_, err = fmt.Fprintf(out, "exp=%d expires in %s\n", exp, st.HumanTimeToExpire())
			return err
		},
	}
}

func run(ctx context.Context, o *options, out io.Writer) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}

	store, closeStore, err := o.openStore()
	if err != nil {
		return err
	}
	defer closeStore()

	logger := klog.NewKlogr()
	for _, w := range cfg.Lint() {
		logger.Info("configuration warning", "code", w.Code, "message", w.Message)
	}

	b := monitor.New().
		WithConfig(cfg).
		WithStore(store).
		WithLogger(logger).
		WithMetricsEnabled(o.metricsAddr != "").
		WithLatencyHistograms(o.metricsAddr != "")
	if o.events {
		b = b.WithEventSink(monitor.NewJSONWriterSink(out))
	}
	m, err := b.Build()
	if err != nil {
		return fmt.Errorf("build monitor: %w", err)
	}
	defer m.Close()

	if o.token != "" {
		if err := seedToken(ctx, store, cfg.Keys, o.token); err != nil {
			return err
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res := m.Initialize(ctx)
		logger.Info("initial check", "action", res.Action.String(), "kind", string(res.Kind()))
		<-ctx.Done()
		return nil
	})

	if o.metricsAddr != "" {
		srv := &http.Server{
			Addr:              o.metricsAddr,
			Handler:           newMetricsRouter(m),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			klog.InfoS("serving metrics", "addr", o.metricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

// seedToken replaces the cached token and clears its expiry so the monitor derives it.
func seedToken(ctx context.Context, store storage.Store, keys monitor.KeyConfig, token string) error {
	err := store.Update(ctx, []storage.Entry{{Key: keys.AccessToken, Value: token}}, []string{keys.Expiry})
	if err != nil {
		return fmt.Errorf("seed token: %w", err)
	}
	return nil
}

func newMetricsRouter(m *monitor.Monitor) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", prometheus.NewPrometheusExporter(m).Handler()).Methods(http.MethodGet)
	r.HandleFunc("/status", func(w http.ResponseWriter, req *http.Request) {
		st, err := m.Status(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !st.HasExpiry {
			fmt.Fprintf(w, "state=%s expiry=unknown\n", st.State)
			return
		}
		fmt.Fprintf(w, "state=%s expiry=%d remaining=%s\n", st.State, st.Expiry, st.HumanTimeToExpire())
	}).Methods(http.MethodGet)
	return r
}
