package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/djdv/go-managed"
	"github.com/djdv/go-managed/metrics"
	"github.com/spf13/cobra"
)

type serveOptions struct {
	workloadOptions
	addr string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	var options serveOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Prometheus metrics for the workload",
		Long: `Runs the check workload, keeps its caches alive, and exposes
object and cache statistics at /metrics until interrupted.

Examples:
  managedctl serve --addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, err := root.configure(cmd)
			if err != nil {
				return err
			}
			signals, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			listener, err := net.Listen("tcp", options.addr)
			if err != nil {
				return err
			}
			return serve(signals, cmd, ctx, listener, options.workloadOptions)
		},
	}
	addWorkloadFlags(cmd, &options.workloadOptions)
	cmd.Flags().StringVar(&options.addr, "addr", ":9090", "listen address")
	return cmd
}

// serve runs the workload and serves its metrics on listener
// until lifetime is done.
func serve(
	lifetime context.Context, cmd *cobra.Command,
	ctx *managed.Context, listener net.Listener, options workloadOptions,
) error {
	w, err := newWorkload(ctx, options)
	if err != nil {
		listener.Close()
		return err
	}
	defer func() {
		w.Close()
		w.DestroyStrays()
		ctx.Shutdown()
	}()
	collector := metrics.NewCollector(ctx)
	w.Track(collector)
	w.Energy()
	collector.Update()

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(collector)))
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errs := make(chan error, 1)
	go func() { errs <- server.Serve(listener) }()
	fmt.Fprintf(cmd.OutOrStdout(), "serving metrics on http://%s/metrics\n", listener.Addr())
	ctx.Log(managed.Progress, "serving metrics", "addr", listener.Addr().String())

	select {
	case err := <-errs:
		return err
	case <-lifetime.Done():
	}
	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdown); err != nil {
		return err
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
