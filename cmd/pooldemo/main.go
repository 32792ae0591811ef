// Command pooldemo narrates every public operation of the dedicated
// connection pool, scan cursor registry, and script cache against in-memory
// fakes. Command encoding is out of scope for this library, so the demo
// drives the pool's own operations rather than issuing real
// WATCH/MULTI/EXEC commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"dedicatedpool/internal/logger"
	"dedicatedpool/internal/pool"
	"dedicatedpool/internal/scancursor"
	"dedicatedpool/internal/scriptcache"
	"dedicatedpool/internal/tracer"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pooldemo",
		Short: "Drive the dedicated connection pool through its full lifecycle",
		Long: `pooldemo narrates the dedicated connection pool, scan cursor registry, and
script cache against in-memory fakes: node registration, dedicated handle
acquisition, failover and topology reconciliation, and release — the same
sequence a real cluster client driving WATCH/MULTI/EXEC or a blocking read
would walk through.`,
	}

	cmd.AddCommand(newPoolCommand(), newScriptCommand(), newScanCommand())
	return cmd
}

func newPoolCommand() *cobra.Command {
	var traceFile string
	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Walk through register/acquire/get/failover/topology/release",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoolDemo(traceFile)
		},
	}
	cmd.Flags().StringVar(&traceFile, "trace-file", "", "also write compact-formatted spans to this file alongside console output")
	return cmd
}

func newScriptCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "script",
		Short: "Walk through add/get/remove on the script cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			runScriptDemo()
			return nil
		},
	}
}

func newScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Walk through insert/get/remove on the scan cursor registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			runScanDemo()
			return nil
		},
	}
}

func runPoolDemo(traceFile string) error {
	logger.Banner("Dedicated Connection Pool Demo")
	ctx := context.Background()

	cfg := pool.Config{}
	if traceFile != "" {
		factory, err := tracer.SetupDualTracing(traceFile, tracer.LevelInfo)
		if err != nil {
			return fmt.Errorf("setting up trace file: %w", err)
		}
		cfg.Tracer = factory.CreatePoolTracer()
		defer func() {
			_ = factory.Shutdown(ctx)
		}()
	}
	p := pool.New(cfg)

	logger.Section("Register nodes")
	primary := newFakeFactory("primary")
	replica := newFakeFactory("replica")
	p.RegisterNode("primary", primary)
	p.RegisterNode("replica", replica)
	logger.NodeStatus("primary", 0, 0, 0)
	logger.NodeStatus("replica", 0, 0, 0)

	logger.Section("Acquire three dedicated handles and connect each to primary")
	handles := []pool.Handle{p.AcquireDedicated(), p.AcquireDedicated(), p.AcquireDedicated()}
	for _, h := range handles {
		start := time.Now()
		conn, err := p.GetConnection(ctx, h, "primary")
		if err != nil {
			logger.LogPoolError("GetConnection", "primary", uint64(h), err)
			logger.PoolError("get_connection", "primary", err)
			return err
		}
		logger.LogPoolGet("primary", uint64(h), "ok", time.Since(start))
		logger.ConnectionEvent("primary", uint64(h), fmt.Sprintf("opened %v", conn))
	}

	logger.Section("Failover: primary -> replica")
	p.HandleFailover(ctx, "primary", "replica")
	logger.FailoverEvent("handle_failover", "ok", "primary entries marked unhealthy, free list dropped")

	for _, h := range handles {
		start := time.Now()
		conn, err := p.GetConnection(ctx, h, "replica")
		if err != nil {
			logger.LogPoolError("GetConnection", "replica", uint64(h), err)
			logger.PoolError("get_connection", "replica", err)
			return err
		}
		logger.LogPoolGet("replica", uint64(h), "ok", time.Since(start))
		logger.ConnectionEvent("replica", uint64(h), fmt.Sprintf("opened %v", conn))
	}

	logger.Section("Topology change: only replica remains active")
	p.HandleTopologyChange(ctx, []string{"replica"})
	if _, err := p.GetConnection(ctx, handles[0], "primary"); err != nil {
		logger.LogPoolError("GetConnection", "primary", uint64(handles[0]), err)
		logger.PoolError("get_connection", "primary", err)
	}

	logger.Section("Release every handle")
	for _, h := range handles {
		p.ReleaseDedicated(ctx, h)
	}

	stats := p.Stats()
	logger.Table(
		[]string{"connections_opened", "connections_reused", "failovers_handled", "topology_changes_handled"},
		[][]string{{
			fmt.Sprint(stats.ConnectionsOpened),
			fmt.Sprint(stats.ConnectionsReused),
			fmt.Sprint(stats.FailoversHandled),
			fmt.Sprint(stats.TopologyChangesHandled),
		}},
	)
	return nil
}

func runScriptDemo() {
	logger.Banner("Script Cache Demo")
	ctx := context.Background()
	cache := scriptcache.NewCache(nil, nil)

	body := []byte("return redis.call('GET', KEYS[1])")
	d1 := cache.Add(ctx, body)
	d2 := cache.Add(ctx, body)
	logger.Table([]string{"call", "digest"}, [][]string{
		{"add #1", d1},
		{"add #2 (same body)", d2},
	})

	cache.Remove(ctx, d1)
	if _, ok := cache.Get(ctx, d1); ok {
		logger.SuccessBox("Still cached", "entry survives after one of two references is released")
	}

	cache.Remove(ctx, d1)
	if _, ok := cache.Get(ctx, d1); !ok {
		logger.SuccessBox("Evicted", "entry dropped once the reference count reached zero")
	}
}

func runScanDemo() {
	logger.Banner("Scan Cursor Registry Demo")
	ctx := context.Background()
	registry := scancursor.NewRegistry(nil, nil)

	token := registry.Insert(ctx, map[string]int{"slot": 42, "offset": 0})
	logger.ConnectionEvent("scan", 0, fmt.Sprintf("issued token %s", token))

	if cursor, err := registry.Get(ctx, token); err == nil {
		logger.SuccessBox("Cursor resolved", fmt.Sprintf("%v", cursor))
	}

	registry.Remove(ctx, token)
	if _, err := registry.Get(ctx, token); err != nil {
		logger.PoolError("scan_get", token, err)
	}
}
