package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/aura"
	"github.com/MrEthical07/aura/middleware"
	"github.com/MrEthical07/aura/storage/redisstore"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase")
		restores    = flag.Int("restores", 2000, "engines to boot in the restore phase")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "aura-load", "redis key prefix")
		codec       = flag.String("codec", "json", "record codec: json or jwt")
	)
	flag.Parse()

	if *concurrency <= 0 || *ops <= 0 || *restores <= 0 {
		fmt.Fprintln(os.Stderr, "concurrency, ops, and restores must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	kv := redisstore.NewStore(client, *prefix)
	cfg := aura.DefaultConfig()
	cfg.Session.LoginDelay = 0
	cfg.Metrics.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = false
	if *codec == "jwt" {
		cfg.Record.Codec = "jwt"
		cfg.Record.PrivateKey = []byte(strings.Repeat("l", 32))
	}

	newEngine := func() *aura.Engine {
		e, err := aura.New().WithConfig(cfg).WithStorage(kv).Build()
		if err != nil {
			fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
			os.Exit(1)
		}
		return e
	}

	engine := newEngine()
	defer engine.Close()
	engine.Initialize(ctx)
	if res := engine.Login(ctx, "load@aura.edu", "x"); !res.Success {
		fmt.Fprintf(os.Stderr, "seed login failed: %v\n", res.Err)
		os.Exit(1)
	}

	readStats := runPhase(*ops, *concurrency, func(int) error {
		if middleware.Decide(engine.State()) != middleware.DecisionProtected {
			return fmt.Errorf("unexpected decision")
		}
		return nil
	})

	cycleStats := runPhase(*ops, *concurrency, func(i int) error {
		if i%2 == 0 {
			if res := engine.Login(ctx, fmt.Sprintf("op%d@aura.edu", i), "x"); !res.Success {
				return res.Err
			}
			return nil
		}
		return engine.Logout(ctx).Err
	})

	// Leave a record in the slot for the restore phase.
	if res := engine.Login(ctx, "load@aura.edu", "x"); !res.Success {
		fmt.Fprintf(os.Stderr, "reseed login failed: %v\n", res.Err)
		os.Exit(1)
	}

	restoreStats := runPhase(*restores, *concurrency, func(int) error {
		e := newEngine()
		defer e.Close()
		res := e.Initialize(ctx)
		if res.Outcome != aura.RestoreRestored {
			return fmt.Errorf("restore outcome %s: %v", res.Outcome, res.Err)
		}
		return nil
	})

	fmt.Println("---- results ----")
	printStats("state+guard", readStats)
	printStats("login/logout", cycleStats)
	printStats("restore", restoreStats)
}

func runPhase(ops, concurrency int, op func(i int) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
