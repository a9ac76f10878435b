package main

import (
	"context"
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hemant/cronqueue"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type BenchmarkResult struct {
	Name     string
	Entries  int
	Workers  int
	Duration time.Duration
	Rate     float64
	RateK    float64
	Success  int64
	Failed   int64
}

var allResults []BenchmarkResult

// quietLogger drops every record so that logging does not skew the timings.
type quietLogger struct{}

func (quietLogger) Debug(string, map[string]interface{})     {}
func (quietLogger) Info(string, map[string]interface{})      {}
func (quietLogger) Notice(string, map[string]interface{})    {}
func (quietLogger) Warning(string, map[string]interface{})   {}
func (quietLogger) Error(string, map[string]interface{})     {}
func (quietLogger) Critical(string, map[string]interface{})  {}
func (quietLogger) Alert(string, map[string]interface{})     {}
func (quietLogger) Emergency(string, map[string]interface{}) {}

var nopHandler = cronqueue.HandlerFunc(func(context.Context, *cronqueue.Entry) error { return nil })

type bench struct {
	client redis.UniversalClient
	runID  string
	queues []*cronqueue.RedisQueue
}

func (b *bench) queue(name string) *cronqueue.RedisQueue {
	q, err := cronqueue.NewRedisQueue(b.client, b.runID+":"+name,
		cronqueue.WithLogger(quietLogger{}, cronqueue.ErrorLevel),
		cronqueue.WithHandler("nop", nopHandler),
	)
	if err != nil {
		log.Fatalf("could not create queue: %v", err)
	}
	b.queues = append(b.queues, q)
	return q
}

func (b *bench) cleanup() {
	ctx := context.Background()
	for _, q := range b.queues {
		if err := q.Delete(ctx); err != nil {
			log.Printf("could not delete queue %s: %v", q.Name(), err)
		}
	}
}

func report(name string, entries, workers int, duration time.Duration, success, failed int64) BenchmarkResult {
	rate := float64(success) / duration.Seconds()
	log.Printf("Results:")
	log.Printf("  Duration: %v", duration)
	log.Printf("  Success: %d, Failed: %d", success, failed)
	log.Printf("  Rate: %.2f entries/sec (%.2f K/sec)", rate, rate/1000)
	r := BenchmarkResult{
		Name:     name,
		Entries:  entries,
		Workers:  workers,
		Duration: duration,
		Rate:     rate,
		RateK:    rate / 1000,
		Success:  success,
		Failed:   failed,
	}
	allResults = append(allResults, r)
	return r
}

// BenchmarkEnqueue tests append throughput of concurrent producers on one queue.
func (b *bench) BenchmarkEnqueue(numEntries, concurrency int) BenchmarkResult {
	log.Printf("\n=== ENQUEUE BENCHMARK ===")
	log.Printf("Entries: %d, Concurrency: %d goroutines", numEntries, concurrency)

	ctx := context.Background()
	q := b.queue(fmt.Sprintf("enqueue-%d", concurrency))
	if err := q.Save(ctx); err != nil {
		log.Fatalf("could not save queue: %v", err)
	}

	var (
		wg               sync.WaitGroup
		success, failed  int64
		entriesPerWorker = numEntries / concurrency
	)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < entriesPerWorker; i++ {
				if q.Enqueue(ctx, cronqueue.NewEntry([]byte(`{"data":"benchmark payload data for testing throughput"}`))) {
					atomic.AddInt64(&success, 1)
				} else {
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}
	wg.Wait()
	return report(fmt.Sprintf("Enqueue (concurrency=%d)", concurrency), numEntries, concurrency, time.Since(start), success, failed)
}

// BenchmarkSave tests bulk saving of a prepared entry list.
func (b *bench) BenchmarkSave(numEntries int) BenchmarkResult {
	log.Printf("\n=== SAVE BENCHMARK ===")
	log.Printf("Entries: %d", numEntries)

	items := make([]interface{}, numEntries)
	for i := range items {
		items[i] = map[string]int{"n": i}
	}
	q := b.queue(fmt.Sprintf("save-%d", numEntries))
	if err := q.SetEntries(items); err != nil {
		log.Fatalf("could not wrap entries: %v", err)
	}

	start := time.Now()
	var success, failed int64 = int64(numEntries), 0
	if err := q.Save(context.Background()); err != nil {
		log.Printf("save failed: %v", err)
		success, failed = 0, int64(numEntries)
	}
	return report(fmt.Sprintf("Save (entries=%d)", numEntries), numEntries, 1, time.Since(start), success, failed)
}

// BenchmarkDequeue tests handling throughput with competing consumers.
// Only one consumer holds the lock at a time; the others back off.
func (b *bench) BenchmarkDequeue(numEntries, consumers int, timeout time.Duration) BenchmarkResult {
	log.Printf("\n=== DEQUEUE BENCHMARK ===")
	log.Printf("Entries: %d, Consumers: %d", numEntries, consumers)

	ctx := context.Background()
	q := b.queue(fmt.Sprintf("dequeue-%d", consumers))
	items := make([]interface{}, numEntries)
	for i := range items {
		items[i] = i
	}
	if err := q.SetEntries(items); err != nil {
		log.Fatalf("could not wrap entries: %v", err)
	}
	if err := q.Save(ctx); err != nil {
		log.Fatalf("could not save queue: %v", err)
	}

	var (
		wg              sync.WaitGroup
		success, failed int64
		contended       int64
	)
	deadline := time.Now().Add(timeout)
	start := time.Now()
	for c := 0; c < consumers; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(deadline) && !q.IsEmpty(ctx) {
				e, err := q.Dequeue(ctx)
				switch {
				case err != nil:
					atomic.AddInt64(&failed, 1)
				case e == nil:
					atomic.AddInt64(&contended, 1)
					// The released lock lives for another millisecond.
					time.Sleep(time.Millisecond)
				default:
					atomic.AddInt64(&success, 1)
				}
			}
		}()
	}
	wg.Wait()
	duration := time.Since(start)
	log.Printf("  Contended attempts: %d", contended)
	return report(fmt.Sprintf("Dequeue (consumers=%d)", consumers), numEntries, consumers, duration, success, failed)
}

func printSummaryTable() {
	fmt.Println("\n+-----------------------------------------------+-----------+-----------+--------------+")
	fmt.Println("| Test                                          |  Entries  |  Workers  |  Rate (K/s)  |")
	fmt.Println("+-----------------------------------------------+-----------+-----------+--------------+")
	for _, r := range allResults {
		fmt.Printf("| %-45s | %9d | %9d | %10.2f K |\n", r.Name, r.Entries, r.Workers, r.RateK)
	}
	fmt.Println("+-----------------------------------------------+-----------+-----------+--------------+")
}

func main() {
	redisAddr := pflag.String("redis", "localhost:6379", "Redis server address")
	entries := pflag.Int("entries", 10000, "number of entries per benchmark")
	timeout := pflag.Duration("timeout", time.Minute, "maximum duration of a dequeue benchmark")
	pflag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis at %s: %v", *redisAddr, err)
	}

	b := &bench{client: client, runID: "bench-" + uuid.NewString()[:8]}
	defer b.cleanup()

	fmt.Println("CRONQUEUE BENCHMARK SUITE")
	log.Printf("Run: %s", b.runID)
	log.Printf("CPU Cores: %d | GOMAXPROCS: %d", runtime.NumCPU(), runtime.GOMAXPROCS(0))
	log.Printf("Started at: %s", time.Now().Format("2006-01-02 15:04:05"))

	for _, c := range []int{1, 10, 50} {
		b.BenchmarkEnqueue(*entries, c)
	}
	for _, n := range []int{*entries / 10, *entries} {
		b.BenchmarkSave(n)
	}
	for _, c := range []int{1, 4} {
		b.BenchmarkDequeue(*entries/10, c, *timeout)
	}

	printSummaryTable()
	log.Printf("\nCompleted at: %s", time.Now().Format("2006-01-02 15:04:05"))
}
