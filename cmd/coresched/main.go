package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"coresched"
)

func main() {
	// Read the configuration
	cfg := coresched.Load("config.yml")
	fmt.Printf("Loaded config: %+v\n", cfg)

	k := coresched.New(cfg)
	if err := k.Start(context.Background()); err != nil {
		panic(err)
	}

	// consume scheduler events; periodic ticks are skipped for brevity
	go func() {
		for ev := range k.Events() {
			if ev.Kind == coresched.EventTick {
				continue
			}
			fmt.Printf("%s [%-8s] task=%04d cpu=%d\n",
				ev.Time.Format("Jan 02 15:04:05.000"), ev.Kind, ev.Task, ev.CPU)
		}
	}()

	ctx := k.Context(context.Background())

	fast, err := coresched.Spawn(ctx, "periodic-fast", periodic("fast", 10, 50*time.Millisecond))
	if err != nil {
		panic(err)
	}
	slow, err := coresched.Spawn(ctx, "periodic-slow", periodic("slow", 5, 100*time.Millisecond))
	if err != nil {
		panic(err)
	}

	var counter atomic.Int64
	yielder, err := coresched.Spawn(ctx, "yielder", func(tc context.Context) int64 {
		for i := 0; i < 100; i++ {
			counter.Add(1)
			_ = coresched.Yield(tc)
		}
		return counter.Load()
	})
	if err != nil {
		panic(err)
	}

	n1, _ := fast.Join(context.Background())
	n2, _ := slow.Join(context.Background())
	n3, _ := yielder.Join(context.Background())
	fmt.Printf("fast ran %d iterations, slow ran %d, yielder counted %d\n", n1, n2, n3)

	if err := k.Shutdown(5 * time.Second); err != nil {
		panic(err)
	}
}

// periodic returns a task body that prints n times at the given interval.
func periodic(tag string, n int, interval time.Duration) func(context.Context) int {
	return func(tc context.Context) int {
		for i := 1; i <= n; i++ {
			fmt.Printf("[%s] iteration %d/%d\n", tag, i, n)
			_ = coresched.Sleep(tc, interval)
		}
		return n
	}
}
