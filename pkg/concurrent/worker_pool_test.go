package concurrent

import "testing"

func TestWorkerPoolProcessesAllJobs(t *testing.T) {
	const jobs = 100

	pool := NewWorkerPool[int, int](8, jobs)
	pool.Start(func(job int) int {
		return job * job
	})

	want := 0
	for i := 0; i < jobs; i++ {
		pool.AddJob(i)
		want += i * i
	}
	pool.Close()
	pool.Wait()

	got := 0
	count := 0
	for res := range pool.CollectResults() {
		got += res
		count++
	}

	if count != jobs {
		t.Errorf("collected %d results, want %d", count, jobs)
	}
	if got != want {
		t.Errorf("result sum = %d, want %d", got, want)
	}
}

func TestWorkerPoolNoJobs(t *testing.T) {
	pool := NewWorkerPool[string, string](2, 0)
	pool.Start(func(job string) string { return job })
	pool.Close()
	pool.Wait()

	for range pool.CollectResults() {
		t.Fatal("unexpected result from empty pool")
	}
}
