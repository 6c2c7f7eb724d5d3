package bitcuckoo

import (
	"bytes"
	"errors"
	"strconv"
	"sync"
	"testing"
)

func TestSyncFilterConcurrentUse(t *testing.T) {
	filter, err := NewSync(10000, 0.01, Options{Rand: seeded(1)})
	if err != nil {
		t.Fatal(err)
	}
	const workers, perWorker = 8, 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := []byte(strconv.Itoa(w) + "-" + strconv.Itoa(i))
				if err := filter.Add(key); err != nil {
					t.Errorf("%s should get added in the filter: %v", key, err)
				}
				if !filter.Contains(key) {
					t.Errorf("%s should be present in filter", key)
				}
				if i%2 == 1 && !filter.Delete(key) {
					t.Errorf("%s should be removed", key)
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			var buf bytes.Buffer
			if _, err := filter.WriteTo(&buf); err != nil {
				t.Error(err)
			}
		}
	}()
	wg.Wait()

	if filter.Length() != workers*perWorker/2 {
		t.Errorf("filter length should be %v, instead found %v", workers*perWorker/2, filter.Length())
	}
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i += 2 {
			if !filter.Contains([]byte(strconv.Itoa(w) + "-" + strconv.Itoa(i))) {
				t.Errorf("%v-%v should be present in filter", w, i)
			}
		}
	}
}

func TestSyncFilterSnapshot(t *testing.T) {
	filter, _ := NewSync(100, 0.01, Options{Rand: seeded(2)})
	filter.Insert([]byte("foo"))
	snapshot, err := filter.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if !snapshot.ContainsString("foo") || snapshot.Length() != 1 {
		t.Error("snapshot should hold foo")
	}
	filter.Insert([]byte("bar"))
	if snapshot.Length() != 1 {
		t.Error("snapshot shouldn't change with the filter")
	}
	filter.Reset()
	if filter.Length() != 0 || !snapshot.ContainsString("foo") {
		t.Error("reset should only empty the wrapped filter")
	}
}

func TestNewSyncInvalid(t *testing.T) {
	if _, err := NewSync(0, 0.01, Options{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("error should match ErrInvalidConfiguration, instead found %v", err)
	}
}
