package tests

import (
	"log"
	"sync"

	"github.com/janelia-flyem/agstore/storage"
	_ "github.com/janelia-flyem/agstore/storage/badger"
)

var (
	store storage.Store
	count int
	mu    sync.Mutex
)

// UseStore returns an in-memory badger store shared by tests until the matching
// number of CloseStore calls.
func UseStore() storage.Store {
	mu.Lock()
	defer mu.Unlock()
	if count == 0 {
		var err error
		store, _, err = storage.Open(storage.Config{Engine: "badger", InMemory: true})
		if err != nil {
			log.Fatalf("Can't create a test store: %v\n", err)
		}
	}
	count++
	return store
}

// CloseStore releases a store obtained with UseStore.
func CloseStore() {
	mu.Lock()
	defer mu.Unlock()
	count--
	if count == 0 {
		if store == nil {
			log.Fatalf("Attempted to close non-existent store!")
		}
		if err := store.Close(); err != nil {
			log.Fatalf("Unable to close test store: %v\n", err)
		}
		store = nil
	}
}
