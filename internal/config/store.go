package config

import (
	"sync"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreCSV       = "csv"
	StorePostgres  = "postgres"
	StoreFirestore = "firestore"
	StoreMemory    = "memory"
)

type StoreConfig struct {
	Driver string
	// Dir holds one results CSV per role when Driver is csv.
	Dir                 string
	FirestoreProject    string
	FirestoreCollection string
	MaxRetries          int
}

var (
	storeConfig *StoreConfig
	storeOnce   sync.Once
)

func LoadStoreConfig() *StoreConfig {
	storeOnce.Do(func() {
		storeConfig = readStoreConfig()
	})
	return storeConfig
}

func readStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver:              getEnv("STORE_DRIVER", StoreCSV),
		Dir:                 getEnv("STORE_DIR", "./data"),
		FirestoreProject:    getEnv("FIRESTORE_PROJECT", ""),
		FirestoreCollection: getEnv("FIRESTORE_COLLECTION", "screening_results"),
		MaxRetries:          intEnv("STORE_MAX_RETRIES", 3),
	}
}
