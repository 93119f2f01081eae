package storage

import (
	"context"
	"errors"
	"testing"
)

func TestNewStoreMemoryKinds(t *testing.T) {
	for _, kind := range []string{"", "memory", " Memory "} {
		store, err := NewStore(kind, "")
		if err != nil {
			t.Fatalf("kind=%q new store: %v", kind, err)
		}
		if _, ok := store.(*MemoryStore); !ok {
			t.Fatalf("kind=%q unexpected store type %T", kind, store)
		}
		if err := store.Init(context.Background()); err != nil {
			t.Fatalf("kind=%q init: %v", kind, err)
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("kind=%q close: %v", kind, err)
		}
	}
}

func TestNewStoreRejectsUnknownKind(t *testing.T) {
	if _, err := NewStore("postgres", ""); !errors.Is(err, ErrUnsupportedStore) {
		t.Fatalf("expected ErrUnsupportedStore, got %v", err)
	}
	if _, err := NewStore(KindSQLite, ""); err == nil {
		t.Fatal("expected missing sqlite path error")
	}
}

func TestDefaultStoreKindReadsEnvironment(t *testing.T) {
	t.Setenv(storeEnv, "")
	if got := DefaultStoreKind(); got != KindMemory {
		t.Fatalf("unexpected default store: got=%s want=%s", got, KindMemory)
	}
	t.Setenv(storeEnv, " sqlite ")
	if got := DefaultStoreKind(); got != KindSQLite {
		t.Fatalf("unexpected env store: got=%s want=%s", got, KindSQLite)
	}
}
