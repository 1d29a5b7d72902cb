package sqlstore

import (
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db            *bun.DB
	snapshotStore *SnapshotStore
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client, opts ...SnapshotStoreOption) (*RepositoryFactory, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	}
	return newRepositoryFactory(client, opts...)
}

func NewRepositoryFactoryFromDB(db *bun.DB, opts ...SnapshotStoreOption) (*RepositoryFactory, error) {
	return newRepositoryFactory(db, opts...)
}

func newRepositoryFactory(persistenceClient any, opts ...SnapshotStoreOption) (*RepositoryFactory, error) {
	db, err := resolveBunDB(persistenceClient)
	if err != nil {
		return nil, err
	}
	snapshotRepo := repository.NewRepository[*snapshotRecord](db, snapshotHandlers())
	if validator, ok := snapshotRepo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid snapshot repository wiring: %w", err)
		}
	}
	snapshotStore, err := NewSnapshotStore(snapshotRepo, opts...)
	if err != nil {
		return nil, err
	}
	return &RepositoryFactory{db: db, snapshotStore: snapshotStore}, nil
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) SnapshotStore() *SnapshotStore {
	if f == nil {
		return nil
	}
	return f.snapshotStore
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		if typed == nil {
			return nil, fmt.Errorf("sqlstore: bun db is nil")
		}
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
