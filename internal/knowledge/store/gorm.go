package store

import (
	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

// datastore implements the Factory interface on a gorm connection.
type datastore struct {
	db *gorm.DB
}

// NewFactory returns a storage factory backed by the given gorm connection.
func NewFactory(db *gorm.DB) Factory {
	return &datastore{db: db}
}

// Documents returns the document store.
func (ds *datastore) Documents() DocumentStore {
	return newDocuments(ds.db)
}

// Chunks returns the chunk store.
func (ds *datastore) Chunks() ChunkStore {
	return newChunks(ds.db)
}

// IngestJobs returns the ingest job store.
func (ds *datastore) IngestJobs() IngestJobStore {
	return newIngestJobs(ds.db)
}

// Sessions returns the QA session store.
func (ds *datastore) Sessions() SessionStore {
	return newSessions(ds.db)
}

// AutoMigrate migrates the database schema.
func (ds *datastore) AutoMigrate() error {
	return ds.db.AutoMigrate(
		&model.Document{},
		&model.Chunk{},
		&model.IngestJob{},
		&model.QASession{},
	)
}

// Close closes the factory and underlying connections.
func (ds *datastore) Close() error {
	sqlDB, err := ds.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// tenantScope filters rows visible to a tenant: its own plus shared rows.
func tenantScope(tenantID *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if tenantID == nil {
			return db.Where("tenant_id IS NULL")
		}
		return db.Where("tenant_id = ? OR tenant_id IS NULL", *tenantID)
	}
}
