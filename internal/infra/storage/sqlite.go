package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"snipe_go/internal/domain"
	"snipe_go/internal/infra"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Storage is the local market-rules cache. It never holds orders or fills.
type Storage struct {
	db *gorm.DB
}

// NewStorage opens (or creates) the SQLite cache at dbPath.
// An empty path resolves to the default location under the workspace dir.
func NewStorage(dbPath string) (*Storage, error) {
	if dbPath == "" {
		dbPath = infra.DefaultDBPath()
	}

	// Ensure directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(&domain.Market{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ======================================================================================
// Market Operations
// ======================================================================================

// UpsertMarkets creates or updates market rules in one transaction.
func (s *Storage) UpsertMarkets(markets []*domain.Market) error {
	if len(markets) == 0 {
		return nil
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).
			CreateInBatches(markets, 200).Error
	})
}

// GetMarket retrieves market rules by unified symbol
func (s *Storage) GetMarket(symbol string) (*domain.Market, error) {
	var market domain.Market
	err := s.db.First(&market, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// GetAllMarkets retrieves every cached market
func (s *Storage) GetAllMarkets() ([]*domain.Market, error) {
	var markets []*domain.Market
	err := s.db.Order("symbol").Find(&markets).Error
	return markets, err
}

// DeleteMarket deletes a market from the cache
func (s *Storage) DeleteMarket(symbol string) error {
	return s.db.Where("symbol = ?", symbol).Delete(&domain.Market{}).Error
}
