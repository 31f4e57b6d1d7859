// Package store keeps the loaded trade datasets in memory, indexed by
// strategy file name.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/quantdesk/analytics-backend/internal/ingest"
	"github.com/quantdesk/analytics-backend/pkg/types"
)

// Store provides access to ingested strategy datasets. Datasets are loaded
// once from the data directory and handed out by value, so callers can
// filter and adjust them without touching the originals.
type Store struct {
	mu       sync.RWMutex
	logger   *zap.Logger
	loader   *ingest.Loader
	dataDir  string
	datasets map[string]types.TradeDataset
}

// StrategyInfo summarizes one loaded dataset.
type StrategyInfo struct {
	Name      string    `json:"name"`
	Records   int       `json:"records"`
	FirstDate time.Time `json:"firstDate"`
	LastDate  time.Time `json:"lastDate"`
}

// NewStore creates a store over the given data directory.
func NewStore(logger *zap.Logger, loader *ingest.Loader, dataDir string) *Store {
	return &Store{
		logger:   logger,
		loader:   loader,
		dataDir:  dataDir,
		datasets: make(map[string]types.TradeDataset),
	}
}

// LoadAll discovers and ingests every workbook in the data directory,
// replacing the current contents. Files that fail to load are skipped with
// a warning; they surface as "dataset unavailable", never as partial data.
func (s *Store) LoadAll() error {
	files, err := s.loader.Discover(s.dataDir)
	if err != nil {
		return fmt.Errorf("store: discovering datasets: %w", err)
	}

	loaded := make(map[string]types.TradeDataset, len(files))
	for _, path := range files {
		ds, err := s.loader.Load(path)
		if err != nil {
			s.logger.Warn("dataset unavailable",
				zap.String("file", path),
				zap.Error(err),
			)
			continue
		}
		loaded[ds.Strategy] = ds
	}

	s.mu.Lock()
	s.datasets = loaded
	s.mu.Unlock()

	s.logger.Info("datasets loaded",
		zap.Int("strategies", len(loaded)),
		zap.Int("files", len(files)),
	)
	return nil
}

// Put inserts or replaces a dataset. Used by tests and ad-hoc ingestion.
func (s *Store) Put(ds types.TradeDataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[ds.Strategy] = ds
}

// Get returns the dataset for a strategy name.
func (s *Store) Get(name string) (types.TradeDataset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ds, ok := s.datasets[name]
	return ds, ok
}

// All returns every dataset, ordered by strategy name.
func (s *Store) All() []types.TradeDataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.TradeDataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Strategy < out[j].Strategy
	})
	return out
}

// List summarizes every dataset, ordered by strategy name.
func (s *Store) List() []StrategyInfo {
	all := s.All()
	infos := make([]StrategyInfo, 0, len(all))
	for _, ds := range all {
		info := StrategyInfo{Name: ds.Strategy, Records: len(ds.Records)}
		if !ds.Empty() {
			info.FirstDate = ds.Records[0].Date
			info.LastDate = ds.Records[len(ds.Records)-1].Date
		}
		infos = append(infos, info)
	}
	return infos
}
