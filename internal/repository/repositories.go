package repository

import (
	"github.com/deppfellow/store-metrics/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Metrics *MetricsRepository
}

// NewRepositories constructs the repository container on top of the
// server's warehouse pool.
func NewRepositories(s *server.Server) (*Repositories, error) {
	metricsRepo, err := NewMetricsRepository(s.DB.Pool, s.Config)
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Metrics: metricsRepo,
	}, nil
}
