// Package service contains the business logic.
//
// It sits between the handler and repository layers.
// It receives validated data from the handler, applies the lookup
// rules and calls repository methods to read the warehouse.
package service

import (
	"github.com/deppfellow/store-metrics/internal/repository"
)

type Services struct {
	Metrics *MetricsService
}

func NewServices(repos *repository.Repositories) (*Services, error) {
	return &Services{
		Metrics: NewMetricsService(repos.Metrics),
	}, nil
}
