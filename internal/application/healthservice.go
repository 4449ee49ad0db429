package application

import (
	"context"

	"github.com/teskilatapp/credsync/internal/domain/model"
	"github.com/teskilatapp/credsync/internal/domain/port/driven"
)

// HealthStatus is the health view served to probes and operators.
type HealthStatus struct {
	Healthy      bool
	RecordCounts map[model.UserType]int
}

// HealthService reports record-store reachability and per-type record
// counts. It depends only on port interfaces.
type HealthService struct {
	records driven.RecordStore
}

// NewHealthService creates a HealthService.
func NewHealthService(records driven.RecordStore) *HealthService {
	return &HealthService{records: records}
}

// Status checks the store by listing records and aggregating counts per
// user type. A store failure yields Healthy=false with empty counts.
func (s *HealthService) Status(ctx context.Context) HealthStatus {
	records, err := s.records.ListAll(ctx)
	if err != nil {
		return HealthStatus{Healthy: false, RecordCounts: map[model.UserType]int{}}
	}

	counts := make(map[model.UserType]int, len(model.AllUserTypes))
	for _, ut := range model.AllUserTypes {
		counts[ut] = 0
	}
	for _, rec := range records {
		counts[rec.UserType]++
	}

	return HealthStatus{Healthy: true, RecordCounts: counts}
}
