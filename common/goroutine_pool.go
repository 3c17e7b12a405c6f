package common

import (
	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
)

type PoolConfig struct {
	MaxWorkers int
	// Nonblocking makes Submit fail with ants.ErrPoolOverload instead of
	// waiting for a free worker.
	Nonblocking bool
}

func NewPool(config PoolConfig) (*ants.Pool, error) {
	if config.MaxWorkers <= 0 {
		config.MaxWorkers = 64
	}

	pool, err := ants.NewPool(config.MaxWorkers, ants.WithNonblocking(config.Nonblocking))
	if err != nil {
		log.Errorf("Failed to create ants goroutine_pool: %v", err)
		return nil, err
	}

	return pool, nil
}
