package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kart-io/logger"
)

// Global pool manager.
var (
	globalManager            *Manager
	globalManagerMu          sync.Mutex
	globalManagerInitialized uint32
)

// InitGlobal initializes the global pool manager with the standard pools.
func InitGlobal() error {
	return InitGlobalWithConfig(nil)
}

// GlobalConfig configures the pools registered by the global manager.
type GlobalConfig struct {
	// DefaultPool configures the general purpose pool.
	DefaultPool *Config
	// BackgroundPool configures the background task pool.
	BackgroundPool *Config
	// HealthCheckPool configures the health check pool.
	HealthCheckPool *Config
	// CustomPools configures additional named pools.
	CustomPools map[string]*Config
}

// DefaultGlobalConfig returns the default global configuration.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		DefaultPool:     DefaultPoolConfig(),
		BackgroundPool:  BackgroundPoolConfig(),
		HealthCheckPool: HealthCheckPoolConfig(),
		CustomPools:     make(map[string]*Config),
	}
}

// InitGlobalWithConfig initializes the global pool manager with a custom configuration.
func InitGlobalWithConfig(config *GlobalConfig) error {
	globalManagerMu.Lock()
	defer globalManagerMu.Unlock()

	if atomic.LoadUint32(&globalManagerInitialized) == 1 {
		return nil
	}

	if config == nil {
		config = DefaultGlobalConfig()
	}

	manager := NewManager()

	pools := map[Type]*Config{
		DefaultPool:     config.DefaultPool,
		BackgroundPool:  config.BackgroundPool,
		HealthCheckPool: config.HealthCheckPool,
	}

	for poolType, poolConfig := range pools {
		if poolConfig == nil {
			continue
		}
		if err := manager.RegisterWithType(poolType, poolConfig); err != nil {
			manager.ReleaseAll()
			return err
		}
	}

	for name, poolConfig := range config.CustomPools {
		if err := manager.Register(name, DefaultPool, poolConfig); err != nil {
			manager.ReleaseAll()
			return err
		}
	}

	globalManager = manager
	atomic.StoreUint32(&globalManagerInitialized, 1)

	logger.Infow("Global pool manager initialized",
		"pools", manager.List(),
	)

	return nil
}

// GetGlobal returns the global pool manager, initializing it on first use.
func GetGlobal() *Manager {
	if atomic.LoadUint32(&globalManagerInitialized) == 0 {
		if err := InitGlobal(); err != nil {
			logger.Errorw("Failed to auto-initialize global pool manager", "error", err)
			return nil
		}
	}
	return globalManager
}

// MustGetGlobal returns the global pool manager or panics.
func MustGetGlobal() *Manager {
	mgr := GetGlobal()
	if mgr == nil {
		panic(ErrManagerNotInitialized)
	}
	return mgr
}

// CloseGlobal closes the global pool manager.
func CloseGlobal() error {
	globalManagerMu.Lock()
	defer globalManagerMu.Unlock()

	if atomic.LoadUint32(&globalManagerInitialized) == 0 {
		return nil
	}

	if globalManager != nil {
		globalManager.ReleaseAll()
		globalManager = nil
	}
	atomic.StoreUint32(&globalManagerInitialized, 0)

	logger.Infow("Global pool manager closed")
	return nil
}

// CloseGlobalTimeout closes the global pool manager, waiting for tasks
// until the timeout.
func CloseGlobalTimeout(timeout time.Duration) error {
	globalManagerMu.Lock()
	defer globalManagerMu.Unlock()

	if atomic.LoadUint32(&globalManagerInitialized) == 0 {
		return nil
	}

	var err error
	if globalManager != nil {
		err = globalManager.ReleaseAllTimeout(timeout)
		globalManager = nil
	}
	atomic.StoreUint32(&globalManagerInitialized, 0)

	logger.Infow("Global pool manager closed", "timeout", timeout)
	return err
}

// ResetGlobal resets the global pool manager (tests only).
func ResetGlobal() {
	globalManagerMu.Lock()
	defer globalManagerMu.Unlock()

	if globalManager != nil {
		globalManager.ReleaseAll()
		globalManager = nil
	}
	atomic.StoreUint32(&globalManagerInitialized, 0)
}

// Submit submits a task to the default pool.
func Submit(task func()) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.SubmitToDefault(task)
}

// SubmitTo submits a task to the named pool.
func SubmitTo(poolName string, task func()) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.Submit(poolName, task)
}

// SubmitToType submits a task to the pool of the given type.
func SubmitToType(poolType Type, task func()) error {
	return SubmitTo(string(poolType), task)
}

// SubmitWithContext submits a context-aware task to the default pool.
func SubmitWithContext(ctx context.Context, task func()) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.SubmitWithContext(ctx, string(DefaultPool), task)
}

// SubmitToWithContext submits a context-aware task to the named pool.
func SubmitToWithContext(ctx context.Context, poolName string, task func()) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.SubmitWithContext(ctx, poolName, task)
}

// Register registers a new pool with the global manager.
func Register(name string, typ Type, config *Config) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.Register(name, typ, config)
}

// Get returns the named pool from the global manager.
func Get(name string) (*Pool, error) {
	mgr := GetGlobal()
	if mgr == nil {
		return nil, ErrManagerNotInitialized
	}
	return mgr.Get(name)
}

// GetByType returns the pool of the given type from the global manager.
func GetByType(poolType Type) (*Pool, error) {
	return Get(string(poolType))
}

// MustGet returns the named pool or panics.
func MustGet(name string) *Pool {
	pool, err := Get(name)
	if err != nil {
		panic(err)
	}
	return pool
}

// StatsGlobal returns statistics for all pools.
func StatsGlobal() map[string]Info {
	mgr := GetGlobal()
	if mgr == nil {
		return nil
	}
	return mgr.Stats()
}

// Tune adjusts the capacity of the named pool.
func Tune(name string, size int) error {
	mgr := GetGlobal()
	if mgr == nil {
		return ErrManagerNotInitialized
	}
	return mgr.Tune(name, size)
}
