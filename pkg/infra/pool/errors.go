// Package pool provides managed worker pools built on ants.
package pool

import "errors"

var (
	// ErrPoolClosed indicates the pool has been released.
	ErrPoolClosed = errors.New("pool is closed")

	// ErrPoolNotFound indicates no pool is registered under the name.
	ErrPoolNotFound = errors.New("pool not found")

	// ErrPoolAlreadyExists indicates a pool is already registered under the name.
	ErrPoolAlreadyExists = errors.New("pool already exists")

	// ErrInvalidPoolConfig indicates the pool configuration is invalid.
	ErrInvalidPoolConfig = errors.New("invalid pool config")

	// ErrManagerNotInitialized indicates the global manager has not been initialized.
	ErrManagerNotInitialized = errors.New("pool manager not initialized")

	// ErrPoolOverload indicates the pool is full and cannot accept tasks.
	ErrPoolOverload = errors.New("pool overloaded")
)
