//go:build !deadlock

// Package sync provides the locks used across the shell. Release builds use
// the standard library; building with -tags deadlock swaps in go-deadlock so
// lock-order problems between the event hub and the window runtime show up
// as reports instead of a frozen app.
package sync

import "sync"

// Mutex is the standard sync.Mutex in release builds.
type Mutex = sync.Mutex

// RWMutex is the standard sync.RWMutex in release builds.
type RWMutex = sync.RWMutex

// Once is the standard sync.Once.
type Once = sync.Once

// WaitGroup is the standard sync.WaitGroup.
type WaitGroup = sync.WaitGroup

// DetectionEnabled reports whether locks are checked for deadlocks.
func DetectionEnabled() bool { return false }
