package service

import "sync"

// VehicleLocks serializes all recomputation for one vehicle. Classification,
// aggregation and alert synchronization after a mutation run as one unit
// under the vehicle's lock, so a concurrent reader never observes documents
// updated with alerts not yet synchronized.
type VehicleLocks struct {
	mutex sync.Mutex
	locks map[string]*sync.Mutex
}

// NewVehicleLocks creates a new lock table
func NewVehicleLocks() *VehicleLocks {
	return &VehicleLocks{
		locks: make(map[string]*sync.Mutex),
	}
}

// Lock acquires the mutation lock for a vehicle
func (l *VehicleLocks) Lock(vehicleID string) {
	l.mutex.Lock()
	lock, ok := l.locks[vehicleID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[vehicleID] = lock
	}
	l.mutex.Unlock()

	lock.Lock()
}

// Unlock releases the mutation lock for a vehicle
func (l *VehicleLocks) Unlock(vehicleID string) {
	l.mutex.Lock()
	lock, ok := l.locks[vehicleID]
	l.mutex.Unlock()

	if ok {
		lock.Unlock()
	}
}
