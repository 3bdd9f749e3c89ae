package service

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVehicleLocksSerializePerVehicle(t *testing.T) {
	locks := NewVehicleLocks()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("v1")
			defer locks.Unlock("v1")
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
}

func TestVehicleLocksAreIndependentAcrossVehicles(t *testing.T) {
	locks := NewVehicleLocks()

	locks.Lock("v1")
	// A different vehicle's lock must not block
	locks.Lock("v2")
	locks.Unlock("v2")
	locks.Unlock("v1")
}
