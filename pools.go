package forge

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/forge/command"
)

// Pools is the engine's command pool quartet: one pool per reset
// discipline, with the in-flight discipline getting one pool per frame.
type Pools struct {
	Transient *command.Pool
	Reshape   *command.Pool
	InFlight  [command.MaxFramesInFlight]*command.Pool
	General   *command.Pool
}

// NewCommandPools creates the full quartet against one queue family. On any
// failure the pools already created are destroyed before the error is
// returned.
func NewCommandPools(device core1_0.Device, queueFamilyIndex int) (*Pools, error) {
	pools := &Pools{}

	var err error
	pools.Transient, err = command.CreatePool(device, command.CategoryTransient, queueFamilyIndex)
	if err != nil {
		return nil, err
	}

	pools.Reshape, err = command.CreatePool(device, command.CategoryReshape, queueFamilyIndex)
	if err != nil {
		pools.destroyCreated()
		return nil, err
	}

	for i := 0; i < command.MaxFramesInFlight; i++ {
		pools.InFlight[i], err = command.CreatePool(device, command.CategoryInFlight, queueFamilyIndex)
		if err != nil {
			pools.destroyCreated()
			return nil, err
		}
	}

	pools.General, err = command.CreatePool(device, command.CategoryGeneral, queueFamilyIndex)
	if err != nil {
		pools.destroyCreated()
		return nil, err
	}

	return pools, nil
}

// InFlightSlice returns the per-frame pools as a slice for allocation
// helpers.
func (p *Pools) InFlightSlice() []*command.Pool {
	return p.InFlight[:]
}

func (p *Pools) destroyCreated() {
	if p.Transient != nil {
		p.Transient.Destroy()
		p.Transient = nil
	}
	if p.Reshape != nil {
		p.Reshape.Destroy()
		p.Reshape = nil
	}
	for i, pool := range p.InFlight {
		if pool != nil {
			pool.Destroy()
			p.InFlight[i] = nil
		}
	}
	if p.General != nil {
		p.General.Destroy()
		p.General = nil
	}
}

// Destroy releases every pool and with them every command buffer they
// allocated.
func (p *Pools) Destroy() {
	p.destroyCreated()
}
