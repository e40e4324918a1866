package command

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/forge/vko"
)

// Pool pairs a command pool handle with the category that decided its
// creation flags, so allocation and reset paths can check the discipline
// they are operating under.
type Pool struct {
	pool     vko.Unique[core1_0.CommandPool]
	category Category
}

// CreatePool creates a command pool for queueFamilyIndex with the creation
// flags its category dictates.
func CreatePool(device core1_0.Device, category Category, queueFamilyIndex int) (*Pool, error) {
	pool, err := vko.CreateCommandPool(device, core1_0.CommandPoolCreateInfo{
		Flags:            category.PoolFlags(),
		QueueFamilyIndex: queueFamilyIndex,
	})
	if err != nil {
		return nil, err
	}

	return &Pool{
		pool:     pool,
		category: category,
	}, nil
}

// Handle returns the native command pool.
func (p *Pool) Handle() core1_0.CommandPool {
	return p.pool.Handle()
}

// Category returns the reset discipline this pool was created under.
func (p *Pool) Category() Category {
	return p.category
}

// Reset returns every buffer allocated from the pool to the initial state.
// The caller is responsible for ensuring none of them is still pending
// execution.
func (p *Pool) Reset(flags core1_0.CommandPoolResetFlags) error {
	_, err := p.pool.Handle().Reset(flags)
	return err
}

// Destroy releases the pool and implicitly frees every command buffer
// allocated from it.
func (p *Pool) Destroy() {
	p.pool.Destroy()
}
