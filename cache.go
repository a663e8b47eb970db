package aiur

import (
	"math/big"
	"sync"

	"github.com/theirisai/ICO-contracts/schema"
)

// Cache keeps the hot read-side numbers the API serves without touching
// the engines; the jobs refresh it.
type Cache struct {
	totalSupply *big.Int
	sale        schema.CrowdsaleSnapshot
	userCount   int
	lock        sync.RWMutex
}

func NewCache() *Cache {
	return &Cache{
		totalSupply: new(big.Int),
	}
}

func (c *Cache) GetTotalSupply() *big.Int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return new(big.Int).Set(c.totalSupply)
}

func (c *Cache) UpdateTotalSupply(supply *big.Int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.totalSupply = new(big.Int).Set(supply)
}

func (c *Cache) GetSaleState() schema.CrowdsaleSnapshot {
	c.lock.RLock()
	defer c.lock.RUnlock()
	sale := c.sale
	return sale
}

func (c *Cache) UpdateSaleState(sale schema.CrowdsaleSnapshot) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.sale = sale
}

func (c *Cache) GetUserCount() int {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.userCount
}

func (c *Cache) UpdateUserCount(n int) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.userCount = n
}
