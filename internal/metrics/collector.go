package metrics

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// StatusCounter 按状态统计记录数
type StatusCounter interface {
	CountByStatus() (map[string]int64, error)
}

// Collector 指标收集器
type Collector struct {
	db       *gorm.DB
	counters map[string]StatusCounter // entity -> counter
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewCollector 创建指标收集器
func NewCollector(db *gorm.DB, interval time.Duration, counters map[string]StatusCounter) *Collector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Collector{
		db:       db,
		counters: counters,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start 启动指标收集器
func (c *Collector) Start() {
	go c.collect()
}

// Stop 停止指标收集器
func (c *Collector) Stop() {
	c.cancel()
	<-c.done
}

// collect 定期收集指标
func (c *Collector) collect() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	defer close(c.done)

	c.CollectOnce()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			c.CollectOnce()
		}
	}
}

// CollectOnce 收集一次指标
func (c *Collector) CollectOnce() {
	// 更新数据库连接数指标
	_ = UpdateDatabaseConnections(c.db)

	for entity, counter := range c.counters {
		counts, err := counter.CountByStatus()
		if err != nil {
			logrus.WithError(err).WithField("entity", entity).Warn("failed to count records by status")
			continue
		}
		for status, n := range counts {
			UpdateRecordsByStatus(entity, status, float64(n))
		}
	}
}
