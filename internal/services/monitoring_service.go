package services

import (
	"context"
	"log"
	"sync"
	"time"

	"bridge-indexer/internal/db"
	"bridge-indexer/internal/metrics"
	"bridge-indexer/internal/repository"

	"gorm.io/gorm"
)

// MonitoringService 监控服务，负责定期更新 Prometheus metrics
type MonitoringService struct {
	db            *gorm.DB
	cctxs         repository.CctxRepository
	stopCh        chan struct{}
	wg            sync.WaitGroup
	dbInterval    time.Duration
	tableInterval time.Duration
}

// NewMonitoringService 创建监控服务
func NewMonitoringService(gdb *gorm.DB, cctxs repository.CctxRepository) *MonitoringService {
	return &MonitoringService{
		db:            gdb,
		cctxs:         cctxs,
		stopCh:        make(chan struct{}),
		dbInterval:    10 * time.Second,
		tableInterval: 60 * time.Second,
	}
}

// Start 启动监控服务
func (m *MonitoringService) Start() {
	log.Println("🚀 Starting monitoring service...")

	m.wg.Add(2)
	go m.loop(m.dbInterval, m.updateDatabaseMetrics)
	go m.loop(m.tableInterval, m.updateCctxRows)

	log.Println("✅ Monitoring service started")
}

// Stop 停止监控服务
func (m *MonitoringService) Stop() {
	log.Println("🛑 Stopping monitoring service...")
	close(m.stopCh)
	m.wg.Wait()
	log.Println("✅ Monitoring service stopped")
}

func (m *MonitoringService) loop(interval time.Duration, update func()) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// 立即执行一次
	update()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			update()
		}
	}
}

// updateDatabaseMetrics 更新数据库指标
func (m *MonitoringService) updateDatabaseMetrics() {
	sqlDB, err := m.db.DB()
	if err != nil {
		metrics.DBConnectionStatus.Set(0)
		return
	}

	stats := sqlDB.Stats()
	metrics.DBConnectionPoolSize.Set(float64(stats.MaxOpenConnections))
	metrics.DBConnectionActive.Set(float64(stats.InUse))
	metrics.DBConnectionIdle.Set(float64(stats.Idle))

	if err := sqlDB.Ping(); err != nil {
		metrics.DBConnectionStatus.Set(0)
	} else {
		metrics.DBConnectionStatus.Set(1)
	}
}

// updateCctxRows 更新每个桥的 cctx 行数
func (m *MonitoringService) updateCctxRows() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, bridge := range db.Bridges {
		count, err := m.cctxs.Count(ctx, bridge)
		if err != nil {
			log.Printf("⚠️ Failed to count %s: %v", bridge.CctxTable(), err)
			continue
		}
		metrics.CctxRows.WithLabelValues(string(bridge)).Set(float64(count))
	}
}
