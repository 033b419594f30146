package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/wa-automations/internal/model"
	"gitlab.com/timkado/api/wa-automations/internal/observer"
)

// tenantTask runs one tenant pass and returns its partial summary
type tenantTask func(ctx context.Context) (*model.RunSummary, error)

// TenantPool fans tenant passes out over a bounded goroutine pool. Sends within
// a tenant stay sequential; only tenants run side by side.
type TenantPool struct {
	pool *ants.Pool
	log  *zap.Logger
}

// NewTenantPool creates a pool running at most size tenant passes at once
func NewTenantPool(size int, log *zap.Logger) (*TenantPool, error) {
	if size <= 0 {
		size = 1
	}
	named := log.Named("tenant_pool")
	pool, err := ants.NewPool(size,
		ants.WithLogger(newAntsLoggerAdapter(named)),
		ants.WithNonblocking(false),
		ants.WithPanicHandler(func(p interface{}) {
			named.Error("Panic escaped tenant task", zap.Any("panic", p), zap.Stack("stack"))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tenant pool: %w", err)
	}
	named.Info("Tenant pool initialized", zap.Int("size", size))
	return &TenantPool{pool: pool, log: named}, nil
}

// Run executes every task and returns their summaries in task order. A task
// that fails, panics or cannot be scheduled yields its error at the same index.
func (p *TenantPool) Run(ctx context.Context, tasks []tenantTask) ([]*model.RunSummary, []error) {
	summaries := make([]*model.RunSummary, len(tasks))
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i, task := range tasks {
		i, task := i, task
		wg.Add(1)
		err := p.pool.Submit(func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					p.log.Error("Panic recovered in tenant pass", zap.Any("panic", r), zap.Stack("stack"))
					errs[i] = fmt.Errorf("panic recovered: %v", r)
				}
				observer.SetTenantPoolRunning(p.pool.Running())
			}()
			observer.SetTenantPoolRunning(p.pool.Running())
			summaries[i], errs[i] = task(ctx)
		})
		if err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to submit tenant pass: %w", err)
		}
	}
	wg.Wait()
	return summaries, errs
}

// Release stops the pool
func (p *TenantPool) Release() {
	p.pool.Release()
}

type antsLoggerAdapter struct {
	logger *zap.Logger
}

func newAntsLoggerAdapter(logger *zap.Logger) *antsLoggerAdapter {
	return &antsLoggerAdapter{logger: logger}
}

func (a *antsLoggerAdapter) Printf(format string, args ...interface{}) {
	a.logger.Info(fmt.Sprintf(format, args...))
}
