package authorize

import (
	"context"
	_ "embed"
	"log/slog"
	"sync/atomic"
	"time"

	casbin "github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var defaultModel string

// policyLoadHealthy is false while the last policy reload failed.
var policyLoadHealthy atomic.Bool

func init() {
	policyLoadHealthy.Store(true)
}

// IsPolicyHealthy returns false if the last policy reload attempt failed.
func IsPolicyHealthy() bool {
	return policyLoadHealthy.Load()
}

// CleanupFunc is a function that cleans up resources.
type CleanupFunc func(ctx context.Context)

// NewEnforcer builds an enforcer from modelPath (the embedded model when
// empty) and the CSV policy at policyPath. With no policy file, or a file
// without p rows, the default policies are loaded into memory.
// A positive reload interval re-reads the policy file in the background.
func NewEnforcer(modelPath, policyPath string, reload time.Duration) (*casbin.DistributedEnforcer, CleanupFunc, error) {
	m, err := loadModel(modelPath)
	if err != nil {
		return nil, nil, err
	}

	var e *casbin.DistributedEnforcer
	if policyPath != "" {
		e, err = casbin.NewDistributedEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		e, err = casbin.NewDistributedEnforcer(m)
	}
	if err != nil {
		return nil, nil, err
	}

	// the file adapter is the source of truth; never write back to it
	e.EnableAutoSave(false)
	e.EnableEnforce(true)

	if err := SeedDefaultPolicies(e); err != nil {
		return nil, nil, err
	}

	stop := make(chan struct{})
	if policyPath != "" && reload > 0 {
		go watchPolicy(e, reload, stop)
	}

	cleanup := func(ctx context.Context) {
		close(stop)
		slog.InfoContext(ctx, "casbin enforcer cleanup completed")
	}
	return e, cleanup, nil
}

func loadModel(path string) (model.Model, error) {
	if path == "" {
		return model.NewModelFromString(defaultModel)
	}
	return model.NewModelFromFile(path)
}

func watchPolicy(e *casbin.DistributedEnforcer, every time.Duration, stop <-chan struct{}) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := reloadPolicy(e); err != nil {
				slog.Error("failed to reload casbin policy", "error", err)
				policyLoadHealthy.Store(false)
				continue
			}
			policyLoadHealthy.Store(true)
		}
	}
}

func reloadPolicy(e *casbin.DistributedEnforcer) error {
	if err := e.LoadPolicy(); err != nil {
		return err
	}
	return SeedDefaultPolicies(e)
}
