package encoders

import (
	"sync"
	"sync/atomic"
	"time"

	"career-matching/internal/common/logger"
	"career-matching/internal/common/metrics"
)

// Registry serves the current EncoderSet. Reload builds a complete new set before swapping it in,
// so a failed reload leaves the previous set serving.
type Registry struct {
	dir         string
	opts        LoadOptions
	logger      logger.Logger
	retireAfter time.Duration

	current  atomic.Pointer[EncoderSet]
	reloadMu sync.Mutex
}

// NewRegistry loads the initial set. An error here is fatal for the process.
func NewRegistry(dir string, opts LoadOptions, log logger.Logger) (*Registry, error) {
	r := &Registry{
		dir:         dir,
		opts:        opts,
		logger:      logger.ForComponent(log, "encoder-registry"),
		retireAfter: opts.retireAfter(),
	}

	set, err := Load(dir, opts)
	if err != nil {
		metrics.ArtifactReloads.WithLabelValues("failed").Inc()
		return nil, err
	}
	r.current.Store(set)
	metrics.ArtifactReloads.WithLabelValues("initial").Inc()

	r.logger.Info("encoder set loaded", map[string]interface{}{
		"version":      set.Version(),
		"backend":      set.Manifest.ModelBackend,
		"features":     set.Schema.Len(),
		"targetLabels": set.Target.Len(),
		"directory":    dir,
	})
	return r, nil
}

// NewStaticRegistry wraps an already-built set; Reload is a no-op success.
func NewStaticRegistry(set *EncoderSet) *Registry {
	r := &Registry{logger: logger.NewNoOpLogger()}
	r.current.Store(set)
	return r
}

// Current returns the set to use for one request. Callers pass it explicitly down the pipeline.
func (r *Registry) Current() *EncoderSet {
	return r.current.Load()
}

// Ready reports whether a set is loaded.
func (r *Registry) Ready() bool {
	return r.current.Load() != nil
}

// Reload loads the artifact directory again and swaps the result in on success.
func (r *Registry) Reload() (*EncoderSet, error) {
	r.reloadMu.Lock()
	defer r.reloadMu.Unlock()

	if r.dir == "" {
		return r.Current(), nil
	}

	next, err := Load(r.dir, r.opts)
	if err != nil {
		metrics.ArtifactReloads.WithLabelValues("failed").Inc()
		prev := r.Current()
		fields := map[string]interface{}{"directory": r.dir}
		if prev != nil {
			fields["servingVersion"] = prev.Version()
		}
		r.logger.WithError(err).Error("encoder set reload failed, keeping previous set", fields)
		return prev, err
	}

	prev := r.current.Swap(next)
	metrics.ArtifactReloads.WithLabelValues("swapped").Inc()
	r.logger.Info("encoder set reloaded", map[string]interface{}{
		"version":  next.Version(),
		"features": next.Schema.Len(),
	})

	// In-flight requests may still hold prev; release its model once they have drained.
	if prev != nil && prev != next {
		time.AfterFunc(r.retireAfter, func() {
			if err := prev.Close(); err != nil {
				r.logger.Warn("failed to close retired model", map[string]interface{}{
					"version": prev.Version(),
					"error":   err.Error(),
				})
			}
		})
	}
	return next, nil
}

// Close releases the current set.
func (r *Registry) Close() error {
	set := r.current.Swap(nil)
	return set.Close()
}
