// Copyright 2025 Ant Group Co., Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/status"
	"github.com/secretflow/fuser/pkg/util/logutil"
	"github.com/secretflow/fuser/pkg/util/parallel"
	prom "github.com/secretflow/fuser/pkg/util/prometheus"
)

const (
	DefaultCacheExpiration      = 30 * time.Minute
	DefaultCacheCleanupInterval = 10 * time.Minute

	noApplicableHeuristicMsg = "no applicable scheduling strategy found for this fusion"
)

// Selection is the outcome of the compile-time phase.
type Selection struct {
	Heuristic  HeuristicType
	Rejections []Rejection
	// taken from the cache, Rejections are replayed from the first selection
	Cached bool
}

// Decision is the outcome of dispatching one fusion.
type Decision struct {
	FusionID        string
	Heuristic       HeuristicType
	Config          Config
	Rejections      []Rejection
	CachedSelection bool
	CompileTimeCost time.Duration
	RuntimeCost     time.Duration
}

// Job pairs a fusion with its runtime arguments for ScheduleAll.
type Job struct {
	Fusion *fusion.Fusion
	Args   *RuntimeArgs
}

// Registry dispatches fusions to heuristics in priority order. The first
// heuristic accepting at compile time is committed to; if it then rejects
// the runtime arguments the fusion fails to schedule without trying the
// others.
//
// A Registry holds no per-fusion state and may be used concurrently, but a
// fusion must not be scheduled by two goroutines at once.
type Registry struct {
	heuristics []Heuristic
	byType     map[HeuristicType]Heuristic
	opts       *Options
	reporter   Reporter
	// compile-time selections keyed by fusion fingerprint and options
	cache *cache.Cache
}

// NewRegistry registers heuristics in the given priority order, or the
// default heuristics when none are given. It panics on duplicate types.
func NewRegistry(opts *Options, reporter Reporter, heuristics ...Heuristic) *Registry {
	if len(heuristics) == 0 {
		heuristics = DefaultHeuristics()
	}
	if reporter == nil {
		reporter = NopReporter{}
	}
	if opts == nil {
		opts = NewOptions()
	}
	r := &Registry{
		byType:   make(map[HeuristicType]Heuristic),
		opts:     opts,
		reporter: reporter,
		cache:    cache.New(DefaultCacheExpiration, DefaultCacheCleanupInterval),
	}
	for _, h := range heuristics {
		if _, ok := r.byType[h.Type()]; ok {
			panic(fmt.Errorf("heuristic %s registered twice", h.Type()))
		}
		r.byType[h.Type()] = h
		r.heuristics = append(r.heuristics, h)
	}
	return r
}

// SetCacheExpiration replaces the selection cache. Call it before use.
func (r *Registry) SetCacheExpiration(expiration, cleanupInterval time.Duration) {
	r.cache = cache.New(expiration, cleanupInterval)
}

// Heuristics returns registered types in priority order.
func (r *Registry) Heuristics() []HeuristicType {
	types := make([]HeuristicType, 0, len(r.heuristics))
	for _, h := range r.heuristics {
		types = append(types, h.Type())
	}
	return types
}

func (r *Registry) Options() *Options {
	return r.opts
}

// WithReporter returns a registry sharing heuristics and cache that
// reports to rep.
func (r *Registry) WithReporter(rep Reporter) *Registry {
	c := *r
	if rep == nil {
		rep = NopReporter{}
	}
	c.reporter = rep
	return &c
}

// WithOptions returns a registry sharing heuristics and cache that
// schedules under opts. Cache entries are keyed by options, so the two
// registries never observe each other's selections.
func (r *Registry) WithOptions(opts *Options) *Registry {
	c := *r
	if opts == nil {
		opts = NewOptions()
	}
	c.opts = opts
	return &c
}

func (r *Registry) report(f *fusion.Fusion, rej *Rejection) {
	logrus.Debugf("%v", logutil.RejectionLogEntry{
		FusionID:  f.ID,
		Heuristic: rej.Heuristic.String(),
		Reason:    rej.Reason,
	})
	r.reporter.RecordRejection(rej.Heuristic, rej.Reason)
}

// SelectHeuristic runs the compile-time phase: the first heuristic in
// priority order accepting f is selected. When all reject, the returned
// selection holds every rejection and the error has code
// CodeNoApplicableHeuristic.
func (r *Registry) SelectHeuristic(ctx context.Context, f *fusion.Fusion) (*Selection, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "SelectHeuristic")
	defer span.Finish()
	span.SetTag("fusion_id", f.ID)

	useCache := !r.opts.IsOptionDisabled(DisableHeuristicCache)
	key := f.Fingerprint() + "|" + r.opts.Key()
	if useCache {
		v, ok := r.cache.Get(key)
		prom.GetMonitor().ObserveSelectCache(ok)
		if ok {
			cached := v.(Selection)
			sel := &Selection{
				Heuristic:  cached.Heuristic,
				Rejections: append([]Rejection(nil), cached.Rejections...),
				Cached:     true,
			}
			for i := range sel.Rejections {
				r.report(f, &sel.Rejections[i])
			}
			span.SetTag("heuristic", sel.Heuristic.String())
			span.SetTag("cached", true)
			return sel, nil
		}
	}

	sel := &Selection{Heuristic: HeuristicNone}
	for _, h := range r.heuristics {
		ht := h.Type()
		var rej *Rejection
		if r.opts.IsHeuristicDisabled(ht) {
			rej = reject(ht, PolicyDisabled, "heuristic %s is disabled", ht)
		} else {
			rej = h.CanScheduleCompileTime(f, r.opts)
		}
		if rej == nil {
			sel.Heuristic = ht
			break
		}
		rejection := *rej
		rejection.Heuristic = ht
		r.report(f, &rejection)
		sel.Rejections = append(sel.Rejections, rejection)
	}
	span.SetTag("heuristic", sel.Heuristic.String())
	if sel.Heuristic == HeuristicNone {
		return sel, status.New(status.CodeNoApplicableHeuristic, noApplicableHeuristicMsg)
	}
	if useCache {
		r.cache.SetDefault(key, Selection{
			Heuristic:  sel.Heuristic,
			Rejections: append([]Rejection(nil), sel.Rejections...),
		})
	}
	return sel, nil
}

// ScheduleWith runs the runtime phase of heuristic ht on f: validate args,
// check them against ht, derive the config and bind the outputs of f.
// The decision is returned also on failure to carry runtime rejections.
func (r *Registry) ScheduleWith(ctx context.Context, f *fusion.Fusion, ht HeuristicType, args *RuntimeArgs) (*Decision, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "ScheduleWith")
	defer span.Finish()
	span.SetTag("fusion_id", f.ID)
	span.SetTag("heuristic", ht.String())

	startTime := time.Now()
	decision := &Decision{FusionID: f.ID, Heuristic: ht}
	err := r.scheduleWith(f, ht, args, decision)
	decision.RuntimeCost = time.Since(startTime)
	prom.GetMonitor().ObservePhase("runtime", decision.RuntimeCost)

	entry := logutil.ScheduleLogEntry{
		FusionID:   f.ID,
		FusionName: f.Name,
		Phase:      "runtime",
		Heuristic:  ht.String(),
		CostTime:   decision.RuntimeCost,
	}
	if err != nil {
		span.SetTag("error", true)
		entry.Reason = status.CodeOf(err).String()
		entry.ErrorMsg = err.Error()
		logrus.Warnf("%v", entry)
		return decision, err
	}
	entry.Reason = decision.Config.String()
	logrus.Debugf("%v", entry)
	return decision, nil
}

func (r *Registry) scheduleWith(f *fusion.Fusion, ht HeuristicType, args *RuntimeArgs, decision *Decision) error {
	h, ok := r.byType[ht]
	if !ok {
		return status.New(status.CodeInternal, fmt.Sprintf("heuristic %s is not registered", ht))
	}
	if err := args.Validate(f); err != nil {
		return status.Wrap(status.CodeInvalidArgument, err)
	}
	if rej := h.CanScheduleRuntime(f, args, r.opts); rej != nil {
		rejection := *rej
		rejection.Heuristic = ht
		r.report(f, &rejection)
		decision.Rejections = append(decision.Rejections, rejection)
		return status.New(status.CodeRuntimeRejected, rejection.String())
	}
	cfg, err := h.ComputeConfig(f, args)
	if err != nil {
		return status.Wrap(status.CodeInternal, fmt.Errorf("%s compute config: %w", ht, err))
	}
	decision.Config = cfg

	f.ResetBindings()
	if err := h.Schedule(f, cfg); err != nil {
		return status.Wrap(status.CodeInternal, fmt.Errorf("%s schedule: %w", ht, err))
	}
	if unbound := f.UnboundOutputs(); len(unbound) > 0 {
		names := make([]string, 0, len(unbound))
		for _, v := range unbound {
			names = append(names, v.ToBriefString())
		}
		return status.New(status.CodeInternal, fmt.Sprintf("%s left outputs %v unbound", ht, names))
	}
	return nil
}

// Schedule runs both phases on f.
func (r *Registry) Schedule(ctx context.Context, f *fusion.Fusion, args *RuntimeArgs) (*Decision, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Schedule")
	defer span.Finish()

	startTime := time.Now()
	sel, err := r.SelectHeuristic(ctx, f)
	compileTimeCost := time.Since(startTime)
	prom.GetMonitor().ObservePhase("compile_time", compileTimeCost)
	if err != nil {
		prom.GetMonitor().ObserveDecision(HeuristicNone.String(), status.CodeOf(err).String())
		logrus.Warnf("%v", logutil.ScheduleLogEntry{
			FusionID:   f.ID,
			FusionName: f.Name,
			Phase:      "compile_time",
			Heuristic:  HeuristicNone.String(),
			CostTime:   compileTimeCost,
			Reason:     fmt.Sprintf("%d rejections", len(sel.Rejections)),
			ErrorMsg:   err.Error(),
		})
		return &Decision{
			FusionID:        f.ID,
			Heuristic:       HeuristicNone,
			Rejections:      sel.Rejections,
			CompileTimeCost: compileTimeCost,
		}, err
	}

	decision, err := r.ScheduleWith(ctx, f, sel.Heuristic, args)
	decision.Rejections = append(sel.Rejections, decision.Rejections...)
	decision.CachedSelection = sel.Cached
	decision.CompileTimeCost = compileTimeCost
	prom.GetMonitor().ObserveDecision(decision.Heuristic.String(), status.CodeOf(err).String())
	if err == nil {
		logrus.Infof("%v", logutil.ScheduleLogEntry{
			FusionID:   f.ID,
			FusionName: f.Name,
			Phase:      "done",
			Heuristic:  decision.Heuristic.String(),
			CostTime:   compileTimeCost + decision.RuntimeCost,
			Reason:     fmt.Sprintf("cached:%t", decision.CachedSelection),
		})
	}
	return decision, err
}

// ScheduleAll schedules independent fusions concurrently. Decisions keep
// the order of jobs; a failed job leaves its decision partially filled and
// contributes to the joined error.
func (r *Registry) ScheduleAll(ctx context.Context, jobs []Job) ([]*Decision, error) {
	return parallel.ParallelRun(jobs, func(job Job) (*Decision, error) {
		if job.Fusion == nil {
			return nil, status.New(status.CodeInvalidArgument, "job without fusion")
		}
		d, err := r.Schedule(ctx, job.Fusion, job.Args)
		if err != nil {
			return d, fmt.Errorf("fusion %s: %w", job.Fusion.Name, err)
		}
		return d, nil
	})
}
