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

package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/fusion/desc"
	"github.com/secretflow/fuser/pkg/scheduler"
	"github.com/secretflow/fuser/pkg/scheduler/debugutil"
	"github.com/secretflow/fuser/pkg/status"
	"github.com/secretflow/fuser/pkg/storage"
	prom "github.com/secretflow/fuser/pkg/util/prometheus"
)

type ScheduleRequest struct {
	Fusion desc.Desc     `json:"fusion"`
	Args   desc.ArgsDesc `json:"args"`
	// merged into the server's disable options
	Disable            []string `json:"disable,omitempty"`
	DisabledHeuristics []string `json:"disabled_heuristics,omitempty"`
}

type RejectionInfo struct {
	Heuristic string `json:"heuristic"`
	Kind      string `json:"kind,omitempty"`
	Reason    string `json:"reason"`
}

type ScheduleResponse struct {
	Status          *status.Response `json:"status"`
	FusionID        string           `json:"fusion_id,omitempty"`
	Heuristic       string           `json:"heuristic,omitempty"`
	Config          scheduler.Config `json:"config,omitempty"`
	Rejections      []RejectionInfo  `json:"rejections,omitempty"`
	CachedSelection bool             `json:"cached_selection"`
	Bindings        string           `json:"bindings,omitempty"`
}

type StoredRejection struct {
	FusionID  string    `json:"fusion_id"`
	Heuristic string    `json:"heuristic"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type ListRejectionsResponse struct {
	Status     *status.Response  `json:"status"`
	Rejections []StoredRejection `json:"rejections"`
}

type DecisionResponse struct {
	Status          *status.Response `json:"status"`
	FusionID        string           `json:"fusion_id"`
	FusionName      string           `json:"fusion_name"`
	Heuristic       string           `json:"heuristic"`
	Code            string           `json:"code"`
	Config          string           `json:"config,omitempty"`
	ErrorMsg        string           `json:"error_msg,omitempty"`
	CachedSelection bool             `json:"cached_selection"`
	CompileTimeUs   int64            `json:"compile_time_us"`
	RuntimeUs       int64            `json:"runtime_us"`
	Graph           string           `json:"graph"`
}

type ListHeuristicsResponse struct {
	Status             *status.Response `json:"status"`
	Heuristics         []string         `json:"heuristics"`
	DisabledOptions    []string         `json:"disabled_options"`
	DisabledHeuristics []string         `json:"disabled_heuristics"`
}

type Svc struct {
	app *App
}

func NewSvc(app *App) *Svc {
	return &Svc{app: app}
}

func toResponse(err error) *status.Response {
	if err == nil {
		return &status.Response{Code: int32(status.CodeOK), Name: status.CodeOK.String()}
	}
	code := status.CodeOf(err)
	return &status.Response{Code: int32(code), Name: code.String(), Message: err.Error()}
}

func feedResponse(c *gin.Context, response any, err error) {
	c.Set(prom.ResponseStatusKey, status.CodeOf(err).String())
	c.JSON(http.StatusOK, response)
}

func (svc *Svc) HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// options merges the request's switches into the server options.
func (svc *Svc) options(req *ScheduleRequest) (*scheduler.Options, error) {
	opts := svc.app.Registry.Options()
	for _, item := range req.Disable {
		parsed, err := scheduler.ParseDisableOptions(item)
		if err != nil {
			return nil, err
		}
		opts = opts.WithDisabled(parsed...)
	}
	for _, name := range req.DisabledHeuristics {
		ht, err := scheduler.ParseHeuristicType(name)
		if err != nil {
			return nil, err
		}
		opts = opts.WithDisabledHeuristics(ht)
	}
	return opts, nil
}

func (svc *Svc) ScheduleHandler(c *gin.Context) {
	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.String(http.StatusBadRequest, "ScheduleHandler: unable to parse request body: %v", err)
		return
	}
	resp, err := svc.schedule(c, &req)
	if err != nil {
		logrus.Warnf("ScheduleHandler: %v", err)
	}
	resp.Status = toResponse(err)
	feedResponse(c, resp, err)
}

func (svc *Svc) schedule(c *gin.Context, req *ScheduleRequest) (*ScheduleResponse, error) {
	resp := &ScheduleResponse{}
	f, err := req.Fusion.Build()
	if err != nil {
		return resp, status.Wrap(status.CodeInvalidArgument, err)
	}
	resp.FusionID = f.ID
	args, err := req.Args.RuntimeArgs(f)
	if err != nil {
		return resp, status.Wrap(status.CodeInvalidArgument, err)
	}
	opts, err := svc.options(req)
	if err != nil {
		return resp, status.Wrap(status.CodeInvalidArgument, err)
	}

	reporter := debugutil.Multi{debugutil.MetricsReporter{}}
	if svc.app.Store != nil {
		reporter = append(reporter, debugutil.NewStoreReporter(svc.app.Store, f.ID))
	}
	registry := svc.app.Registry.WithOptions(opts).WithReporter(reporter)

	d, err := registry.Schedule(c.Request.Context(), f, args)
	svc.saveDecision(f, d, err)
	if d != nil {
		resp.Heuristic = d.Heuristic.String()
		resp.Config = d.Config
		resp.CachedSelection = d.CachedSelection
		for _, rej := range d.Rejections {
			resp.Rejections = append(resp.Rejections, RejectionInfo{
				Heuristic: rej.Heuristic.String(),
				Kind:      rej.Kind.String(),
				Reason:    rej.Reason,
			})
		}
	}
	if err == nil {
		resp.Bindings = f.DumpBindings()
	}
	return resp, err
}

func (svc *Svc) saveDecision(f *fusion.Fusion, d *scheduler.Decision, schedErr error) {
	if svc.app.Store == nil {
		return
	}
	rec, err := storage.NewDecisionRecord(f, d, schedErr)
	if err == nil {
		err = svc.app.Store.SaveDecision(rec)
	}
	if err != nil {
		logrus.Warnf("failed to save decision of fusion %s: %v", f.ID, err)
	}
}

func (svc *Svc) ListRejectionsHandler(c *gin.Context) {
	resp := &ListRejectionsResponse{Rejections: []StoredRejection{}}
	if svc.app.Store == nil {
		err := status.New(status.CodeInternal, "storage is not configured")
		resp.Status = toResponse(err)
		feedResponse(c, resp, err)
		return
	}
	recs, err := svc.app.Store.ListRejections(c.Query("fusion_id"))
	if err != nil {
		err = status.Wrap(status.CodeInternal, err)
	}
	for _, rec := range recs {
		resp.Rejections = append(resp.Rejections, StoredRejection{
			FusionID:  rec.FusionID,
			Heuristic: rec.Heuristic,
			Reason:    rec.Reason,
			CreatedAt: rec.CreatedAt,
		})
	}
	resp.Status = toResponse(err)
	feedResponse(c, resp, err)
}

func (svc *Svc) GetDecisionHandler(c *gin.Context) {
	resp, err := svc.getDecision(c.Param("fusion_id"))
	resp.Status = toResponse(err)
	feedResponse(c, resp, err)
}

func (svc *Svc) getDecision(fusionID string) (*DecisionResponse, error) {
	resp := &DecisionResponse{FusionID: fusionID}
	if svc.app.Store == nil {
		return resp, status.New(status.CodeInternal, "storage is not configured")
	}
	rec, err := svc.app.Store.GetDecision(fusionID)
	if err != nil {
		if errors.Is(err, storage.ErrRecordNotFound) {
			return resp, status.New(status.CodeInvalidArgument, fmt.Sprintf("no decision stored for fusion %s", fusionID))
		}
		return resp, status.Wrap(status.CodeInternal, err)
	}
	graph, err := storage.DecompressDump(rec.GraphDump)
	if err != nil {
		return resp, status.Wrap(status.CodeInternal, err)
	}
	resp.FusionName = rec.FusionName
	resp.Heuristic = rec.Heuristic
	resp.Code = rec.Code
	resp.Config = rec.Config
	resp.ErrorMsg = rec.ErrorMsg
	resp.CachedSelection = rec.CachedSelection
	resp.CompileTimeUs = rec.CompileTimeUs
	resp.RuntimeUs = rec.RuntimeUs
	resp.Graph = graph
	return resp, nil
}

func (svc *Svc) ListHeuristicsHandler(c *gin.Context) {
	opts := svc.app.Registry.Options()
	resp := &ListHeuristicsResponse{
		Status:             toResponse(nil),
		Heuristics:         []string{},
		DisabledOptions:    []string{},
		DisabledHeuristics: []string{},
	}
	for _, ht := range svc.app.Registry.Heuristics() {
		resp.Heuristics = append(resp.Heuristics, ht.String())
	}
	for _, opt := range opts.DisabledOptions() {
		resp.DisabledOptions = append(resp.DisabledOptions, string(opt))
	}
	for _, ht := range opts.DisabledHeuristics() {
		resp.DisabledHeuristics = append(resp.DisabledHeuristics, ht.String())
	}
	feedResponse(c, resp, nil)
}
