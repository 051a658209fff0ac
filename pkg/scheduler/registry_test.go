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
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/status"
)

type RegistryTestSuit struct {
	suite.Suite
	ctrl     *gomock.Controller
	first    *MockHeuristic
	second   *MockHeuristic
	third    *MockHeuristic
	reporter *MockReporter
	registry *Registry
	f        *fusion.Fusion
	args     *RuntimeArgs
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuit))
}

func (s *RegistryTestSuit) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.first = s.newMockHeuristic(HeuristicExprEval)
	s.second = s.newMockHeuristic(HeuristicReduction)
	s.third = s.newMockHeuristic(HeuristicPointWise)
	s.reporter = NewMockReporter(s.ctrl)
	s.registry = NewRegistry(nil, s.reporter, s.first, s.second, s.third)
	s.f = buildSingleExpr(s.T(), fusion.OpUnary, false)
	s.args = contiguousArgs(s.f, []int64{4, 8})
}

func (s *RegistryTestSuit) newMockHeuristic(ht HeuristicType) *MockHeuristic {
	m := NewMockHeuristic(s.ctrl)
	m.EXPECT().Type().Return(ht).AnyTimes()
	return m
}

// expectBindAll makes m derive an empty config and bind every output.
func (s *RegistryTestSuit) expectBindAll(m *MockHeuristic, times int) {
	m.EXPECT().CanScheduleRuntime(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(times)
	m.EXPECT().ComputeConfig(gomock.Any(), gomock.Any()).Return(&NoOpConfig{}, nil).Times(times)
	m.EXPECT().Schedule(gomock.Any(), gomock.Any()).DoAndReturn(func(f *fusion.Fusion, _ Config) error {
		for _, out := range f.Outputs() {
			if err := f.AliasOutputToInput(out, nil, fusion.AllocationEvaluate); err != nil {
				return err
			}
		}
		return nil
	}).Times(times)
}

func (s *RegistryTestSuit) TestHeuristicsOrder() {
	s.Equal([]HeuristicType{HeuristicExprEval, HeuristicReduction, HeuristicPointWise}, s.registry.Heuristics())
}

func (s *RegistryTestSuit) TestFirstAcceptWins() {
	gomock.InOrder(
		s.first.EXPECT().CanScheduleCompileTime(s.f, gomock.Any()).Return(&Rejection{Kind: StructuralMismatch, Reason: "nope"}),
		s.second.EXPECT().CanScheduleCompileTime(s.f, gomock.Any()).Return(nil),
	)
	s.reporter.EXPECT().RecordRejection(HeuristicExprEval, "nope")
	s.expectBindAll(s.second, 1)

	d, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.NoError(err)
	s.Equal(HeuristicReduction, d.Heuristic)
	s.Equal(s.f.ID, d.FusionID)
	s.False(d.CachedSelection)
	s.Equal([]Rejection{{Heuristic: HeuristicExprEval, Kind: StructuralMismatch, Reason: "nope"}}, d.Rejections)
	s.Equal(&NoOpConfig{}, d.Config)
	s.Empty(s.f.UnboundOutputs())
}

func (s *RegistryTestSuit) TestNoBacktrackingOnRuntimeReject() {
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(&Rejection{Reason: "nope"})
	s.second.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil)
	s.second.EXPECT().CanScheduleRuntime(s.f, s.args, gomock.Any()).Return(&Rejection{Kind: RuntimeMismatch, Reason: "too small"})
	s.reporter.EXPECT().RecordRejection(HeuristicExprEval, "nope")
	s.reporter.EXPECT().RecordRejection(HeuristicReduction, "too small")

	d, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.Error(err)
	s.Equal(status.CodeRuntimeRejected, status.CodeOf(err))
	s.Contains(err.Error(), "too small")
	s.Equal(HeuristicReduction, d.Heuristic)
	s.Nil(d.Config)
	s.Len(d.Rejections, 2)
	s.Equal(RuntimeMismatch, d.Rejections[1].Kind)
}

func (s *RegistryTestSuit) TestAllReject() {
	for i, m := range []*MockHeuristic{s.first, s.second, s.third} {
		m.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(&Rejection{Kind: RejectKind(i), Reason: "nope"})
	}
	s.reporter.EXPECT().RecordRejection(gomock.Any(), "nope").Times(3)

	d, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.Equal(status.CodeNoApplicableHeuristic, status.CodeOf(err))
	s.Equal(HeuristicNone, d.Heuristic)
	s.Equal([]HeuristicType{HeuristicExprEval, HeuristicReduction, HeuristicPointWise}, rejectedBy(d.Rejections))
	s.Equal(PolicyDisabled, d.Rejections[1].Kind)
}

func (s *RegistryTestSuit) TestCacheReplaysRejections() {
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(&Rejection{Reason: "nope"}).Times(1)
	s.second.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil).Times(1)
	s.reporter.EXPECT().RecordRejection(HeuristicExprEval, "nope").Times(3)
	s.expectBindAll(s.second, 2)

	d, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.NoError(err)
	s.False(d.CachedSelection)
	s.Len(d.Rejections, 1)

	// a structurally equal fusion hits the cache
	g := buildSingleExpr(s.T(), fusion.OpUnary, false)
	s.NotEqual(s.f.ID, g.ID)
	d, err = s.registry.Schedule(context.Background(), g, contiguousArgs(g, []int64{2, 2}))
	s.NoError(err)
	s.True(d.CachedSelection)
	s.Equal(HeuristicReduction, d.Heuristic)
	s.Equal([]Rejection{{Heuristic: HeuristicExprEval, Reason: "nope"}}, d.Rejections)

	// replayed rejections are copies
	d.Rejections[0].Reason = "changed"
	sel, err := s.registry.SelectHeuristic(context.Background(), g)
	s.NoError(err)
	s.True(sel.Cached)
	s.Equal("nope", sel.Rejections[0].Reason)
}

func (s *RegistryTestSuit) TestCacheDisabled() {
	reg := s.registry.WithOptions(NewOptions().WithDisabled(DisableHeuristicCache))
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	s.expectBindAll(s.first, 2)

	for i := 0; i < 2; i++ {
		d, err := reg.Schedule(context.Background(), s.f, s.args)
		s.NoError(err)
		s.False(d.CachedSelection)
	}
}

func (s *RegistryTestSuit) TestCacheKeyedByOptions() {
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	sel, err := s.registry.SelectHeuristic(context.Background(), s.f)
	s.NoError(err)
	s.False(sel.Cached)

	sel, err = s.registry.WithOptions(NewOptions().WithDisabled(DisableMatmulExprEval)).SelectHeuristic(context.Background(), s.f)
	s.NoError(err)
	s.False(sel.Cached)

	sel, err = s.registry.SelectHeuristic(context.Background(), s.f)
	s.NoError(err)
	s.True(sel.Cached)
	s.Equal(HeuristicExprEval, sel.Heuristic)
}

func (s *RegistryTestSuit) TestDisabledHeuristicSkipped() {
	reg := s.registry.WithOptions(NewOptions().WithDisabledHeuristics(HeuristicExprEval))
	s.reporter.EXPECT().RecordRejection(HeuristicExprEval, "heuristic expr_eval is disabled")
	s.second.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil)

	sel, err := reg.SelectHeuristic(context.Background(), s.f)
	s.NoError(err)
	s.Equal(HeuristicReduction, sel.Heuristic)
	s.Equal(PolicyDisabled, sel.Rejections[0].Kind)
}

func (s *RegistryTestSuit) TestWithReporter() {
	rep := &recordingReporter{}
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(&Rejection{Reason: "nope"})
	s.second.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil)

	_, err := s.registry.WithReporter(rep).SelectHeuristic(context.Background(), s.f)
	s.NoError(err)
	s.Equal([]HeuristicType{HeuristicExprEval}, rep.heuristics())
}

func (s *RegistryTestSuit) TestInvalidArgs() {
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	for _, args := range []*RuntimeArgs{
		nil,
		{},
		contiguousArgs(s.f, []int64{4}),
		contiguousArgs(s.f, []int64{4, -1}),
		{Inputs: []TensorArg{{Shape: []int64{4, 8}, Strides: []int64{8, 1}, DType: fusion.DTypeHalf, Alignment: 16}}},
		{Inputs: []TensorArg{{Shape: []int64{4, 8}, Strides: []int64{8, 1}, DType: fusion.DTypeFloat, Alignment: 3}}},
		{Inputs: []TensorArg{{Shape: []int64{4, 8}, Strides: []int64{1}, DType: fusion.DTypeFloat, Alignment: 16}}},
	} {
		_, err := s.registry.Schedule(context.Background(), s.f, args)
		s.Equal(status.CodeInvalidArgument, status.CodeOf(err), "%v", args)
	}
}

func (s *RegistryTestSuit) TestComputeConfigError() {
	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil)
	s.first.EXPECT().CanScheduleRuntime(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.first.EXPECT().ComputeConfig(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	_, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.Equal(status.CodeInternal, status.CodeOf(err))
	s.ErrorIs(err, context.DeadlineExceeded)
}

func (s *RegistryTestSuit) TestScheduleMustBindEveryOutput() {
	// stale bindings from an earlier run do not count
	s.NoError(s.f.AliasOutputToInput(s.f.Outputs()[0], nil, fusion.AllocationEvaluate))

	s.first.EXPECT().CanScheduleCompileTime(gomock.Any(), gomock.Any()).Return(nil)
	s.first.EXPECT().CanScheduleRuntime(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	s.first.EXPECT().ComputeConfig(gomock.Any(), gomock.Any()).Return(&ExprEvalConfig{}, nil)
	s.first.EXPECT().Schedule(s.f, &ExprEvalConfig{}).Return(nil)

	_, err := s.registry.Schedule(context.Background(), s.f, s.args)
	s.Equal(status.CodeInternal, status.CodeOf(err))
	s.Contains(err.Error(), "unbound")
}

func (s *RegistryTestSuit) TestScheduleWithUnregistered() {
	_, err := s.registry.ScheduleWith(context.Background(), s.f, HeuristicTranspose, s.args)
	s.Equal(status.CodeInternal, status.CodeOf(err))
}

func (s *RegistryTestSuit) TestDuplicateTypePanics() {
	s.Panics(func() {
		NewRegistry(nil, nil, s.first, s.newMockHeuristic(HeuristicExprEval))
	})
}

func TestDefaultRegistry(t *testing.T) {
	r := require.New(t)
	reg := NewRegistry(nil, nil)
	r.Equal([]HeuristicType{HeuristicExprEval, HeuristicNoOp, HeuristicReduction, HeuristicTranspose, HeuristicPointWise}, reg.Heuristics())
	r.NotNil(reg.Options())
	r.False(reg.Options().IsOptionDisabled(DisableMatmulExprEval))
}

func TestScheduleAll(t *testing.T) {
	r := require.New(t)
	reg := NewRegistry(nil, &recordingReporter{})

	attention := buildSingleExpr(t, fusion.OpSdpaFwd, false)
	reduction := buildReduction(t, fusion.DTypeFloat, []int64{1})
	biasAdd := buildBiasAdd(t)
	matmul := buildSingleExpr(t, fusion.OpMatmul, false)
	qkv := []int64{1, 2, 16, 8}
	jobs := []Job{
		{Fusion: attention, Args: contiguousArgs(attention, qkv, qkv, qkv)},
		{Fusion: reduction, Args: contiguousArgs(reduction, []int64{16, 32})},
		{Fusion: biasAdd, Args: contiguousArgs(biasAdd, []int64{16, 32}, []int64{32})},
		// one argument short
		{Fusion: matmul, Args: contiguousArgs(matmul, []int64{4, 4})},
	}
	decisions, err := reg.ScheduleAll(context.Background(), jobs)
	r.Error(err)
	r.Contains(err.Error(), "fusion MatmulOp")
	r.Equal(status.CodeInvalidArgument, status.CodeOf(err))
	r.Len(decisions, 4)
	r.Equal(HeuristicExprEval, decisions[0].Heuristic)
	r.Equal(HeuristicReduction, decisions[1].Heuristic)
	r.Equal(HeuristicPointWise, decisions[2].Heuristic)
	r.Equal(HeuristicExprEval, decisions[3].Heuristic)
	for i, job := range jobs[:3] {
		r.Equal(job.Fusion.ID, decisions[i].FusionID)
		r.Empty(job.Fusion.UnboundOutputs())
	}
}
