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

package main

import (
	"os"
	"path"
	"strings"
	"text/template"

	"github.com/secretflow/fuser/pkg/fusion"
	"github.com/secretflow/fuser/pkg/scheduler"
)

type OpDocFiller struct {
	Version    int
	AllOpDef   []*fusion.OpDef
	Heuristics []string
	Disable    []scheduler.DisableOption
}

func check(e error) {
	if e != nil {
		panic(e)
	}
}

func AliasesToString(aliases []string) string {
	if len(aliases) == 0 {
		return "-"
	}
	return "`" + strings.Join(aliases, "`, `") + "`"
}

func AttributesToString(attributes []string) string {
	if len(attributes) == 0 {
		return "-"
	}
	return strings.Join(attributes, ", ")
}

func main() {
	filler := OpDocFiller{
		AllOpDef: fusion.AllOpDefs(),
		Version:  fusion.OpKindVersion(),
		Disable:  []scheduler.DisableOption{scheduler.DisableMatmulExprEval, scheduler.DisableHeuristicCache},
	}
	for _, h := range scheduler.DefaultHeuristics() {
		filler.Heuristics = append(filler.Heuristics, h.Type().String())
	}
	fileName := "cmd/docgen/fusion_ops.md.tmpl"
	tmpl, err := template.New(path.Base(fileName)).Funcs(
		template.FuncMap{
			"aliasesToString":    AliasesToString,
			"attributesToString": AttributesToString,
		}).ParseFiles(fileName)
	check(err)

	check(os.MkdirAll("docs/reference", 0755))
	f, err := os.Create("docs/reference/fusion_ops.md")
	check(err)
	defer f.Close()
	err = tmpl.Execute(f, filler)
	check(err)
}
