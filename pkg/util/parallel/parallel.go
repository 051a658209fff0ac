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

package parallel

import "errors"

// ParallelRun calls fn on every input in its own goroutine. Results keep
// the order of inputs; errors are joined.
func ParallelRun[resultT any, t any](inputs []t, fn func(input t) (resultT, error)) ([]resultT, error) {
	type errStruct struct {
		index  int
		result resultT
		err    error
	}
	retCh := make(chan errStruct, len(inputs))
	for i, input := range inputs {
		go func(i int, input t) {
			res, resError := fn(input)
			retCh <- errStruct{i, res, resError}
		}(i, input)
	}
	var err error
	results := make([]resultT, len(inputs))
	for range inputs {
		retData := <-retCh
		results[retData.index] = retData.result
		err = errors.Join(err, retData.err)
	}
	return results, err
}
