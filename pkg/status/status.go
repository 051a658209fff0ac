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

package status

import (
	"errors"
	"fmt"
)

var _ error = &Status{}

type Status struct {
	code Code
	err  error
}

func (s *Status) Error() string {
	return fmt.Sprintf("Error: code=%v, msg=\"%v\"", int32(s.code), s.err)
}

func (s *Status) Unwrap() error {
	return s.err
}

func (s *Status) Code() Code {
	return s.code
}

func (s *Status) Message() string {
	return s.err.Error()
}

// Response is the wire form of a status
type Response struct {
	Code    int32  `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

func (s *Status) ToResponse() *Response {
	return &Response{
		Code:    int32(s.code),
		Name:    s.code.String(),
		Message: s.Message(),
	}
}

func NewStatusFromResponse(resp *Response) *Status {
	if resp == nil {
		return nil
	}
	if _, ok := Code_name[resp.Code]; !ok {
		return New(CodeInternal, resp.Message)
	}
	return New(Code(resp.Code), resp.Message)
}

func New(code Code, msg string) *Status {
	return &Status{code: code, err: errors.New(msg)}
}

func Wrap(code Code, err error) *Status {
	return &Status{code: code, err: err}
}

// CodeOf returns the code of the first status in err's chain, CodeOK for nil
// and CodeInternal for errors carrying no status.
func CodeOf(err error) Code {
	if err == nil {
		return CodeOK
	}
	var s *Status
	if errors.As(err, &s) {
		return s.code
	}
	return CodeInternal
}
