// Copyright 2025 The radish Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package client

import (
	"github.com/pkg/errors"
)

// ClientError 客户端侧传输失败的统一包装
//
// Execute / Acquire / Release / Close 的传输失败统一包装为此类错误
// 服务端返回的 Error 帧以及编码错误原样上抛 不做包装
// Acquire 因 ctx 结束而放弃等待时返回 ctx.Err()
type ClientError struct {
	Msg string
	Err error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ClientError) Unwrap() error { return e.Err }

func newClientError(msg string, err error) *ClientError {
	return &ClientError{Msg: msg, Err: err}
}

// IsClientError 判断 err 是否为客户端错误
func IsClientError(err error) bool {
	var e *ClientError
	return errors.As(err, &e)
}
