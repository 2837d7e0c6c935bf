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

// Package protocol 实现 RESP (REdis Serialization Protocol) 的流式编解码
//
// # RESP 是一个支持多种数据类型的序列化协议 数据的类型依赖于首字节
//
// - 单行字符串 (SimpleStrings): 首字节是 "+"
// - 错误 (Errors): 首字节是 "-"
// - 整型 (Integers): 首字节是 ":"
// - 多行字符串 (BulkStrings): 首字节是 "$"
// - 数组 (Arrays): 首字节是 "*"
//
// # RESP 在 Redis 中作为一个请求-响应协议以如下方式使用
//
// - 客户端以 BulkStrings 类型数组的方式发送命令给服务器端
// - 服务器端根据命令的具体实现返回某一种 RESP 数据类型
//
// +-----------------+                      +-----------------+
// |     Client      |                      |      Server     |
// +-----------------+                      +-----------------+
// | *2\r\n          |  ----------------->  |                 |
// | $3\r\n          |                      |                 |
// | GET\r\n         |                      |                 |
// | $4\r\n          |                      |                 |
// | key1\r\n        |                      |                 |
// |                 |  <-----------------  | $6\r\n          |
// |                 |                      | value1\r\n      |
// +-----------------+                      +-----------------+
//
// 编解码器被客户端和服务端对称地使用 宿主类型映射如下
//
// - []byte <-> BulkStrings / nil <-> "$-1\r\n"
// - int64 <-> Integers
// - string <-> SimpleStrings
// - Error <-> Errors
// - []any <-> Arrays
package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error RESP 错误帧的宿主表示 可直接编码为 "-<message>\r\n"
type Error string

func (e Error) Error() string { return string(e) }

// BadRequestError 表示对端发送了语法或语义不合法的请求
//
// 服务端捕获后编码为 Error 帧写回 链接本身保持可用
type BadRequestError string

func (e BadRequestError) Error() string { return string(e) }

// BadRequestf 构造 BadRequestError
func BadRequestf(format string, args ...any) error {
	return BadRequestError(fmt.Sprintf(format, args...))
}

// IsBadRequest 判断 err 是否为请求错误
func IsBadRequest(err error) bool {
	var e BadRequestError
	return errors.As(err, &e)
}

// ProtocolError 表示编码器收到了无法表达为 RESP 的宿主值 属于调用方编程错误
type ProtocolError string

func (e ProtocolError) Error() string { return string(e) }

// IsProtocolError 判断 err 是否为编码错误
func IsProtocolError(err error) bool {
	var e ProtocolError
	return errors.As(err, &e)
}

// ConnError 标记链接已经不可用 读超时 / 非预期 EOF / 对端关闭均会归为此类
//
// 出现后链接必须关闭 不可恢复
type ConnError struct {
	Msg string
	Err error
}

func (e *ConnError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *ConnError) Unwrap() error { return e.Err }

// NewConnError 构造 ConnError err 允许为空
func NewConnError(msg string, err error) *ConnError {
	return &ConnError{Msg: msg, Err: err}
}

// IsConnError 判断 err 是否为链接错误
func IsConnError(err error) bool {
	var e *ConnError
	return errors.As(err, &e)
}
