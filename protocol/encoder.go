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

package protocol

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/valyala/bytebufferpool"
)

var charCRLF = []byte("\r\n")

// Encoder 将宿主值编码为 RESP 帧
//
// 整帧先在 bytebufferpool 缓冲中拼装 再一次性写入 w
// 当 w 为 net.Conn 时单次 Write 即完成刷盘 无需额外的 Flush 环节
type Encoder struct {
	w io.Writer
}

// NewEncoder 创建并返回 Encoder 实例
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode 编码一个宿主值并写出完整的帧
//
// 无法表达为 RESP 的宿主类型返回 ProtocolError 此时不会有任何字节写出
func (e *Encoder) Encode(v any) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := appendValue(buf, v); err != nil {
		return err
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

// EncodeCommand 将命令参数编码为 BulkStrings 数组帧 即 RESP 请求的固定形态
func (e *Encoder) EncodeCommand(args ...[]byte) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendArrayHeader(buf, len(args))
	for _, arg := range args {
		appendBulkStrings(buf, arg)
	}
	_, err := e.w.Write(buf.Bytes())
	return err
}

func appendValue(buf *bytebufferpool.ByteBuffer, v any) error {
	switch data := v.(type) {
	case nil:
		buf.B = append(buf.B, '$', '-', '1', '\r', '\n')

	case []byte:
		appendBulkStrings(buf, data)

	case string:
		// SimpleStrings 为单行格式 正文中不允许出现 CR/LF
		if bytes.ContainsAny([]byte(data), "\r\n") {
			return ProtocolError("simple string contains CR/LF")
		}
		buf.B = append(buf.B, '+')
		buf.B = append(buf.B, data...)
		buf.B = append(buf.B, charCRLF...)

	case Error:
		buf.B = append(buf.B, '-')
		buf.B = append(buf.B, data...)
		buf.B = append(buf.B, charCRLF...)

	case int:
		appendInteger(buf, int64(data))
	case int32:
		appendInteger(buf, int64(data))
	case int64:
		appendInteger(buf, data)

	case []any:
		appendArrayHeader(buf, len(data))
		for _, item := range data {
			if err := appendValue(buf, item); err != nil {
				return err
			}
		}

	case [][]byte:
		appendArrayHeader(buf, len(data))
		for _, item := range data {
			appendBulkStrings(buf, item)
		}

	default:
		return ProtocolError(fmt.Sprintf("unrecognized type %T", v))
	}
	return nil
}

func appendBulkStrings(buf *bytebufferpool.ByteBuffer, data []byte) {
	if data == nil {
		buf.B = append(buf.B, '$', '-', '1', '\r', '\n')
		return
	}
	buf.B = append(buf.B, '$')
	buf.B = strconv.AppendInt(buf.B, int64(len(data)), 10)
	buf.B = append(buf.B, charCRLF...)
	buf.B = append(buf.B, data...)
	buf.B = append(buf.B, charCRLF...)
}

func appendInteger(buf *bytebufferpool.ByteBuffer, i int64) {
	buf.B = append(buf.B, ':')
	buf.B = strconv.AppendInt(buf.B, i, 10)
	buf.B = append(buf.B, charCRLF...)
}

func appendArrayHeader(buf *bytebufferpool.ByteBuffer, n int) {
	buf.B = append(buf.B, '*')
	buf.B = strconv.AppendInt(buf.B, int64(n), 10)
	buf.B = append(buf.B, charCRLF...)
}
