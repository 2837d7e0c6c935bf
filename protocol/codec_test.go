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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func encodeToString(t *testing.T, v any) string {
	var buf bytes.Buffer
	err := NewEncoder(&buf).Encode(v)
	assert.NoError(t, err)
	return buf.String()
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{
			name:  "BulkStrings",
			input: []byte("foobar"),
			want:  "$6\r\nfoobar\r\n",
		},
		{
			name:  "Empty BulkStrings",
			input: []byte(""),
			want:  "$0\r\n\r\n",
		},
		{
			name:  "Null",
			input: nil,
			want:  "$-1\r\n",
		},
		{
			name:  "Integers",
			input: 1134,
			want:  ":1134\r\n",
		},
		{
			name:  "Negative Integers",
			input: int64(-42),
			want:  ":-42\r\n",
		},
		{
			name:  "SimpleStrings",
			input: "PONG",
			want:  "+PONG\r\n",
		},
		{
			name:  "Errors",
			input: Error("Bad command"),
			want:  "-Bad command\r\n",
		},
		{
			name:  "Array",
			input: []any{[]byte("foo"), []byte("bar")},
			want:  "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
		},
		{
			name:  "Array with Null",
			input: []any{[]byte("foo"), nil, []byte("bar")},
			want:  "*3\r\n$3\r\nfoo\r\n$-1\r\n$3\r\nbar\r\n",
		},
		{
			name:  "Nested Array",
			input: []any{[]any{int64(1), int64(2)}, []byte("x")},
			want:  "*2\r\n*2\r\n:1\r\n:2\r\n$1\r\nx\r\n",
		},
		{
			name:  "Bulk Array",
			input: [][]byte{[]byte("GET"), []byte("key1")},
			want:  "*2\r\n$3\r\nGET\r\n$4\r\nkey1\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, encodeToString(t, tt.input))
		})
	}
}

func TestEncodeUnsupported(t *testing.T) {
	var buf bytes.Buffer
	err := NewEncoder(&buf).Encode(3.14)
	assert.True(t, IsProtocolError(err))
	assert.Zero(t, buf.Len())

	err = NewEncoder(&buf).Encode("with\r\nbreaks")
	assert.True(t, IsProtocolError(err))
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  any
	}{
		{
			name:  "SimpleStrings",
			input: "+OK\r\n",
			want:  "OK",
		},
		{
			name:  "Errors",
			input: "-Error message\r\n",
			want:  Error("Error message"),
		},
		{
			name:  "Integers",
			input: ":1000\r\n",
			want:  int64(1000),
		},
		{
			name:  "BulkStrings",
			input: "$6\r\nfoobar\r\n",
			want:  []byte("foobar"),
		},
		{
			name:  "Empty BulkStrings",
			input: "$0\r\n\r\n",
			want:  []byte(""),
		},
		{
			name:  "Null BulkStrings",
			input: "$-1\r\n",
			want:  nil,
		},
		{
			name:  "Binary safe BulkStrings",
			input: "$7\r\na\r\nb\x00cd\r\n",
			want:  []byte("a\r\nb\x00cd"),
		},
		{
			name:  "Array",
			input: "*2\r\n$3\r\nfoo\r\n$3\r\nbar\r\n",
			want:  []any{[]byte("foo"), []byte("bar")},
		},
		{
			name:  "Empty Array",
			input: "*0\r\n",
			want:  []any{},
		},
		{
			name:  "Null Array",
			input: "*-1\r\n",
			want:  []any{nil},
		},
		{
			name:  "Nested Array",
			input: "*2\r\n*2\r\n:1\r\n:2\r\n$1\r\nx\r\n",
			want:  []any{[]any{int64(1), int64(2)}, []byte("x")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := NewDecoder(strings.NewReader(tt.input)).Decode()
			assert.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestDecodeBadRequest(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Bad first byte",
			input: "!oops\r\n",
		},
		{
			name:  "Bad array length",
			input: "*-3\r\n",
		},
		{
			name:  "Bad bulk string length",
			input: "$-2\r\n",
		},
		{
			name:  "Bad integer",
			input: ":12a4\r\n",
		},
		{
			name:  "Bad line terminator",
			input: "+OK\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tt.input)).Decode()
			assert.True(t, IsBadRequest(err))
		})
	}
}

func TestDecodeConnError(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Empty stream",
			input: "",
		},
		{
			name:  "Truncated BulkStrings",
			input: "$6\r\nfoo",
		},
		{
			name:  "Truncated Array",
			input: "*2\r\n$3\r\nfoo\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDecoder(strings.NewReader(tt.input)).Decode()
			assert.True(t, IsConnError(err))
		})
	}
}

func TestCodecRoundTrip(t *testing.T) {
	values := []any{
		[]byte("foobar"),
		[]byte(""),
		int64(0),
		int64(-9223372036854775808),
		int64(9223372036854775807),
		Error("Wrong number of arguments for SET"),
		nil,
		[]any{},
		[]any{nil},
		[]any{[]byte("a"), int64(1), nil, []any{[]byte("nested"), Error("e")}},
	}

	for _, v := range values {
		var buf bytes.Buffer
		assert.NoError(t, NewEncoder(&buf).Encode(v))
		first := buf.String()

		got, err := NewDecoder(bytes.NewReader(buf.Bytes())).Decode()
		assert.NoError(t, err)
		assert.Equal(t, v, got)

		// 编码是确定性的 相同输入必然产生相同字节序列
		var again bytes.Buffer
		assert.NoError(t, NewEncoder(&again).Encode(v))
		assert.Equal(t, first, again.String())
	}
}

func TestDecodeStream(t *testing.T) {
	// 同一条流上的多个帧依次解码 互不影响
	d := NewDecoder(strings.NewReader("+PONG\r\n:1\r\n$2\r\nhi\r\n"))

	v, err := d.Decode()
	assert.NoError(t, err)
	assert.Equal(t, "PONG", v)

	v, err = d.Decode()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = d.Decode()
	assert.NoError(t, err)
	assert.Equal(t, []byte("hi"), v)
}
