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

package storage

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radishdb/radish/protocol"
)

func newTestStore(t *testing.T) *MemStore {
	t.Helper()
	return NewMemStore(Config{Shards: 4})
}

func process(t *testing.T, s *MemStore, cmd string, args ...string) any {
	t.Helper()
	reply, closed, err := s.ProcessCommand([]byte(cmd), toBytes(args)...)
	require.NoError(t, err)
	require.False(t, closed)
	return reply
}

func toBytes(args []string) [][]byte {
	bs := make([][]byte, 0, len(args))
	for _, arg := range args {
		bs = append(bs, []byte(arg))
	}
	return bs
}

func TestSetGetDel(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, int64(1), process(t, s, "SET", "key", "val"))
	assert.Equal(t, []byte("val"), process(t, s, "GET", "key"))
	assert.Equal(t, int64(1), process(t, s, "EXISTS", "key"))

	assert.Equal(t, int64(1), process(t, s, "DEL", "key"))
	assert.Nil(t, process(t, s, "GET", "key"))
	assert.Equal(t, int64(0), process(t, s, "EXISTS", "key"))
	assert.Equal(t, int64(0), process(t, s, "DEL", "key"))
}

func TestSetOverwrite(t *testing.T) {
	s := newTestStore(t)

	process(t, s, "SET", "key", "old")
	assert.Equal(t, int64(1), process(t, s, "SET", "key", "new"))
	assert.Equal(t, []byte("new"), process(t, s, "GET", "key"))
	assert.Equal(t, 1, s.Len())
}

func TestCommandCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	process(t, s, "set", "key", "val")
	assert.Equal(t, []byte("val"), process(t, s, "GeT", "key"))
}

func TestFlushDB(t *testing.T) {
	s := newTestStore(t)

	process(t, s, "SET", "k1", "v1")
	process(t, s, "SET", "k2", "v2")
	process(t, s, "SET", "k3", "v3")

	assert.Equal(t, int64(3), process(t, s, "FLUSHDB"))
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, int64(0), process(t, s, "FLUSHDB"))
}

func TestMSetMGet(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, []byte("OK"), process(t, s, "MSET", "k1", "v1", "k2", "v2"))
	assert.Equal(t,
		[]any{[]byte("v1"), []byte("v2")},
		process(t, s, "MGET", "k1", "k2"),
	)
	assert.Equal(t,
		[]any{[]byte("v2"), []byte("v1"), nil},
		process(t, s, "MGET", "k2", "k1", "nokey"),
	)
}

func TestMSetOddArity(t *testing.T) {
	s := newTestStore(t)

	// 校验先于写入 存储必须保持原样
	_, closed, err := s.ProcessCommand([]byte("MSET"), toBytes([]string{"k1", "v1", "k2"})...)
	assert.False(t, closed)
	assert.True(t, protocol.IsBadRequest(err))
	assert.Equal(t, 0, s.Len())
}

func TestExistsCountsDuplicates(t *testing.T) {
	s := newTestStore(t)

	process(t, s, "SET", "k", "v")
	assert.Equal(t, int64(3), process(t, s, "EXISTS", "k", "k", "k"))
	assert.Equal(t, int64(2), process(t, s, "EXISTS", "k", "nokey", "k"))
}

func TestStrlen(t *testing.T) {
	s := newTestStore(t)

	process(t, s, "SET", "k", "strlen of this is 23 ..")
	assert.Equal(t, int64(23), process(t, s, "STRLEN", "k"))
	assert.Equal(t, int64(0), process(t, s, "STRLEN", "absent"))
}

func TestPingEcho(t *testing.T) {
	s := newTestStore(t)

	assert.Equal(t, []byte("PONG"), process(t, s, "PING"))
	assert.Equal(t, []byte("hello?"), process(t, s, "PING", "hello?"))
	assert.Equal(t, []byte("hi"), process(t, s, "ECHO", "hi"))

	_, _, err := s.ProcessCommand([]byte("ECHO"))
	assert.True(t, protocol.IsBadRequest(err))
}

func TestQuit(t *testing.T) {
	s := newTestStore(t)

	reply, closed, err := s.ProcessCommand([]byte("QUIT"))
	assert.NoError(t, err)
	assert.True(t, closed)
	assert.Nil(t, reply)
}

func TestBadCommand(t *testing.T) {
	s := newTestStore(t)

	_, closed, err := s.ProcessCommand([]byte("BAD"))
	assert.False(t, closed)
	assert.True(t, protocol.IsBadRequest(err))
	assert.EqualError(t, err, "Bad command")
}

func TestArityErrors(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		cmd  string
		args []string
		want string
	}{
		{cmd: "GET", args: nil, want: "Wrong number of arguments for GET"},
		{cmd: "GET", args: []string{"a", "b"}, want: "Wrong number of arguments for GET"},
		{cmd: "SET", args: []string{"a"}, want: "Wrong number of arguments for SET"},
		{cmd: "DEL", args: nil, want: "Wrong number of arguments for DEL"},
		{cmd: "EXISTS", args: nil, want: "Wrong number of arguments for EXISTS"},
		{cmd: "FLUSHDB", args: []string{"x"}, want: "Wrong number of arguments for FLUSHDB"},
		{cmd: "ECHO", args: nil, want: "Wrong number of arguments for ECHO"},
		{cmd: "PING", args: []string{"a", "b"}, want: "Wrong number of arguments for PING"},
		{cmd: "MGET", args: nil, want: "Wrong number of arguments for MGET"},
		{cmd: "MSET", args: []string{"a"}, want: "Wrong number of arguments for MSET"},
		{cmd: "STRLEN", args: nil, want: "Wrong number of arguments for STRLEN"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			_, _, err := s.ProcessCommand([]byte(tt.cmd), toBytes(tt.args)...)
			assert.True(t, protocol.IsBadRequest(err))
			assert.EqualError(t, err, tt.want)
		})
	}
}

func TestConcurrentCommands(t *testing.T) {
	s := NewMemStore(Config{Shards: 8})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := []byte{byte('a' + n)}
			for j := 0; j < 1000; j++ {
				_, _, err := s.ProcessCommand([]byte("SET"), key, key)
				assert.NoError(t, err)
				_, _, err = s.ProcessCommand([]byte("EXISTS"), key, key)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 8, s.Len())
}
