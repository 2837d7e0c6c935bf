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
	"bytes"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/radishdb/radish/protocol"
)

type commandFunc func(args [][]byte) (any, error)

// shard 单个分片 持有独立的读写锁
type shard struct {
	mut sync.RWMutex
	m   map[string][]byte
}

// MemStore 分片化的内存键值存储
//
// 键经过 xxhash 映射到固定的分片 单键命令仅锁定所属分片
// 涉及多个键的命令(MSET / MGET / EXISTS / FLUSHDB)按分片序号顺序
// 锁定全部分片 保证每条命令相对于其他命令原子执行 同时避免死锁
type MemStore struct {
	shards   []*shard
	mask     uint64
	commands map[string]commandFunc
}

// NewMemStore 创建并返回 MemStore 实例
func NewMemStore(config Config) *MemStore {
	if config.Shards <= 0 {
		config.Shards = defaultShards
	}
	n := ceilPowOfTwo(config.Shards)
	shards := make([]*shard, n)
	for i := 0; i < n; i++ {
		shards[i] = &shard{m: make(map[string][]byte)}
	}

	s := &MemStore{
		shards: shards,
		mask:   uint64(n - 1),
	}
	s.commands = map[string]commandFunc{
		"GET":     s.get,
		"SET":     s.set,
		"DEL":     s.del,
		"FLUSHDB": s.flushDB,
		"EXISTS":  s.exists,
		"ECHO":    s.echo,
		"PING":    s.ping,
		"MGET":    s.mget,
		"MSET":    s.mset,
		"STRLEN":  s.strlen,
	}
	return s
}

func ceilPowOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

// ProcessCommand 实现 Storage 接口
func (s *MemStore) ProcessCommand(cmd []byte, args ...[]byte) (any, bool, error) {
	name := string(bytes.ToUpper(cmd))
	if name == "QUIT" {
		return nil, true, nil
	}

	fn, ok := s.commands[name]
	if !ok {
		return nil, false, protocol.BadRequestf("Bad command")
	}
	reply, err := fn(args)
	return reply, false, err
}

func (s *MemStore) shardOf(key []byte) *shard {
	return s.shards[xxhash.Sum64(key)&s.mask]
}

// Len 返回当前键总数 供统计接口使用 不属于线上命令
func (s *MemStore) Len() int {
	var total int
	for _, sd := range s.shards {
		sd.mut.RLock()
		total += len(sd.m)
		sd.mut.RUnlock()
	}
	return total
}

func (s *MemStore) get(args [][]byte) (any, error) {
	if len(args) != 1 {
		return nil, protocol.BadRequestf("Wrong number of arguments for GET")
	}
	sd := s.shardOf(args[0])
	sd.mut.RLock()
	defer sd.mut.RUnlock()

	val, ok := sd.m[string(args[0])]
	if !ok {
		return nil, nil
	}
	return val, nil
}

func (s *MemStore) set(args [][]byte) (any, error) {
	if len(args) != 2 {
		return nil, protocol.BadRequestf("Wrong number of arguments for SET")
	}
	sd := s.shardOf(args[0])
	sd.mut.Lock()
	defer sd.mut.Unlock()

	sd.m[string(args[0])] = args[1]
	return int64(1), nil
}

func (s *MemStore) del(args [][]byte) (any, error) {
	if len(args) != 1 {
		return nil, protocol.BadRequestf("Wrong number of arguments for DEL")
	}
	sd := s.shardOf(args[0])
	sd.mut.Lock()
	defer sd.mut.Unlock()

	if _, ok := sd.m[string(args[0])]; !ok {
		return int64(0), nil
	}
	delete(sd.m, string(args[0]))
	return int64(1), nil
}

func (s *MemStore) flushDB(args [][]byte) (any, error) {
	if len(args) != 0 {
		return nil, protocol.BadRequestf("Wrong number of arguments for FLUSHDB")
	}

	for _, sd := range s.shards {
		sd.mut.Lock()
	}
	defer func() {
		for _, sd := range s.shards {
			sd.mut.Unlock()
		}
	}()

	var total int64
	for _, sd := range s.shards {
		total += int64(len(sd.m))
		clear(sd.m)
	}
	return total, nil
}

func (s *MemStore) exists(args [][]byte) (any, error) {
	if len(args) == 0 {
		return nil, protocol.BadRequestf("Wrong number of arguments for EXISTS")
	}

	for _, sd := range s.shards {
		sd.mut.RLock()
	}
	defer func() {
		for _, sd := range s.shards {
			sd.mut.RUnlock()
		}
	}()

	// 重复的键按出现次数累计
	var count int64
	for _, key := range args {
		if _, ok := s.shardOf(key).m[string(key)]; ok {
			count++
		}
	}
	return count, nil
}

func (s *MemStore) echo(args [][]byte) (any, error) {
	if len(args) != 1 {
		return nil, protocol.BadRequestf("Wrong number of arguments for ECHO")
	}
	return args[0], nil
}

func (s *MemStore) ping(args [][]byte) (any, error) {
	switch len(args) {
	case 0:
		return []byte("PONG"), nil
	case 1:
		return args[0], nil
	}
	return nil, protocol.BadRequestf("Wrong number of arguments for PING")
}

func (s *MemStore) mset(args [][]byte) (any, error) {
	// 先整体校验参数 再写入 保证奇数参数时存储不发生任何变化
	if len(args) == 0 || len(args)%2 != 0 {
		return nil, protocol.BadRequestf("Wrong number of arguments for MSET")
	}

	for _, sd := range s.shards {
		sd.mut.Lock()
	}
	defer func() {
		for _, sd := range s.shards {
			sd.mut.Unlock()
		}
	}()

	for i := 0; i < len(args); i += 2 {
		s.shardOf(args[i]).m[string(args[i])] = args[i+1]
	}
	return []byte("OK"), nil
}

func (s *MemStore) mget(args [][]byte) (any, error) {
	if len(args) == 0 {
		return nil, protocol.BadRequestf("Wrong number of arguments for MGET")
	}

	for _, sd := range s.shards {
		sd.mut.RLock()
	}
	defer func() {
		for _, sd := range s.shards {
			sd.mut.RUnlock()
		}
	}()

	// 结果顺序与键顺序一致 缺失的键以 nil 占位
	values := make([]any, 0, len(args))
	for _, key := range args {
		val, ok := s.shardOf(key).m[string(key)]
		if !ok {
			values = append(values, nil)
			continue
		}
		values = append(values, val)
	}
	return values, nil
}

func (s *MemStore) strlen(args [][]byte) (any, error) {
	if len(args) != 1 {
		return nil, protocol.BadRequestf("Wrong number of arguments for STRLEN")
	}
	sd := s.shardOf(args[0])
	sd.mut.RLock()
	defer sd.mut.RUnlock()

	return int64(len(sd.m[string(args[0])])), nil
}
