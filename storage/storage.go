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

// Package storage 实现键值数据的内存存储以及命令分发
//
// 键和值均为未解释的字节串 每条命令相对于其他命令原子地执行
// 不承诺跨命令的原子性
package storage

import (
	"github.com/radishdb/radish/common"
)

// Storage 定义服务端命令处理的能力 自定义实现可以注入 Server
type Storage interface {
	// ProcessCommand 执行一条命令 cmd 大小写不敏感 args 为已解码的字节串
	//
	// close 为真时表示链接应当被关闭(QUIT) 此时不写回任何应答
	// 请求不合法时返回 BadRequestError 由调用方编码为 Error 帧
	ProcessCommand(cmd []byte, args ...[]byte) (reply any, close bool, err error)
}

// Config Storage 配置项
type Config struct {
	// Shards 分片数量 向上取整至 2 的幂 默认 32
	Shards int `mapstructure:"shards"`
}

const defaultShards = 32

// New 根据 Options 创建并返回默认的内存存储
func New(opts common.Options) (*MemStore, error) {
	var config Config
	if err := opts.Unpack(&config); err != nil {
		return nil, err
	}
	if config.Shards <= 0 {
		config.Shards = defaultShards
	}
	return NewMemStore(config), nil
}
