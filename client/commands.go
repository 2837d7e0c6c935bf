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
	"fmt"
)

// 本文件为 Execute 之上的薄封装 参数遵循 Execute 的归一规则

// Get 读取 key 的值 键不存在时返回 nil
func (c *Connection) Get(key any) ([]byte, error) {
	reply, err := c.Execute("GET", key)
	if err != nil {
		return nil, err
	}
	return asBytes(reply)
}

// Set 无条件写入 key
func (c *Connection) Set(key, value any) (int64, error) {
	reply, err := c.Execute("SET", key, value)
	if err != nil {
		return 0, err
	}
	return asInt(reply)
}

// Del 删除 key 返回删除的数量(0 或 1)
func (c *Connection) Del(key any) (int64, error) {
	reply, err := c.Execute("DEL", key)
	if err != nil {
		return 0, err
	}
	return asInt(reply)
}

// Exists 返回存在的键数量 重复的键按出现次数累计
func (c *Connection) Exists(keys ...any) (int64, error) {
	reply, err := c.Execute(append([]any{"EXISTS"}, keys...)...)
	if err != nil {
		return 0, err
	}
	return asInt(reply)
}

// FlushDB 清空存储 返回清空前的键数量
func (c *Connection) FlushDB() (int64, error) {
	reply, err := c.Execute("FLUSHDB")
	if err != nil {
		return 0, err
	}
	return asInt(reply)
}

// Echo 原样返回 msg
func (c *Connection) Echo(msg any) ([]byte, error) {
	reply, err := c.Execute("ECHO", msg)
	if err != nil {
		return nil, err
	}
	return asBytes(reply)
}

// Ping 心跳探测 无参数时返回 PONG 带参数时原样返回
func (c *Connection) Ping(msg ...any) ([]byte, error) {
	reply, err := c.Execute(append([]any{"PING"}, msg...)...)
	if err != nil {
		return nil, err
	}
	return asBytes(reply)
}

// MSet 批量写入 参数为 key1, val1, key2, val2 ... 奇数个参数直接拒绝
func (c *Connection) MSet(pairs ...any) error {
	if len(pairs) == 0 || len(pairs)%2 != 0 {
		return newClientError("incorrect args number, should be even (key: value)", nil)
	}
	_, err := c.Execute(append([]any{"MSET"}, pairs...)...)
	return err
}

// MGet 批量读取 结果与键顺序一致 缺失的键为 nil
func (c *Connection) MGet(keys ...any) ([][]byte, error) {
	reply, err := c.Execute(append([]any{"MGET"}, keys...)...)
	if err != nil {
		return nil, err
	}

	items, ok := reply.([]any)
	if !ok {
		return nil, newClientError(fmt.Sprintf("unexpected reply type %T", reply), nil)
	}
	values := make([][]byte, 0, len(items))
	for _, item := range items {
		b, err := asBytes(item)
		if err != nil {
			return nil, err
		}
		values = append(values, b)
	}
	return values, nil
}

// StrLen 返回 key 对应值的字节长度 键不存在时为 0
func (c *Connection) StrLen(key any) (int64, error) {
	reply, err := c.Execute("STRLEN", key)
	if err != nil {
		return 0, err
	}
	return asInt(reply)
}

// Quit 通知对端关闭链接 本端随即断开
func (c *Connection) Quit() error {
	_, err := c.Execute("QUIT")
	return err
}

func asBytes(reply any) ([]byte, error) {
	switch v := reply.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, newClientError(fmt.Sprintf("unexpected reply type %T", reply), nil)
}

func asInt(reply any) (int64, error) {
	v, ok := reply.(int64)
	if !ok {
		return 0, newClientError(fmt.Sprintf("unexpected reply type %T", reply), nil)
	}
	return v, nil
}
