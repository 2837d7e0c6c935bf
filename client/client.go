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

// Package client 实现 radish 服务的客户端 包含单链接与固定容量的 LIFO 连接池
package client

import (
	"bytes"
	"net"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/radishdb/radish/common"
	"github.com/radishdb/radish/logger"
	"github.com/radishdb/radish/protocol"
)

// Options 客户端配置项
type Options struct {
	Host string `config:"host"`
	Port int    `config:"port"`

	// MinSize 池初始化时立即建连的数量
	MinSize int `config:"minSize"`
	// MaxSize 池容量 也是并发借用的上限
	MaxSize int `config:"maxSize"`

	// InactiveTime 空闲多久后主动关闭链接 0 表示使用默认值
	InactiveTime time.Duration `config:"inactiveTime"`
	// ConnectTimeout 建连超时
	ConnectTimeout time.Duration `config:"connectTimeout"`
	// ReadTimeout 单个应答帧的读超时
	ReadTimeout time.Duration `config:"readTimeout"`

	// NoReconnect 关闭瞬时错误后的透明重连
	NoReconnect bool `config:"noReconnect"`
}

func (o *Options) setup() {
	if o.Host == "" {
		o.Host = common.DefaultHost
	}
	if o.Port <= 0 {
		o.Port = common.DefaultPort
	}
	if o.MinSize <= 0 {
		o.MinSize = 10
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 10
	}
	if o.MinSize > o.MaxSize {
		o.MinSize = o.MaxSize
	}
	if o.InactiveTime <= 0 {
		o.InactiveTime = common.ConnIdleTimeout
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 10 * time.Second
	}
	if o.ReadTimeout <= 0 {
		o.ReadTimeout = common.ConnReadTimeout
	}
}

func (o Options) address() string {
	return net.JoinHostPort(o.Host, strconv.Itoa(o.Port))
}

var quitCommand = []byte("QUIT")

// Connection 持有一条到服务端的出站链接
//
// 链接惰性建立 首次 Execute 或显式 Connect 时打开
// 空闲超过 InactiveTime 后主动关闭 下次使用时重新建连
// pool 为弱回引 仅用于 Release 和失败传播 Connection 不拥有 Pool
type Connection struct {
	opts Options
	pool *Pool

	mut       sync.Mutex
	conn      net.Conn
	dec       *protocol.Decoder
	enc       *protocol.Encoder
	connected bool
	acquired  bool
	idle      *time.Timer
	poisoned  bool
}

// NewConnection 创建独立(不属于任何池)的 Connection 实例
func NewConnection(opts Options) *Connection {
	opts.setup()
	return &Connection{opts: opts}
}

func newPoolConnection(opts Options, pool *Pool) *Connection {
	return &Connection{opts: opts, pool: pool}
}

// Connect 显式建连 已连接时为空操作
func (c *Connection) Connect() error {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.connectLocked()
}

func (c *Connection) connectLocked() error {
	if c.connected {
		return nil
	}

	conn, err := net.DialTimeout("tcp", c.opts.address(), c.opts.ConnectTimeout)
	if err != nil {
		return newClientError("connect "+c.opts.address(), err)
	}
	c.conn = conn
	c.dec = protocol.NewDecoder(conn)
	c.enc = protocol.NewEncoder(conn)
	c.connected = true
	return nil
}

// Execute 执行一条命令并返回解码后的应答
//
// 参数按如下规则归一为字节串 []byte 原样透传 string 转为字节
// 有符号整数转为十进制 ASCII 其余类型返回 ClientError
// 服务端的 Error 帧作为 error 返回(protocol.Error)
func (c *Connection) Execute(args ...any) (any, error) {
	fields, err := coerceArgs(args)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, newClientError("empty command", nil)
	}
	if c.pool != nil && c.pool.Closed() {
		return nil, newClientError("Pool is closed", nil)
	}

	c.mut.Lock()
	reply, err := c.executeLocked(fields, c.retries())
	poisoned := c.poisoned
	c.poisoned = false
	c.mut.Unlock()

	// 码流层链接错误被视为对端整体不可用 关闭所属的池 让其余借用方快速失败
	if poisoned && c.pool != nil {
		if cerr := c.pool.Close(); cerr != nil && !IsClientError(cerr) {
			logger.Errorf("close pool after connection error failed: %v", cerr)
		}
	}
	return reply, err
}

func (c *Connection) retries() int {
	if c.opts.NoReconnect {
		return 0
	}
	return 1
}

func (c *Connection) executeLocked(fields [][]byte, retries int) (any, error) {
	c.stopIdleLocked()

	if !c.connected {
		if err := c.connectLocked(); err != nil {
			return nil, err
		}
	}

	if err := c.enc.EncodeCommand(fields...); err != nil {
		// 写失败通常意味着对端已经断开 允许一次透明重连
		if retries > 0 && isTransient(err) {
			logger.Debugf("write to %s failed, reconnecting: %v", c.opts.address(), err)
			c.dropLocked()
			return c.executeLocked(fields, retries-1)
		}
		c.dropLocked()
		return nil, newClientError("write command", err)
	}

	// QUIT 不产生应答 写出后即关闭本端
	if bytes.EqualFold(fields[0], quitCommand) {
		c.dropLocked()
		return nil, nil
	}

	_ = c.conn.SetReadDeadline(time.Now().Add(c.opts.ReadTimeout))
	reply, err := c.dec.Decode()
	if err != nil {
		if retries > 0 && isTransient(err) {
			logger.Debugf("read from %s failed, reconnecting: %v", c.opts.address(), err)
			c.dropLocked()
			return c.executeLocked(fields, retries-1)
		}
		if protocol.IsConnError(err) {
			c.dropLocked()
			c.poisoned = true
			return nil, newClientError("connection error", err)
		}
		// 应答不符合 RESP 语法 原样上抛
		return nil, err
	}

	c.armIdleLocked()
	if e, ok := reply.(protocol.Error); ok {
		return nil, e
	}
	return reply, nil
}

// Close 取消空闲定时 发送 QUIT 并断开 如被借用则归还所属的池
func (c *Connection) Close() error {
	c.mut.Lock()
	c.stopIdleLocked()
	if c.connected {
		c.quitLocked()
	}
	pool, acquired := c.pool, c.acquired
	c.mut.Unlock()

	if pool != nil && acquired {
		if err := pool.Release(c); err != nil {
			logger.Debugf("release on close skipped: %v", err)
		}
	}
	return nil
}

// quitLocked 尽力而为地通知对端 任何错误都不阻碍本端关闭
func (c *Connection) quitLocked() {
	if err := c.enc.EncodeCommand(quitCommand); err != nil {
		logger.Debugf("send QUIT to %s failed: %v", c.opts.address(), err)
	}
	c.dropLocked()
}

func (c *Connection) dropLocked() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn = nil
	c.dec = nil
	c.enc = nil
	c.connected = false
}

func (c *Connection) armIdleLocked() {
	if c.opts.InactiveTime <= 0 {
		return
	}
	var t *time.Timer
	t = time.AfterFunc(c.opts.InactiveTime, func() { c.closeIdle(t) })
	c.idle = t
}

func (c *Connection) stopIdleLocked() {
	if c.idle != nil {
		c.idle.Stop()
		c.idle = nil
	}
}

// closeIdle 空闲定时触发 如期间有新调用抢先取消则为空操作
func (c *Connection) closeIdle(t *time.Timer) {
	c.mut.Lock()
	defer c.mut.Unlock()
	if c.idle != t || !c.connected {
		return
	}
	logger.Debugf("closing idle connection to %s", c.opts.address())
	c.idle = nil
	c.quitLocked()
}

func (c *Connection) setAcquired(b bool) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.acquired = b
}

func (c *Connection) isConnected() bool {
	c.mut.Lock()
	defer c.mut.Unlock()
	return c.connected
}

// coerceArgs 将调用方参数归一为字节串
func coerceArgs(args []any) ([][]byte, error) {
	fields := make([][]byte, 0, len(args))
	for _, arg := range args {
		switch v := arg.(type) {
		case []byte:
			fields = append(fields, v)
		case string:
			fields = append(fields, []byte(v))
		case int, int8, int16, int32, int64:
			fields = append(fields, strconv.AppendInt(nil, cast.ToInt64(v), 10))
		default:
			return nil, newClientError("incorrect execute argument type", nil)
		}
	}
	return fields, nil
}

// isTransient 判断是否为可透明重连的瞬时链路错误
func isTransient(err error) bool {
	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, net.ErrClosed)
}
