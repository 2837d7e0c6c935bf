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
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
)

// Pool 固定容量的 LIFO 连接池
//
// 构造时即分配 MaxSize 个未建连的 Connection 全部压入可用栈
// Init 后栈顶的 MinSize 个立即建连 其余在首次使用时惰性建连
// 选择 LIFO 是因为最近使用过的链接最可能仍然处于活跃状态
// (TCP 窗口已爬升 空闲定时器未触发) FIFO 会摊平负载并增加重连抖动
type Pool struct {
	opts Options

	mut    sync.Mutex
	cond   *sync.Cond
	conns  []*Connection
	stack  []*Connection
	inited bool
	closed bool
}

// NewPool 创建并返回 Pool 实例 此时所有成员均未建连
func NewPool(opts Options) *Pool {
	opts.setup()

	p := &Pool{opts: opts}
	p.cond = sync.NewCond(&p.mut)
	for i := 0; i < opts.MaxSize; i++ {
		con := newPoolConnection(opts, p)
		p.conns = append(p.conns, con)
		p.stack = append(p.stack, con)
	}
	return p
}

// Init 并发建立栈顶的 MinSize 条链接 幂等
func (p *Pool) Init() error {
	p.mut.Lock()
	defer p.mut.Unlock()

	if p.closed {
		return newClientError("Pool is closed", nil)
	}
	if p.inited {
		return nil
	}

	// 栈顶的链接会被最先借出 预热它们
	eager := p.stack[len(p.stack)-p.opts.MinSize:]

	var wg sync.WaitGroup
	errs := make([]error, len(eager))
	for i, con := range eager {
		wg.Add(1)
		go func(i int, con *Connection) {
			defer wg.Done()
			errs[i] = con.Connect()
		}(i, con)
	}
	wg.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		merr = multierror.Append(merr, err)
	}
	if err := merr.ErrorOrNil(); err != nil {
		return newClientError("init pool", err)
	}

	p.inited = true
	return nil
}

// Acquire 借出栈顶的链接 栈空时阻塞 直到有链接归还或 ctx 取消
func (p *Pool) Acquire(ctx context.Context) (*Connection, error) {
	stop := context.AfterFunc(ctx, func() {
		p.mut.Lock()
		p.cond.Broadcast()
		p.mut.Unlock()
	})
	defer stop()

	p.mut.Lock()
	defer p.mut.Unlock()

	if err := p.checkStateLocked(); err != nil {
		return nil, err
	}

	for len(p.stack) == 0 {
		p.cond.Wait()
		if err := p.checkStateLocked(); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	con := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	con.setAcquired(true)
	return con, nil
}

// Release 归还链接至栈顶 不会阻塞(栈容量即池容量)
func (p *Pool) Release(con *Connection) error {
	p.mut.Lock()
	defer p.mut.Unlock()

	if err := p.checkStateLocked(); err != nil {
		return err
	}

	p.stack = append(p.stack, con)
	con.setAcquired(false)
	// Broadcast 而非 Signal 被取消的等待方可能吞掉单次唤醒
	p.cond.Broadcast()
	return nil
}

// Close 并发关闭所有成员链接并标记池为关闭 幂等
//
// 允许在借用方仍持有链接时调用 借用方随后的任何使用均得到 ClientError
func (p *Pool) Close() error {
	p.mut.Lock()
	if !p.inited {
		p.mut.Unlock()
		return newClientError("Pool is not inited", nil)
	}
	if p.closed {
		p.mut.Unlock()
		return nil
	}
	p.closed = true
	conns := make([]*Connection, len(p.conns))
	copy(conns, p.conns)
	p.cond.Broadcast()
	p.mut.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, len(conns))
	for i, con := range conns {
		wg.Add(1)
		go func(i int, con *Connection) {
			defer wg.Done()
			errs[i] = con.Close()
		}(i, con)
	}
	wg.Wait()

	var merr *multierror.Error
	for _, err := range errs {
		merr = multierror.Append(merr, err)
	}
	return merr.ErrorOrNil()
}

// Closed 返回池是否已关闭
func (p *Pool) Closed() bool {
	p.mut.Lock()
	defer p.mut.Unlock()
	return p.closed
}

// Available 返回当前可立即借出的链接数量
func (p *Pool) Available() int {
	p.mut.Lock()
	defer p.mut.Unlock()
	return len(p.stack)
}

func (p *Pool) checkStateLocked() error {
	if !p.inited {
		return newClientError("Pool is not inited", nil)
	}
	if p.closed {
		return newClientError("Pool is closed", nil)
	}
	return nil
}
