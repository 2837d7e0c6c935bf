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

// Package server 实现 radish 的 TCP 服务端
//
// 每条接受的链接由独立的 handler goroutine 驱动 命令经由注入的 Storage 执行
package server

import (
	"net"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/radishdb/radish/confengine"
	"github.com/radishdb/radish/logger"
	"github.com/radishdb/radish/storage"
)

// Server 接受 TCP 链接并为每条链接派生 handler
type Server struct {
	config Config
	store  storage.Storage

	ln       net.Listener
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mut      sync.Mutex
	handlers map[*handler]struct{}
}

// New 创建并返回 Server 实例 store 为空时使用默认内存存储
func New(conf *confengine.Config, store storage.Storage) (*Server, error) {
	var config Config
	if err := conf.UnpackChild("server", &config); err != nil {
		return nil, err
	}
	return NewServer(config, store)
}

// NewServer 以给定配置创建 Server 实例
func NewServer(config Config, store storage.Storage) (*Server, error) {
	config.setup()
	if store == nil {
		var err error
		store, err = storage.New(nil)
		if err != nil {
			return nil, err
		}
	}

	return &Server{
		config:   config,
		store:    store,
		done:     make(chan struct{}),
		handlers: make(map[*handler]struct{}),
	}, nil
}

// Listen 绑定监听地址
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.config.Address())
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.config.Address())
	}
	s.ln = ln
	logger.Infof("serving radish on %s", ln.Addr())
	return nil
}

// Addr 返回实际监听地址 仅在 Listen 之后有效
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve 驱动 accept 循环 直到 Stop 被调用或监听器出错
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			return errors.Wrap(err, "accept")
		}

		connectionsTotal.Inc()
		activeConnections.Inc()

		h := newHandler(conn, s.store, s.config)
		s.track(h)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				s.untrack(h)
				activeConnections.Dec()
			}()
			// handler 内的 panic 只断送本条链接 不允许传导至进程
			defer func() {
				if r := recover(); r != nil {
					handlerPanicsTotal.Inc()
					logger.Errorf("handler (%s): recovered from panic: %v\n%s", h.id, r, debug.Stack())
				}
			}()
			h.run()
		}()
	}
}

// ListenAndServe 绑定监听地址并驱动 accept 循环
func (s *Server) ListenAndServe() error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve()
}

// Stop 停止接受新链接 等待存量链接退出 超过宽限期后强制关闭 幂等
func (s *Server) Stop() error {
	var errs *multierror.Error

	s.stopOnce.Do(func() {
		close(s.done)
		if s.ln != nil {
			errs = multierror.Append(errs, s.ln.Close())
		}

		if !s.waitWithin(s.config.GracePeriod) {
			logger.Warnf("grace period exceeded, force closing %d connections", s.ActiveConnections())
			s.mut.Lock()
			for h := range s.handlers {
				errs = multierror.Append(errs, h.conn.Close())
			}
			s.mut.Unlock()
			s.wg.Wait()
		}
	})
	return errs.ErrorOrNil()
}

// ActiveConnections 返回当前活跃的链接数量
func (s *Server) ActiveConnections() int {
	s.mut.Lock()
	defer s.mut.Unlock()
	return len(s.handlers)
}

func (s *Server) track(h *handler) {
	s.mut.Lock()
	defer s.mut.Unlock()
	s.handlers[h] = struct{}{}
}

func (s *Server) untrack(h *handler) {
	s.mut.Lock()
	defer s.mut.Unlock()
	delete(s.handlers, h)
}

func (s *Server) waitWithin(d time.Duration) bool {
	ch := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(ch)
	}()

	select {
	case <-ch:
		return true
	case <-time.After(d):
		return false
	}
}
