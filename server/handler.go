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

package server

import (
	"bytes"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/radishdb/radish/logger"
	"github.com/radishdb/radish/protocol"
	"github.com/radishdb/radish/storage"
)

// handler 持有一条已接受的链接 负责 读取-解码-分发-编码 循环
//
// 退出条件: QUIT 命令 / 对端关闭 / 空闲超时 / 任何链接级错误
type handler struct {
	id    string
	conn  net.Conn
	peer  string
	store storage.Storage

	dec *protocol.Decoder
	enc *protocol.Encoder

	closingDelay time.Duration
	readTimeout  time.Duration
}

func newHandler(conn net.Conn, store storage.Storage, config Config) *handler {
	return &handler{
		id:           uuid.New().String(),
		conn:         conn,
		peer:         conn.RemoteAddr().String(),
		store:        store,
		dec:          protocol.NewDecoder(conn),
		enc:          protocol.NewEncoder(conn),
		closingDelay: config.ClosingDelay,
		readTimeout:  config.ReadTimeout,
	}
}

// run 驱动请求循环 返回时链接已经关闭
func (h *handler) run() {
	defer h.conn.Close()
	logger.Debugf("handler (%s): connection from %s", h.id, h.peer)

	for {
		// 空闲关闭通过读截止时间实现 截止时间覆盖下一帧的完整读取
		// 整帧解码完成后截止时间即被清除 等价于定时器在分发前被取消
		deadline := h.readTimeout
		if h.closingDelay > 0 {
			deadline = h.closingDelay
		}
		_ = h.conn.SetReadDeadline(time.Now().Add(deadline))

		req, err := h.dec.Decode()
		if err != nil {
			if protocol.IsBadRequest(err) {
				// 请求不合法但链接仍然可用 写回 Error 帧后继续
				if h.reply(protocol.Error(err.Error())) {
					continue
				}
			}
			logger.Debugf("handler (%s): connection from %s closed: %v", h.id, h.peer, err)
			return
		}
		_ = h.conn.SetReadDeadline(time.Time{})

		cmd, args, err := splitRequest(req)
		if err != nil {
			if !h.reply(protocol.Error(err.Error())) {
				return
			}
			continue
		}

		reply, closed, err := h.store.ProcessCommand(cmd, args...)
		if closed {
			logger.Debugf("handler (%s): connection from %s quit", h.id, h.peer)
			return
		}
		if err != nil {
			if !protocol.IsBadRequest(err) {
				logger.Errorf("handler (%s): process command failed: %v", h.id, err)
				return
			}
			if !h.reply(protocol.Error(err.Error())) {
				return
			}
			continue
		}

		commandsTotal.WithLabelValues(string(bytes.ToUpper(cmd))).Inc()
		if err := h.enc.Encode(reply); err != nil {
			logger.Errorf("handler (%s): write reply to %s failed: %v", h.id, h.peer, err)
			return
		}
	}
}

// reply 写回 Error 帧 返回链接是否仍然可用
func (h *handler) reply(e protocol.Error) bool {
	badRequestsTotal.Inc()
	if err := h.enc.Encode(e); err != nil {
		logger.Errorf("handler (%s): write error frame to %s failed: %v", h.id, h.peer, err)
		return false
	}
	return true
}

// splitRequest 校验请求形态 必须为 BulkStrings 数组且首元素为命令
func splitRequest(req any) ([]byte, [][]byte, error) {
	items, ok := req.([]any)
	if !ok || len(items) == 0 {
		return nil, nil, protocol.BadRequestf("Bad request format")
	}

	fields := make([][]byte, 0, len(items))
	for _, item := range items {
		b, ok := item.([]byte)
		if !ok {
			return nil, nil, protocol.BadRequestf("Bad request format")
		}
		fields = append(fields, b)
	}
	return fields[0], fields[1:], nil
}
