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

package common

import "time"

const (
	// App 应用程序名称
	App = "radish"

	// DefaultHost 服务默认监听地址
	DefaultHost = "127.0.0.1"

	// DefaultPort 服务默认监听端口
	DefaultPort = 7272

	// ConnReadTimeout 读取单个 RESP 帧的默认超时 自开始等待该帧起计时
	//
	// 超时未收到任何字节则认为对端已经不可用 链接会被关闭
	ConnReadTimeout = 300 * time.Second

	// ConnIdleTimeout 客户端链接的默认空闲超时
	//
	// 超过此时间未执行任何命令的链接会被主动关闭 下次使用时重新建连
	ConnIdleTimeout = 300 * time.Second
)
