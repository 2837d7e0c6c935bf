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
	"net"
	"strconv"
	"time"

	"github.com/radishdb/radish/common"
)

type Config struct {
	Host string `config:"host"`
	Port int    `config:"port"`

	// ClosingDelay 链接空闲多久后由服务端主动关闭 0 表示不启用
	ClosingDelay time.Duration `config:"closingDelay"`

	// ReadTimeout 读取单个请求帧的超时 自开始等待该帧起计时
	ReadTimeout time.Duration `config:"readTimeout"`

	// GracePeriod 停机时等待存量链接退出的宽限期 超时后强制关闭
	GracePeriod time.Duration `config:"gracePeriod"`
}

func (c *Config) setup() {
	if c.Host == "" {
		c.Host = common.DefaultHost
	}
	// 负值表示交由系统分配随机端口
	if c.Port < 0 {
		c.Port = 0
	} else if c.Port == 0 {
		c.Port = common.DefaultPort
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = common.ConnReadTimeout
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 10 * time.Second
	}
}

// Address 返回 host:port 格式的监听地址
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
