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

// Package controller 负责装配并管理各组件的生命周期
package controller

import (
	"runtime/debug"
	"time"

	"github.com/radishdb/radish/admin"
	"github.com/radishdb/radish/common"
	"github.com/radishdb/radish/confengine"
	"github.com/radishdb/radish/logger"
	"github.com/radishdb/radish/server"
	"github.com/radishdb/radish/storage"
)

// Controller 装配 logger / storage / server / admin 并驱动启停
type Controller struct {
	buildInfo common.BuildInfo

	store *storage.MemStore
	svr   *server.Server
	adm   *admin.Server
	done  chan struct{}
}

func setupLogger(conf *confengine.Config) error {
	var opts logger.Options
	if err := conf.UnpackChild("logger", &opts); err != nil {
		return err
	}
	logger.Configure(opts)
	return nil
}

// recoverf 组件 goroutine 的兜底 panic 不允许传导至进程
func recoverf(component string) {
	if r := recover(); r != nil {
		logger.Errorf("%s: recovered from panic: %v\n%s", component, r, debug.Stack())
	}
}

// New 创建并返回 Controller 实例
func New(conf *confengine.Config) (*Controller, error) {
	if err := setupLogger(conf); err != nil {
		return nil, err
	}

	storageOpts := make(map[string]any)
	if err := conf.UnpackChild("storage", &storageOpts); err != nil {
		return nil, err
	}
	store, err := storage.New(storageOpts)
	if err != nil {
		return nil, err
	}

	svr, err := server.New(conf, store)
	if err != nil {
		return nil, err
	}

	ctr := &Controller{
		buildInfo: common.GetBuildInfo(),
		store:     store,
		svr:       svr,
		done:      make(chan struct{}),
	}

	adm, err := admin.New(conf, ctr.stats)
	if err != nil {
		return nil, err
	}
	ctr.adm = adm
	return ctr, nil
}

func (c *Controller) stats() admin.Stats {
	return admin.Stats{
		Version:           c.buildInfo.Version,
		GitHash:           c.buildInfo.GitHash,
		Uptime:            time.Now().Unix() - common.Started(),
		ActiveConnections: c.svr.ActiveConnections(),
		Keys:              c.store.Len(),
	}
}

// Start 启动各组件 服务端监听失败时立即返回错误
func (c *Controller) Start() error {
	buildInfo.WithLabelValues(c.buildInfo.Version, c.buildInfo.GitHash, c.buildInfo.Time).Set(1)

	if err := c.svr.Listen(); err != nil {
		return err
	}
	go func() {
		defer recoverf("server")
		if err := c.svr.Serve(); err != nil {
			logger.Errorf("server exited: %v", err)
		}
	}()

	if c.adm != nil {
		go func() {
			defer recoverf("admin server")
			if err := c.adm.ListenAndServe(); err != nil {
				logger.Errorf("admin server exited: %v", err)
			}
		}()
	}

	go c.updateMetrics()
	return nil
}

// Reload 重新应用可热更的配置 目前仅日志配置支持热更
func (c *Controller) Reload(conf *confengine.Config) error {
	return setupLogger(conf)
}

// Stop 依次停止各组件
func (c *Controller) Stop() {
	close(c.done)
	if err := c.svr.Stop(); err != nil {
		logger.Errorf("stop server failed: %v", err)
	}
	if c.adm != nil {
		if err := c.adm.Stop(); err != nil {
			logger.Errorf("stop admin server failed: %v", err)
		}
	}
}

func (c *Controller) updateMetrics() {
	defer recoverf("metrics loop")

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			uptime.Set(float64(time.Now().Unix() - common.Started()))
			storeKeys.Set(float64(c.store.Len()))

		case <-c.done:
			return
		}
	}
}
