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

// Package logger 提供进程级日志 由 zap 驱动
//
// 进程启动即可用 默认输出到 stdout 应用配置后按 stdout 选项输出到 stdout 或带轮转的本地文件
// 日志级别由 AtomicLevel 承载 热更级别无需重建 logger
package logger

import (
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options 日志配置 零值字段回落到 radish 的默认值
type Options struct {
	Stdout     bool   `config:"stdout"`
	Level      string `config:"level"`
	Filename   string `config:"filename"`
	MaxSize    int    `config:"maxSize"` // unit: MB
	MaxAge     int    `config:"maxAge"`  // unit: days
	MaxBackups int    `config:"maxBackups"`
}

func (o *Options) normalize() {
	if o.Filename == "" {
		o.Filename = "radish.log"
	}
	if o.MaxSize <= 0 {
		o.MaxSize = 100
	}
	if o.MaxAge <= 0 {
		o.MaxAge = 7
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 10
	}
}

var (
	level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	std   atomic.Pointer[zap.SugaredLogger]
)

func init() {
	std.Store(build(Options{Stdout: true}))
}

func build(opt Options) *zap.SugaredLogger {
	opt.normalize()

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var w zapcore.WriteSyncer
	if opt.Stdout {
		w = zapcore.AddSync(os.Stdout)
	} else {
		if err := os.MkdirAll(filepath.Dir(opt.Filename), os.ModePerm); err != nil {
			panic(err)
		}
		w = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opt.Filename,
			MaxSize:    opt.MaxSize,
			MaxBackups: opt.MaxBackups,
			MaxAge:     opt.MaxAge,
			LocalTime:  true,
		})
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), w, level)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Configure 应用日志配置 可重复调用 SIGHUP reload 时会再次进入
func Configure(opt Options) {
	SetLevel(opt.Level)
	std.Store(build(opt))
}

// SetLevel 动态调整全局日志级别 未识别的取值回落为 debug
func SetLevel(s string) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "info":
		level.SetLevel(zapcore.InfoLevel)
	case "warn":
		level.SetLevel(zapcore.WarnLevel)
	case "error":
		level.SetLevel(zapcore.ErrorLevel)
	default:
		level.SetLevel(zapcore.DebugLevel)
	}
}

func Debugf(template string, args ...any) {
	std.Load().Debugf(template, args...)
}

func Infof(template string, args ...any) {
	std.Load().Infof(template, args...)
}

func Warnf(template string, args ...any) {
	std.Load().Warnf(template, args...)
}

func Errorf(template string, args ...any) {
	std.Load().Errorf(template, args...)
}
