package config

import (
	"errors"
	"os"
)

// DefaultPath 是未指定 --config 时尝试加载的配置文件
const DefaultPath = "sniffer.yaml"

// Default 返回全部使用默认值的配置
func Default() *Config {
	return &Config{}
}

// Load 加载配置。path 为空时尝试 DefaultPath，文件不存在则使用默认配置
func Load(path string) (*Manager, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return NewStaticManager(Default()), nil
		}
	}
	return NewManager(path)
}
