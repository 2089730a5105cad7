package config

import "fmt"

// 配置缺失或非法，会在发起任何请求之前终止运行
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}
