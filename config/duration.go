package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Duration 配置文件中的时长
//
// 写作 "500ms"、"2s"、"10m" 等字符串；整数按纳秒解释。
// 序列化时总是输出字符串，例如 {"flush_timeout": "2s"}。
type Duration time.Duration

// UnmarshalJSON 解析字符串或纳秒整数
func (d *Duration) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: bad duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}

	var ns int64
	if err := json.Unmarshal(data, &ns); err != nil {
		return fmt.Errorf("config: duration %s is neither a string like \"2s\" nor integer nanoseconds", data)
	}
	*d = Duration(ns)
	return nil
}

// MarshalJSON 输出 time.Duration 的字符串形式
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// Duration 转为 time.Duration
func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }
