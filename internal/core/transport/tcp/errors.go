package tcp

import "errors"

var (
	// ErrConnClosed 连接已关闭
	ErrConnClosed = errors.New("tcp: connection closed")

	// ErrListenerClosed 监听器已关闭
	ErrListenerClosed = errors.New("tcp: listener closed")

	// ErrFrameTooLarge 帧超过上限
	ErrFrameTooLarge = errors.New("tcp: frame too large")

	// ErrUnknownFlag 帧标志位无法识别
	ErrUnknownFlag = errors.New("tcp: unknown frame flag")
)
