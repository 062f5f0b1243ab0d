package connmgr

// State 连接状态
type State int32

const (
	// StateConnecting 已创建，尚未拨号成功
	StateConnecting State = iota

	// StateOpen 底层连接可用
	StateOpen

	// StateBroken 已断开，终态
	StateBroken
)

// String 返回状态名称
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateBroken:
		return "broken"
	default:
		return "unknown"
	}
}
