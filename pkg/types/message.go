package types

import "fmt"

// MessageType 共识消息类型
//
// 传输层不解释消息类型，仅用于日志与指标标签。
type MessageType uint8

const (
	MsgUnknown MessageType = iota
	MsgAppend
	MsgAppendResponse
	MsgHeartbeat
	MsgHeartbeatResponse
	MsgVote
	MsgVoteResponse
	MsgSnapshot
)

var messageTypeNames = [...]string{
	MsgUnknown:           "unknown",
	MsgAppend:            "append",
	MsgAppendResponse:    "append_resp",
	MsgHeartbeat:         "heartbeat",
	MsgHeartbeatResponse: "heartbeat_resp",
	MsgVote:              "vote",
	MsgVoteResponse:      "vote_resp",
	MsgSnapshot:          "snapshot",
}

// String 返回消息类型名称
func (t MessageType) String() string {
	if int(t) < len(messageTypeNames) {
		return messageTypeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// RaftMessage 一条共识消息
type RaftMessage struct {
	// RegionID 所属 Region（raft 组）
	RegionID uint64

	// From 发送方 Store
	From StoreID

	// To 目标 Store
	To StoreID

	// Type 消息类型
	Type MessageType

	// Term 发送时的任期
	Term uint64

	// Payload 不透明负载
	Payload []byte
}

// String 返回便于日志的摘要
func (m *RaftMessage) String() string {
	return fmt.Sprintf("raft{region=%d %d->%d %s term=%d len=%d}",
		m.RegionID, m.From, m.To, m.Type, m.Term, len(m.Payload))
}
