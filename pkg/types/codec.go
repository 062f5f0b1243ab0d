package types

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// 字段编号（与 raft_serverpb 风格保持一致）
const (
	fieldRegionID protowire.Number = 1
	fieldFrom     protowire.Number = 2
	fieldTo       protowire.Number = 3
	fieldType     protowire.Number = 4
	fieldTerm     protowire.Number = 5
	fieldPayload  protowire.Number = 6

	fieldBatchMessages protowire.Number = 1
)

// Size 返回编码后的字节数
func (m *RaftMessage) Size() int {
	n := 0
	if m.RegionID != 0 {
		n += protowire.SizeTag(fieldRegionID) + protowire.SizeVarint(m.RegionID)
	}
	if m.From != 0 {
		n += protowire.SizeTag(fieldFrom) + protowire.SizeVarint(uint64(m.From))
	}
	if m.To != 0 {
		n += protowire.SizeTag(fieldTo) + protowire.SizeVarint(uint64(m.To))
	}
	if m.Type != MsgUnknown {
		n += protowire.SizeTag(fieldType) + protowire.SizeVarint(uint64(m.Type))
	}
	if m.Term != 0 {
		n += protowire.SizeTag(fieldTerm) + protowire.SizeVarint(m.Term)
	}
	if len(m.Payload) > 0 {
		n += protowire.SizeTag(fieldPayload) + protowire.SizeBytes(len(m.Payload))
	}
	return n
}

// AppendWire 将消息编码追加到 b
func (m *RaftMessage) AppendWire(b []byte) []byte {
	if m.RegionID != 0 {
		b = protowire.AppendTag(b, fieldRegionID, protowire.VarintType)
		b = protowire.AppendVarint(b, m.RegionID)
	}
	if m.From != 0 {
		b = protowire.AppendTag(b, fieldFrom, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.From))
	}
	if m.To != 0 {
		b = protowire.AppendTag(b, fieldTo, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.To))
	}
	if m.Type != MsgUnknown {
		b = protowire.AppendTag(b, fieldType, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(m.Type))
	}
	if m.Term != 0 {
		b = protowire.AppendTag(b, fieldTerm, protowire.VarintType)
		b = protowire.AppendVarint(b, m.Term)
	}
	if len(m.Payload) > 0 {
		b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
		b = protowire.AppendBytes(b, m.Payload)
	}
	return b
}

// Marshal 编码消息
func (m *RaftMessage) Marshal() []byte {
	return m.AppendWire(make([]byte, 0, m.Size()))
}

// UnmarshalMessage 解码单条消息，未知字段被跳过
func UnmarshalMessage(b []byte) (*RaftMessage, error) {
	m := &RaftMessage{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		switch {
		case typ == protowire.VarintType && num >= fieldRegionID && num <= fieldTerm:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, malformed(n)
			}
			b = b[n:]
			switch num {
			case fieldRegionID:
				m.RegionID = v
			case fieldFrom:
				m.From = StoreID(v)
			case fieldTo:
				m.To = StoreID(v)
			case fieldType:
				m.Type = MessageType(v)
			case fieldTerm:
				m.Term = v
			}
		case typ == protowire.BytesType && num == fieldPayload:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, malformed(n)
			}
			b = b[n:]
			m.Payload = append([]byte(nil), v...)
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

// MarshalBatch 将一批消息编码为一个批量帧体
func MarshalBatch(msgs []*RaftMessage) []byte {
	size := 0
	for _, m := range msgs {
		size += protowire.SizeTag(fieldBatchMessages) + protowire.SizeBytes(m.Size())
	}
	b := make([]byte, 0, size)
	for _, m := range msgs {
		b = protowire.AppendTag(b, fieldBatchMessages, protowire.BytesType)
		b = protowire.AppendVarint(b, uint64(m.Size()))
		b = m.AppendWire(b)
	}
	return b
}

// UnmarshalBatch 解码批量帧体，保持消息顺序
func UnmarshalBatch(b []byte) ([]*RaftMessage, error) {
	var msgs []*RaftMessage
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		if num != fieldBatchMessages || typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, malformed(n)
			}
			b = b[n:]
			continue
		}

		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return nil, malformed(n)
		}
		b = b[n:]

		m, err := UnmarshalMessage(v)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func malformed(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformedMessage, protowire.ParseError(n))
}
