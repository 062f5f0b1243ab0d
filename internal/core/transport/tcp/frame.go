package tcp

import (
	"bufio"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/multiformats/go-varint"

	"github.com/dep2p/go-raftnet/pkg/types"
)

// 帧标志位
const (
	flagNone   byte = 0x00
	flagSnappy byte = 0x01
)

// frameEncoder 批量消息帧编码器
type frameEncoder struct {
	compress  bool
	threshold int
}

// encode 编码一批消息，返回完整帧及是否压缩
func (e frameEncoder) encode(msgs []*types.RaftMessage) ([]byte, bool) {
	body := types.MarshalBatch(msgs)
	flag := flagNone
	if e.compress && len(body) > e.threshold {
		if compressed := snappy.Encode(nil, body); len(compressed) < len(body) {
			body = compressed
			flag = flagSnappy
		}
	}

	frame := make([]byte, 0, 1+varint.MaxLenUvarint63+len(body))
	frame = append(frame, flag)
	frame = append(frame, varint.ToUvarint(uint64(len(body)))...)
	frame = append(frame, body...)
	return frame, flag == flagSnappy
}

// readFrame 读取并解码一个帧，返回消息与帧体积
func readFrame(r *bufio.Reader, maxSize int) ([]*types.RaftMessage, int, error) {
	flag, err := r.ReadByte()
	if err != nil {
		return nil, 0, err
	}
	size, err := varint.ReadUvarint(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read frame length: %w", err)
	}
	if size > uint64(maxSize) {
		return nil, 0, fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, size, maxSize)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, 0, fmt.Errorf("read frame body: %w", err)
	}
	frameLen := 1 + varint.UvarintSize(size) + int(size)

	switch flag {
	case flagNone:
	case flagSnappy:
		n, err := snappy.DecodedLen(body)
		if err != nil {
			return nil, frameLen, fmt.Errorf("%w: %v", types.ErrMalformedMessage, err)
		}
		if n > maxSize {
			return nil, frameLen, fmt.Errorf("%w: decoded %d > %d", ErrFrameTooLarge, n, maxSize)
		}
		if body, err = snappy.Decode(nil, body); err != nil {
			return nil, frameLen, fmt.Errorf("%w: %v", types.ErrMalformedMessage, err)
		}
	default:
		return nil, frameLen, fmt.Errorf("%w: 0x%02x", ErrUnknownFlag, flag)
	}

	msgs, err := types.UnmarshalBatch(body)
	if err != nil {
		return nil, frameLen, err
	}
	return msgs, frameLen, nil
}
