package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-raftnet/pkg/types"
)

func TestParseStoreSpecs(t *testing.T) {
	addrs, err := ParseStoreSpecs([]string{"1@10.0.0.1:20160", " 7@10.0.0.7:20160 ", ""})
	require.NoError(t, err)
	assert.Equal(t, map[types.StoreID]types.Address{
		1: "10.0.0.1:20160",
		7: "10.0.0.7:20160",
	}, addrs)

	assert.Equal(t, []string{"1@10.0.0.1:20160", "7@10.0.0.7:20160"}, FormatStoreSpecs(addrs))
}

func TestParseStoreSpecs_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		specs []string
		want  error
	}{
		{"缺少@", []string{"10.0.0.1:20160"}, ErrInvalidSpec},
		{"非法ID", []string{"x@10.0.0.1:20160"}, ErrInvalidSpec},
		{"零ID", []string{"0@10.0.0.1:20160"}, ErrInvalidSpec},
		{"缺少端口", []string{"1@10.0.0.1"}, ErrInvalidSpec},
		{"重复ID", []string{"1@a:1", "1@b:2"}, ErrDuplicateStore},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStoreSpecs(tt.specs)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStatic_SetRemove(t *testing.T) {
	s, err := NewStaticFromSpecs([]string{"7@10.0.0.7:20160"})
	require.NoError(t, err)

	addr, err := s.Resolve(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, types.Address("10.0.0.7:20160"), addr)

	_, err = s.Resolve(context.Background(), 8)
	assert.ErrorIs(t, err, ErrStoreNotFound)

	require.NoError(t, s.Set(8, "10.0.0.8:20160"))
	assert.Equal(t, 2, s.Len())
	assert.Error(t, s.Set(9, "bad"))
	assert.ErrorIs(t, s.Set(types.InvalidStoreID, "10.0.0.1:1"), types.ErrInvalidStoreID)

	s.Remove(7)
	_, err = s.Resolve(context.Background(), 7)
	assert.ErrorIs(t, err, ErrStoreNotFound)
	assert.Equal(t, map[types.StoreID]types.Address{8: "10.0.0.8:20160"}, s.Snapshot())
}
