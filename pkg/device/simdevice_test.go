package device

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimDevice_WriteThenRead(t *testing.T) {
	d := NewSimDevice(8, 4)
	ctx := context.Background()

	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	status, err := d.Issue(ctx, &PhysicalEvent{Op: OpWrite, Page: 3, Data: payload})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)

	buf := make([]byte, 8)
	status, err = d.Issue(ctx, &PhysicalEvent{Op: OpRead, Page: 3, Data: buf})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, payload, buf)
}

func TestSimDevice_ReadUnwrittenPageIsZero(t *testing.T) {
	d := NewSimDevice(4, 4)
	ctx := context.Background()

	buf := []byte{9, 9, 9, 9}
	status, err := d.Issue(ctx, &PhysicalEvent{Op: OpRead, Page: 0, Data: buf})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, status)
	require.Equal(t, []byte{0, 0, 0, 0}, buf)
}

func TestSimDevice_EraseClearsWholeBlock(t *testing.T) {
	d := NewSimDevice(2, 4)
	ctx := context.Background()

	for p := uint64(4); p < 8; p++ {
		_, err := d.Issue(ctx, &PhysicalEvent{Op: OpWrite, Page: p, Data: []byte{1, 1}})
		require.NoError(t, err)
	}

	_, err := d.Issue(ctx, &PhysicalEvent{Op: OpErase, Block: 1})
	require.NoError(t, err)

	buf := make([]byte, 2)
	_, err = d.Issue(ctx, &PhysicalEvent{Op: OpRead, Page: 5, Data: buf})
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0}, buf)
}

func TestSimDevice_InjectFailure(t *testing.T) {
	d := NewSimDevice(4, 4)
	d.InjectFailure = func(ev *PhysicalEvent) bool { return ev.Op == OpWrite }

	status, err := d.Issue(context.Background(), &PhysicalEvent{Op: OpWrite, Page: 0, Data: []byte{1, 2, 3, 4}})
	require.Error(t, err)
	require.Equal(t, StatusFailure, status)
}
