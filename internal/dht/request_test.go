package dht

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dep2p/go-dep2p-dht/pkg/types"
)

// ============================================================================
// Requester 测试（无 Actor）
// ============================================================================

// TestRequester_TrySendBufferFull 测试队列满时返回 ErrSendBufferFull
func TestRequester_TrySendBufferFull(t *testing.T) {
	r, recv := NewRequestQueue(1)

	require.NoError(t, r.TrySendJoin())
	assert.ErrorIs(t, r.TrySendJoin(), ErrSendBufferFull)
	assert.ErrorIs(t, r.TrySendDiscover(types.PublicKey{}, nil, types.DestinationUnknown()), ErrSendBufferFull)

	req := <-recv.Requests()
	assert.Equal(t, SendJoinRequest{}, req)
}

// TestRequester_SendHonoursContext 测试阻塞发送遵循 ctx
func TestRequester_SendHonoursContext(t *testing.T) {
	r, _ := NewRequestQueue(0)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, r.SendJoin(ctx), context.DeadlineExceeded)
}

// TestRequester_DiscoverCopiesNodeID 测试请求持有 NodeID 的副本
func TestRequester_DiscoverCopiesNodeID(t *testing.T) {
	r, recv := NewRequestQueue(1)
	id := types.NodeID{1}
	pk := types.PublicKey{2}

	require.NoError(t, r.SendDiscover(context.Background(), pk, &id, types.DestinationPublicKey(pk)))
	id[0] = 9

	req, ok := (<-recv.Requests()).(SendDiscoverRequest)
	require.True(t, ok)
	require.NotNil(t, req.DestNodeID)
	assert.Equal(t, types.NodeID{1}, *req.DestNodeID)
	assert.Equal(t, pk, req.DestPublicKey)
	assert.Equal(t, types.DestinationPublicKey(pk), req.Destination)
}

// TestRequester_CloneClose 测试所有句柄关闭后队列关闭
func TestRequester_CloneClose(t *testing.T) {
	r, recv := NewRequestQueue(4)
	c1 := r.Clone()
	c2 := c1.Clone()

	r.Close()
	r.Close()
	c1.Close()
	select {
	case <-recv.Closed():
		t.Fatal("queue closed while a producer is still open")
	default:
	}

	require.NoError(t, c2.TrySendJoin())
	assert.ErrorIs(t, r.TrySendJoin(), ErrChannelDisconnected)

	c2.Close()
	select {
	case <-recv.Closed():
	default:
		t.Fatal("queue not closed after every producer closed")
	}

	dead := c2.Clone()
	assert.ErrorIs(t, dead.SendJoin(context.Background()), ErrChannelDisconnected)
	dead.Close()
}

// TestRequester_StoppedReceiver 测试消费端退出后返回 ErrChannelDisconnected
func TestRequester_StoppedReceiver(t *testing.T) {
	r, recv := NewRequestQueue(0)

	errCh := make(chan error, 1)
	go func() {
		errCh <- r.SendJoin(context.Background())
	}()
	recv.markStopped()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, ErrChannelDisconnected)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked send not released")
	}

	assert.ErrorIs(t, r.TrySendJoin(), ErrChannelDisconnected)
	_, err := r.InsertMessageSignature(context.Background(), []byte{1})
	assert.ErrorIs(t, err, ErrChannelDisconnected)
}

// TestRequest_String 测试请求描述
func TestRequest_String(t *testing.T) {
	assert.Equal(t, "SendJoin", SendJoinRequest{}.String())
	assert.Contains(t, SendDiscoverRequest{}.String(), "SendDiscover(")
	assert.Equal(t, "SignatureCacheInsert(3 bytes)", SignatureCacheInsertRequest{Signature: []byte{1, 2, 3}}.String())
}
