package transport

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shortDir unix socket 路径有长度限制，不使用 t.TempDir 的长路径
func shortDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "asg")
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func listenPeer(t *testing.T, path string) *net.UnixConn {
	t.Helper()
	conn, err := net.ListenUnixgram(network, &net.UnixAddr{Name: path, Net: network})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readPeer(t *testing.T, conn *net.UnixConn) (string, *net.UnixAddr) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	buf := make([]byte, MaxMessageSize)
	n, from, err := conn.ReadFromUnix(buf)
	require.NoError(t, err)
	return string(buf[:n]), from
}

func TestSendReceiveRoundTrip(t *testing.T) {
	dir := shortDir(t)
	remote := filepath.Join(dir, "collector")
	local := filepath.Join(dir, "driver")
	peer := listenPeer(t, remote)

	ep, err := Open(local, remote)
	require.NoError(t, err)
	defer ep.Close()

	require.NoError(t, ep.Send("REG_SOURCE system"))
	msg, from := readPeer(t, peer)
	assert.Equal(t, "REG_SOURCE system", msg)
	assert.Equal(t, local, from.Name)

	_, err = peer.WriteToUnix([]byte("42\n"), from)
	require.NoError(t, err)

	resp, err := ep.Receive(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "42", resp)
}

func TestOpenRemovesStaleArtifact(t *testing.T) {
	dir := shortDir(t)
	local := filepath.Join(dir, "driver")
	remote := filepath.Join(dir, "collector")

	// 普通文件模拟崩溃残留
	require.NoError(t, os.WriteFile(local, []byte("stale"), 0o600))
	ep, err := Open(local, remote)
	require.NoError(t, err)

	// 不关闭第一个端点，再次打开同一地址
	ep2, err := Open(local, remote)
	require.NoError(t, err)
	require.NoError(t, ep2.Close())
	require.NoError(t, ep.conn.Close())
}

func TestCloseIdempotentAndRemovesArtifact(t *testing.T) {
	dir := shortDir(t)
	local := filepath.Join(dir, "driver")
	ep, err := Open(local, filepath.Join(dir, "collector"))
	require.NoError(t, err)

	_, err = os.Stat(local)
	require.NoError(t, err)

	require.NoError(t, ep.Close())
	require.NoError(t, ep.Close())

	_, err = os.Stat(local)
	assert.True(t, os.IsNotExist(err))
}

func TestZeroEndpointCloseIsSafe(t *testing.T) {
	var ep Endpoint
	assert.NoError(t, ep.Close())
}

func TestOpenBindErrors(t *testing.T) {
	dir := shortDir(t)

	_, err := Open(filepath.Join(dir, "missing", "driver"), filepath.Join(dir, "collector"))
	assert.ErrorIs(t, err, ErrEndpointBind)

	long := "/tmp/" + strings.Repeat("x", MaxAddrLen)
	_, err = Open(long, filepath.Join(dir, "collector"))
	assert.ErrorIs(t, err, ErrEndpointBind)

	_, err = Open("", filepath.Join(dir, "collector"))
	assert.ErrorIs(t, err, ErrEndpointBind)
}

func TestSendWithoutCollector(t *testing.T) {
	dir := shortDir(t)
	ep, err := Open(filepath.Join(dir, "driver"), filepath.Join(dir, "nobody"))
	require.NoError(t, err)
	defer ep.Close()

	err = ep.Send("DATA 1 2 3.00")
	assert.ErrorIs(t, err, ErrSend)

	err = ep.Send(strings.Repeat("x", MaxMessageSize+1))
	assert.ErrorIs(t, err, ErrSend)
}

func TestReceiveTimeout(t *testing.T) {
	dir := shortDir(t)
	ep, err := Open(filepath.Join(dir, "driver"), filepath.Join(dir, "collector"), WithResponseTimeout(50*time.Millisecond))
	require.NoError(t, err)
	defer ep.Close()

	_, err = ep.Receive(context.Background())
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReceiveContextDeadline(t *testing.T) {
	dir := shortDir(t)
	ep, err := Open(filepath.Join(dir, "driver"), filepath.Join(dir, "collector"))
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = ep.Receive(ctx)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestReceiveCancelled(t *testing.T) {
	dir := shortDir(t)
	ep, err := Open(filepath.Join(dir, "driver"), filepath.Join(dir, "collector"))
	require.NoError(t, err)
	defer ep.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()
	_, err = ep.Receive(ctx)
	assert.ErrorIs(t, err, ErrReceive)
	assert.ErrorIs(t, err, context.Canceled)
}
