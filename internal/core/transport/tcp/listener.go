package tcp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hashicorp/yamux"

	"github.com/dep2p/go-raftnet/internal/core/metrics"
	"github.com/dep2p/go-raftnet/pkg/interfaces"
)

// ============================================================================
//                              Listener
// ============================================================================

// Listener 接收入站批量消息
type Listener struct {
	cfg     Config
	handler interfaces.BatchHandler
	metrics *metrics.Registry
	ln      net.Listener

	mu       sync.Mutex
	sessions map[*yamux.Session]struct{}
	closed   bool

	wg sync.WaitGroup
}

// Listen 在 addr 上监听并开始接收
//
// addr 端口为 0 时由系统分配，实际地址见 Addr()。
func Listen(addr string, cfg Config, handler interfaces.BatchHandler, reg *metrics.Registry) (*Listener, error) {
	if handler == nil {
		return nil, errors.New("tcp: batch handler is nil")
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	l := &Listener{
		cfg:      cfg,
		handler:  handler,
		metrics:  reg,
		ln:       ln,
		sessions: make(map[*yamux.Session]struct{}),
	}
	l.wg.Add(1)
	go l.acceptLoop()

	logger.Info("开始监听", "addr", ln.Addr())
	return l, nil
}

// Addr 返回实际监听地址
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close 停止监听并关闭所有入站会话
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	sessions := make([]*yamux.Session, 0, len(l.sessions))
	for s := range l.sessions {
		sessions = append(sessions, s)
	}
	l.mu.Unlock()

	err := l.ln.Close()
	for _, s := range sessions {
		_ = s.Close()
	}
	l.wg.Wait()
	return err
}

func (l *Listener) isClosed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}

func (l *Listener) acceptLoop() {
	defer l.wg.Done()

	for {
		raw, err := l.ln.Accept()
		if err != nil {
			if l.isClosed() {
				return
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			logger.Warn("接受连接失败", "error", err)
			return
		}
		if tcpConn, ok := raw.(*net.TCPConn); ok {
			_ = tcpConn.SetNoDelay(l.cfg.NoDelay)
		}

		sess, err := yamux.Server(raw, l.cfg.yamuxConfig())
		if err != nil {
			logger.Warn("建立 yamux 会话失败", "remote", raw.RemoteAddr(), "error", err)
			_ = raw.Close()
			continue
		}

		l.mu.Lock()
		if l.closed {
			l.mu.Unlock()
			_ = sess.Close()
			return
		}
		l.sessions[sess] = struct{}{}
		l.wg.Add(1)
		l.mu.Unlock()

		go l.serveSession(sess)
	}
}

func (l *Listener) serveSession(sess *yamux.Session) {
	defer l.wg.Done()
	defer func() {
		l.mu.Lock()
		delete(l.sessions, sess)
		l.mu.Unlock()
		_ = sess.Close()
	}()

	remote := sess.RemoteAddr()
	logger.Debug("入站会话已建立", "remote", remote)

	for {
		stream, err := sess.AcceptStream()
		if err != nil {
			return
		}
		l.wg.Add(1)
		go l.serveStream(stream, remote)
	}
}

func (l *Listener) serveStream(stream *yamux.Stream, remote net.Addr) {
	defer l.wg.Done()
	defer stream.Close()

	br := bufio.NewReader(stream)
	for {
		msgs, n, err := readFrame(br, l.cfg.MaxFrameSize)
		if err != nil {
			if !errors.Is(err, io.EOF) && !l.isClosed() {
				logger.Warn("读取帧失败，关闭流", "remote", remote, "error", err)
			}
			return
		}
		l.metrics.RecordFrameReceived(n)
		l.handler.HandleRaftBatch(remote, msgs)
	}
}
