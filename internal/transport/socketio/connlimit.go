package socketio

import (
	"net"
	"sync"
)

// ConnLimiter caps concurrent sockets from remote addresses. Loopback
// sockets (a kiosk browser on the same machine) are never counted. When a
// remote socket exceeds the cap, the oldest remote socket is evicted.
type ConnLimiter struct {
	mu        sync.Mutex
	maxRemote int
	remote    []string          // oldest first
	addrs     map[string]string // socket ID -> address
}

// NewConnLimiter creates a limiter allowing maxRemote remote sockets.
// A non-positive maxRemote disables the cap.
func NewConnLimiter(maxRemote int) *ConnLimiter {
	return &ConnLimiter{
		maxRemote: maxRemote,
		addrs:     make(map[string]string),
	}
}

// Admit registers a socket and returns the ID of a socket to disconnect, or
// "" when none.
func (l *ConnLimiter) Admit(socketID, addr string) (evicted string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.addrs[socketID]; ok {
		return ""
	}
	l.addrs[socketID] = addr

	if isLoopback(addr) {
		return ""
	}

	l.remote = append(l.remote, socketID)
	if l.maxRemote <= 0 || len(l.remote) <= l.maxRemote {
		return ""
	}

	evicted = l.remote[0]
	l.remote = l.remote[1:]
	delete(l.addrs, evicted)
	return evicted
}

// Remove forgets a disconnected socket.
func (l *ConnLimiter) Remove(socketID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	addr, ok := l.addrs[socketID]
	if !ok {
		return
	}
	delete(l.addrs, socketID)
	if isLoopback(addr) {
		return
	}

	for i, id := range l.remote {
		if id == socketID {
			l.remote = append(l.remote[:i], l.remote[i+1:]...)
			break
		}
	}
}

// Remote returns the number of counted remote sockets.
func (l *ConnLimiter) Remote() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.remote)
}

// isLoopback accepts bare IPs and host:port pairs.
func isLoopback(addr string) bool {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
