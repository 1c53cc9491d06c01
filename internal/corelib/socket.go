package corelib

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"lumen/internal/object"
	"lumen/internal/vm"
)

// wsConn is a registered connection backing one Lumen WebSocket
// instance, grounded on internal/network/websocket.go's WebSocketConn:
// a gorilla *websocket.Conn plus a background reader goroutine feeding
// a buffered channel, so .receive() never blocks the VM's single
// goroutine on the underlying socket read directly.
type wsConn struct {
	conn     *websocket.Conn
	messages chan []byte
	mu       sync.Mutex
	closed   bool
}

func (c *wsConn) readLoop() {
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.closed = true
			c.mu.Unlock()
			close(c.messages)
			return
		}
		select {
		case c.messages <- msg:
		default:
			<-c.messages
			c.messages <- msg
		}
	}
}

var (
	wsMu     sync.Mutex
	wsConns  = map[int64]*wsConn{}
	wsNextID int64
)

// registerSocket installs the WebSocket class (SPEC_FULL.md §3's
// domain-stack wiring of gorilla/websocket): .connect(url) is a static
// factory, .send/.receive/.close are instance methods.
func registerSocket(v *vm.VM, cls *classes) {
	bindPrimitive(v, cls.socket, true, "connect(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		urlArg, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "WebSocket.connect expects a URL string")
			return object.Null, false
		}
		dialer := websocket.DefaultDialer
		dialer.HandshakeTimeout = 10 * time.Second
		conn, _, err := dialer.Dial(urlArg.Value, nil)
		if err != nil {
			v.RuntimeError(f, "websocket connect failed: %v", err)
			return object.Null, false
		}
		wc := &wsConn{conn: conn, messages: make(chan []byte, 100)}
		go wc.readLoop()

		wsMu.Lock()
		wsNextID++
		id := wsNextID
		wsConns[id] = wc
		wsMu.Unlock()

		inst := v.NewInstance(cls.socket)
		inst.Fields[0] = object.Number(float64(id))
		return object.Obj(inst), true
	})

	lookup := func(f *object.Fiber, recv object.Value) (*wsConn, bool) {
		inst, ok := recv.AsObject().(*object.Instance)
		if !ok || len(inst.Fields) == 0 {
			v.RuntimeError(f, "receiver is not a WebSocket")
			return nil, false
		}
		id := int64(inst.Fields[0].AsNumber())
		wsMu.Lock()
		wc, ok := wsConns[id]
		wsMu.Unlock()
		if !ok {
			v.RuntimeError(f, "websocket connection is closed")
			return nil, false
		}
		return wc, true
	}

	bindPrimitive(v, cls.socket, false, "send(_)", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		wc, ok := lookup(f, args[0])
		if !ok {
			return object.Null, false
		}
		text, ok := args[1].AsObject().(*object.String)
		if !ok {
			v.RuntimeError(f, "WebSocket.send expects a String")
			return object.Null, false
		}
		wc.mu.Lock()
		closed := wc.closed
		wc.mu.Unlock()
		if closed {
			v.RuntimeError(f, "websocket connection is closed")
			return object.Null, false
		}
		if err := wc.conn.WriteMessage(websocket.TextMessage, []byte(text.Value)); err != nil {
			v.RuntimeError(f, "websocket send failed: %v", err)
			return object.Null, false
		}
		return object.Null, true
	})

	bindPrimitive(v, cls.socket, false, "receive()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		wc, ok := lookup(f, args[0])
		if !ok {
			return object.Null, false
		}
		select {
		case msg, open := <-wc.messages:
			if !open {
				return object.Null, true
			}
			return object.Obj(v.NewString(string(msg))), true
		case <-time.After(30 * time.Second):
			v.RuntimeError(f, "websocket receive timed out")
			return object.Null, false
		}
	})

	bindPrimitive(v, cls.socket, false, "close()", func(f *object.Fiber, args []object.Value) (object.Value, bool) {
		inst, ok := args[0].AsObject().(*object.Instance)
		if !ok || len(inst.Fields) == 0 {
			v.RuntimeError(f, "receiver is not a WebSocket")
			return object.Null, false
		}
		id := int64(inst.Fields[0].AsNumber())
		wsMu.Lock()
		wc, ok := wsConns[id]
		delete(wsConns, id)
		wsMu.Unlock()
		if ok {
			wc.mu.Lock()
			wc.closed = true
			wc.mu.Unlock()
			wc.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			wc.conn.Close()
		}
		return object.Null, true
	})
}
