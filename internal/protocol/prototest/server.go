// Package prototest provides an in-process cedrus server speaking the wire
// protocol, for exercising the client transport in tests.
package prototest

import (
	"encoding/binary"
	"io"
	"math"
	"net"
	"sync"
	"time"

	"github.com/cedrusdb/go-cedrus/internal/protocol"
)

// Reply tells the server what to send back for a request. The zero value
// echoes the request sequence with an OK status and no arguments.
type Reply struct {
	Status  int           // Non-zero becomes a server error on the client.
	Message string        // Status message.
	Args    []interface{} // Reply arguments.
	Drop    bool          // Do not answer at all.
	Delay   time.Duration // Wait before answering; replies may overtake each other.
	Seq     *uint32       // Override the echoed sequence.
	Magic   *uint32       // Override the frame magic.
	Version *uint16       // Override the announced version.
}

// Handler decides the reply for one request. A nil return means the default
// empty OK reply.
type Handler func(cmd protocol.Cmd, seq uint32, args []interface{}) *Reply

// Server accepts client connections and answers frames according to its
// handler. Logins are answered automatically unless the handler covers
// CmdLogin itself.
type Server struct {
	ln        net.Listener
	handler   Handler
	startTime int64

	mu     sync.Mutex
	conns  []net.Conn
	closed bool

	wg sync.WaitGroup
}

// NewServer starts a server on a random localhost port.
func NewServer(handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		ln:        ln,
		handler:   handler,
		startTime: time.Now().Unix(),
	}
	s.wg.Add(1)
	go s.acceptLoop()
	return s, nil
}

// Addr returns the address clients should dial.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// StartTime returns the timestamp the server announces in login replies.
func (s *Server) StartTime() int64 {
	return s.startTime
}

// CloseConns severs all established client connections but keeps listening.
func (s *Server) CloseConns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Close()
	}
	s.conns = nil
}

// Close shuts the server down.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.ln.Close()
	s.CloseConns()
	s.wg.Wait()
}

func (s *Server) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns = append(s.conns, conn)
		s.mu.Unlock()
		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	var wr sync.Mutex // one reply write at a time
	hdr := make([]byte, protocol.HeaderSize)
	for {
		if _, err := io.ReadFull(conn, hdr); err != nil {
			return
		}
		_, size, seq, err := protocol.DecodeHeader(hdr)
		if err != nil {
			return
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return
		}
		cmd, args, _, err := protocol.DecodeRequest(payload)
		if err != nil {
			return
		}

		reply := s.replyFor(cmd, seq, args)
		if reply.Drop {
			continue
		}
		go func(reply *Reply, seq uint32) {
			if reply.Delay > 0 {
				time.Sleep(reply.Delay)
			}
			frame := EncodeReply(reply, seq)
			wr.Lock()
			conn.Write(frame)
			wr.Unlock()
		}(reply, seq)
	}
}

func (s *Server) replyFor(cmd protocol.Cmd, seq uint32, args []interface{}) *Reply {
	if s.handler != nil {
		if reply := s.handler(cmd, seq, args); reply != nil {
			return reply
		}
	}
	if cmd == protocol.CmdLogin {
		return &Reply{Args: []interface{}{int64(1), s.startTime}}
	}
	return &Reply{}
}

// Push writes a server-initiated frame carrying the given sequence and
// arguments on every established connection.
func (s *Server) Push(seq uint32, args ...interface{}) {
	s.PushReply(&Reply{Args: args}, seq)
}

// PushReply writes an arbitrary reply frame on every established
// connection, overrides included.
func (s *Server) PushReply(reply *Reply, seq uint32) {
	frame := EncodeReply(reply, seq)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.Write(frame)
	}
}

// EncodeReply serialises a reply frame the way a cedrus server would.
func EncodeReply(reply *Reply, seq uint32) []byte {
	magic := protocol.Magic
	if reply.Magic != nil {
		magic = *reply.Magic
	}
	version := protocol.Version
	if reply.Version != nil {
		version = *reply.Version
	}
	if reply.Seq != nil {
		seq = *reply.Seq
	}

	var payload []byte
	payload = appendUvarint(payload, uint64(reply.Status))
	payload = appendUvarint(payload, uint64(len(reply.Message)))
	payload = append(payload, reply.Message...)
	payload = appendUvarint(payload, uint64(len(reply.Args)))
	for _, arg := range reply.Args {
		payload = appendValue(payload, arg)
	}

	frame := make([]byte, protocol.HeaderSize, protocol.HeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:], magic)
	binary.LittleEndian.PutUint16(frame[4:], version)
	binary.LittleEndian.PutUint16(frame[6:], 0)
	binary.LittleEndian.PutUint32(frame[8:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(frame[12:], seq)
	return append(frame, payload...)
}

// Value tags mirrored from the wire format.
const (
	tagInt64  = 0
	tagDouble = 1
	tagString = 2
	tagBool   = 3
	tagNull   = 4
	tagInt    = 8
	tagTuple  = 11
)

func appendUvarint(b []byte, v uint64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendVarint(b []byte, v int64) []byte {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutVarint(tmp[:], v)
	return append(b, tmp[:n]...)
}

func appendValue(b []byte, arg interface{}) []byte {
	switch t := arg.(type) {
	case bool:
		b = appendUvarint(b, tagBool)
		if t {
			b = append(b, 1)
		} else {
			b = append(b, 0)
		}
	case int:
		b = appendUvarint(b, tagInt)
		b = appendVarint(b, int64(t))
	case int64:
		b = appendUvarint(b, tagInt64)
		b = appendVarint(b, t)
	case float64:
		b = appendUvarint(b, tagDouble)
		var tmp [8]byte
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(t))
		b = append(b, tmp[:]...)
	case string:
		b = appendUvarint(b, tagString)
		b = appendUvarint(b, uint64(len(t)))
		b = append(b, t...)
	case []byte:
		b = appendUvarint(b, tagString)
		b = appendUvarint(b, uint64(len(t)))
		b = append(b, t...)
	case []interface{}:
		b = appendUvarint(b, tagTuple)
		b = appendUvarint(b, uint64(len(t)))
		for _, v := range t {
			b = appendValue(b, v)
		}
	case nil:
		b = appendUvarint(b, tagNull)
	}
	return b
}
