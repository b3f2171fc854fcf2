package protocol

// Magic is the first word of every frame on the wire.
const Magic uint32 = 0xEEDD1132

// Protocol versions. A peer announcing a version older than MinCompatVersion
// is rejected.
const (
	Version          uint16 = 0x102
	MinCompatVersion uint16 = 0x101
)

// HeaderSize is the fixed size of a frame header in bytes.
const HeaderSize = 16

// Cmd is the code of a request understood by a cedrus server. The transport
// is agnostic to command meaning, except for login and ping which it issues
// itself.
type Cmd int

// Available command codes.
const (
	CmdPing             Cmd = 0
	CmdLogin            Cmd = 1
	CmdOpenDatabase     Cmd = 2
	CmdCloseDatabase    Cmd = 3
	CmdDropDatabase     Cmd = 4
	CmdOpenNamespace    Cmd = 16
	CmdCloseNamespace   Cmd = 17
	CmdDropNamespace    Cmd = 18
	CmdAddIndex         Cmd = 21
	CmdEnumNamespaces   Cmd = 22
	CmdDropIndex        Cmd = 24
	CmdUpdateIndex      Cmd = 25
	CmdAddTxItem        Cmd = 26
	CmdCommitTx         Cmd = 27
	CmdRollbackTx       Cmd = 28
	CmdStartTransaction Cmd = 29
	CmdCommit           Cmd = 32
	CmdModifyItem       Cmd = 33
	CmdDeleteQuery      Cmd = 34
	CmdUpdateQuery      Cmd = 35
	CmdSelect           Cmd = 48
	CmdSelectSQL        Cmd = 49
	CmdFetchResults     Cmd = 50
	CmdCloseResults     Cmd = 51
	CmdGetMeta          Cmd = 64
	CmdPutMeta          Cmd = 65
	CmdEnumMeta         Cmd = 66
	CmdCodeMax          Cmd = 128
)

// String returns a human readable name for the command, for logs and traces.
func (c Cmd) String() string {
	switch c {
	case CmdPing:
		return "ping"
	case CmdLogin:
		return "login"
	case CmdOpenDatabase:
		return "open database"
	case CmdCloseDatabase:
		return "close database"
	case CmdDropDatabase:
		return "drop database"
	case CmdOpenNamespace:
		return "open namespace"
	case CmdCloseNamespace:
		return "close namespace"
	case CmdDropNamespace:
		return "drop namespace"
	case CmdAddIndex:
		return "add index"
	case CmdEnumNamespaces:
		return "enum namespaces"
	case CmdDropIndex:
		return "drop index"
	case CmdUpdateIndex:
		return "update index"
	case CmdAddTxItem:
		return "add tx item"
	case CmdCommitTx:
		return "commit tx"
	case CmdRollbackTx:
		return "rollback tx"
	case CmdStartTransaction:
		return "start transaction"
	case CmdCommit:
		return "commit"
	case CmdModifyItem:
		return "modify item"
	case CmdDeleteQuery:
		return "delete query"
	case CmdUpdateQuery:
		return "update query"
	case CmdSelect:
		return "select"
	case CmdSelectSQL:
		return "select sql"
	case CmdFetchResults:
		return "fetch results"
	case CmdCloseResults:
		return "close results"
	case CmdGetMeta:
		return "get meta"
	case CmdPutMeta:
		return "put meta"
	case CmdEnumMeta:
		return "enum meta"
	default:
		return "unknown command"
	}
}

// Value tags of the argument stream.
const (
	valueInt64  = 0
	valueDouble = 1
	valueString = 2
	valueBool   = 3
	valueNull   = 4
	valueInt    = 8
	valueTuple  = 11
)

// Transport defaults.
const (
	// DefaultPipelineDepth is the number of requests that may be in flight
	// on a single connection at any moment.
	DefaultPipelineDepth = 40

	// DefaultBufferSize is the initial capacity of the read and write
	// buffers.
	DefaultBufferSize = 16 * 1024

	// seqSpanPerSlot is the number of sequence values owned by each pipeline
	// slot. Slot index is seq modulo depth, so successive occupants of a
	// slot differ by a multiple of the depth.
	seqSpanPerSlot = 10000000

	// maxPipelineDepth keeps depth * seqSpanPerSlot well inside the uint32
	// sequence space.
	maxPipelineDepth = 400

	// deadlineTickPeriod is the granularity of the coarse deadline clock.
	deadlineTickPeriod = 1 // seconds
)
