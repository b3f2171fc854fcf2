package client

import (
	"github.com/cedrusdb/go-cedrus/internal/protocol"
)

// Cmd is the code of a request understood by a cedrus server.
type Cmd = protocol.Cmd

// Available command codes.
const (
	CmdPing             = protocol.CmdPing
	CmdLogin            = protocol.CmdLogin
	CmdOpenDatabase     = protocol.CmdOpenDatabase
	CmdCloseDatabase    = protocol.CmdCloseDatabase
	CmdDropDatabase     = protocol.CmdDropDatabase
	CmdOpenNamespace    = protocol.CmdOpenNamespace
	CmdCloseNamespace   = protocol.CmdCloseNamespace
	CmdDropNamespace    = protocol.CmdDropNamespace
	CmdAddIndex         = protocol.CmdAddIndex
	CmdEnumNamespaces   = protocol.CmdEnumNamespaces
	CmdDropIndex        = protocol.CmdDropIndex
	CmdUpdateIndex      = protocol.CmdUpdateIndex
	CmdAddTxItem        = protocol.CmdAddTxItem
	CmdCommitTx         = protocol.CmdCommitTx
	CmdRollbackTx       = protocol.CmdRollbackTx
	CmdStartTransaction = protocol.CmdStartTransaction
	CmdCommit           = protocol.CmdCommit
	CmdModifyItem       = protocol.CmdModifyItem
	CmdDeleteQuery      = protocol.CmdDeleteQuery
	CmdUpdateQuery      = protocol.CmdUpdateQuery
	CmdSelect           = protocol.CmdSelect
	CmdSelectSQL        = protocol.CmdSelectSQL
	CmdFetchResults     = protocol.CmdFetchResults
	CmdCloseResults     = protocol.CmdCloseResults
	CmdGetMeta          = protocol.CmdGetMeta
	CmdPutMeta          = protocol.CmdPutMeta
	CmdEnumMeta         = protocol.CmdEnumMeta
)

// ErrCode classifies an error returned by the client.
var ErrCode = protocol.ErrCode

// Error classifications.
const (
	CodeTimeout         = protocol.CodeTimeout
	CodeCanceled        = protocol.CodeCanceled
	CodeInvalidArgument = protocol.CodeInvalidArgument
	CodeProtocol        = protocol.CodeProtocol
	CodeNetwork         = protocol.CodeNetwork
)
