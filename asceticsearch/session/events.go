package session

import (
	"time"
)

type SessionScopeStartedEvent struct {
	Session Session
}

type SessionScopeEndedEvent struct {
	Session Session
}

type QueryEndedEvent struct {
	Query        string
	Params       []any
	Sender       any
	Session      DbSession
	ResponseTime time.Duration
	Err          error
}
