package session

import "github.com/pkg/errors"

var ErrNotDbSession = errors.New("session does not expose a database connection")

// Connection extracts the database connection from a pooled session.
func Connection(s Session) (DbConnection, error) {
	dbSession, ok := s.(DbSession)
	if !ok {
		return nil, ErrNotDbSession
	}
	return dbSession.Connection(), nil
}
