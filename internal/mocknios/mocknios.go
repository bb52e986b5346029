// Package mocknios is an in-memory double of the NIOS4 web service. It
// speaks the same wire contract as the remote platform — the action query
// dispatch, the {error, error_code, error_message} envelope, JSON POST
// bodies, and the raw-binary file endpoint — so the SDK can be exercised
// end to end in tests and local development.
package mocknios

import (
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// User is a mock account. Password login and direct token login both
// resolve to it.
type User struct {
	ID       string
	Email    string
	Password string
}

// Table holds field metadata and records keyed by gguid.
type Table struct {
	Info    map[string]any
	Fields  []map[string]any
	Records map[string]map[string]any
}

// Database is a named collection of tables plus its member users.
type Database struct {
	Name   string
	Tables map[string]*Table
	Users  []map[string]any
}

// Server is the in-memory service state. All exported mutators are safe
// for concurrent use.
type Server struct {
	secret []byte
	log    zerolog.Logger

	mu        sync.Mutex
	users     map[string]*User // keyed by email
	databases map[string]*Database
	files     map[string][]byte // keyed by db/table/gguid

	// partialRemaining makes the next sync calls report a partial pass
	// with resume markers, counting down to a final full response.
	partialRemaining int
	partialTotal     int
}

// New creates an empty mock service signing tokens with secret.
func New(secret string, logger zerolog.Logger) *Server {
	return &Server{
		secret:    []byte(secret),
		log:       logger,
		users:     make(map[string]*User),
		databases: make(map[string]*Database),
		files:     make(map[string][]byte),
	}
}

// AddUser registers an account and returns it.
func (s *Server) AddUser(email, password string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := &User{ID: uuid.New().String(), Email: email, Password: password}
	s.users[email] = u
	return u
}

// AddDatabase registers an empty database.
func (s *Server) AddDatabase(name string) *Database {
	s.mu.Lock()
	defer s.mu.Unlock()
	db := &Database{Name: name, Tables: make(map[string]*Table)}
	s.databases[name] = db
	return db
}

// AddTable registers a table in an existing database.
func (s *Server) AddTable(dbName, tableName string, fields []map[string]any) *Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &Table{
		Info:    map[string]any{"tablename": tableName},
		Fields:  fields,
		Records: make(map[string]map[string]any),
	}
	s.databases[dbName].Tables[tableName] = t
	return t
}

// PutRecord stores a record directly, bypassing the save action.
func (s *Server) PutRecord(dbName, tableName string, rec map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gguid, _ := rec["gguid"].(string)
	s.databases[dbName].Tables[tableName].Records[gguid] = rec
}

// Record returns a stored record and whether it exists.
func (s *Server) Record(dbName, tableName, gguid string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	db, ok := s.databases[dbName]
	if !ok {
		return nil, false
	}
	t, ok := db.Tables[tableName]
	if !ok {
		return nil, false
	}
	rec, ok := t.Records[gguid]
	return rec, ok
}

// FileData returns uploaded file bytes and whether they exist.
func (s *Server) FileData(dbName, tableName, gguid string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[fileKey(dbName, tableName, gguid)]
	return data, ok
}

// PutFile stores file bytes directly, making them downloadable.
func (s *Server) PutFile(dbName, tableName, gguid string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[fileKey(dbName, tableName, gguid)] = data
}

// SetPartialSync makes the next n sync calls report a partial pass before
// the final full one.
func (s *Server) SetPartialSync(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.partialRemaining = n
	s.partialTotal = n + 1
}

func fileKey(db, table, gguid string) string {
	return db + "/" + table + "/" + gguid
}
