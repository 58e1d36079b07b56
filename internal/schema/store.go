package schema

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/pkg"
)

const (
	TableExt  = ".jdbt"
	UsersFile = "users.json"
)

var nameRe = regexp.MustCompile(`^\w+$`)

func ValidName(name string) bool { return nameRe.MatchString(name) }

// Store lays servers out under Root as <root>/<server>/<database>/<table>.jdbt.
type Store struct {
	Root   string
	config *Configuration
}

func NewStore(root string) *Store {
	return &Store{Root: root, config: NewConfiguration(filepath.Join(root, UsersFile))}
}

func (s *Store) Configuration() *Configuration { return s.config }

func (s *Store) ServerPath(server string) string {
	return filepath.Join(s.Root, server)
}

func (s *Store) DatabasePath(server, database string) string {
	return filepath.Join(s.Root, server, database)
}

func (s *Store) TablePath(server, database, table string) string {
	return filepath.Join(s.Root, server, database, table+TableExt)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func (s *Store) HasServer(server string) bool {
	return ValidName(server) && isDir(s.ServerPath(server))
}

func (s *Store) CreateServer(server string) error {
	if !ValidName(server) {
		return errs.Schema(errs.InvalidIdentifier, "Invalid server name %q", server)
	}
	if s.HasServer(server) {
		return errs.Schema(errs.DuplicateServer, "Server %s already exists", server)
	}
	if err := os.MkdirAll(s.ServerPath(server), 0755); err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to create server %s", server)
	}
	pkg.InfoLog("created server", "server", server)
	return nil
}

// RemoveServer deletes the server directory and its credentials.
func (s *Store) RemoveServer(server string) error {
	if !s.HasServer(server) {
		return errs.Schema(errs.NoSuchServer, "No such server %s", server)
	}
	if err := os.RemoveAll(s.ServerPath(server)); err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to remove server %s", server)
	}
	if err := s.config.RemoveServer(server); err != nil && !errs.Is(err, errs.NoSuchServer) {
		return err
	}
	return nil
}

func listDir(path string, keep func(os.DirEntry) (string, bool)) ([]string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []string{}, nil
		}
		return nil, errs.IO(errs.ReadFailed, err, "failed to list %s", path)
	}
	names := []string{}
	for _, e := range entries {
		if name, ok := keep(e); ok {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

func dirNames(e os.DirEntry) (string, bool) {
	return e.Name(), e.IsDir() && ValidName(e.Name())
}

func (s *Store) ListServers() ([]string, error) {
	return listDir(s.Root, dirNames)
}

func (s *Store) ListDatabases(server string) ([]string, error) {
	if !s.HasServer(server) {
		return nil, errs.Schema(errs.NoSuchServer, "No such server %s", server)
	}
	return listDir(s.ServerPath(server), dirNames)
}

func (s *Store) CreateDatabase(server, name string) (*Database, error) {
	if !s.HasServer(server) {
		return nil, errs.Schema(errs.NoSuchServer, "No such server %s", server)
	}
	if !ValidName(name) {
		return nil, errs.Schema(errs.InvalidIdentifier, "Invalid database name %q", name)
	}
	db := &Database{Server: server, Name: name, Path: s.DatabasePath(server, name)}
	if isDir(db.Path) {
		return nil, errs.Schema(errs.DuplicateDatabase, "Database %s already exists", name)
	}
	if err := os.Mkdir(db.Path, 0755); err != nil {
		return nil, errs.IO(errs.WriteFailed, err, "failed to create database %s", name)
	}
	pkg.InfoLog("created database", "server", server, "database", name)
	return db, nil
}

// Database opens an existing database of a server.
func (s *Store) Database(server, name string) (*Database, error) {
	if !s.HasServer(server) {
		return nil, errs.Schema(errs.NoSuchServer, "No such server %s", server)
	}
	if name == "" {
		return nil, errs.Schema(errs.NoDatabaseSelected, "No database selected")
	}
	db := &Database{Server: server, Name: name, Path: s.DatabasePath(server, name)}
	if !ValidName(name) || !isDir(db.Path) {
		return nil, errs.Schema(errs.NoSuchDatabase, "No such database %s", name)
	}
	return db, nil
}

type Database struct {
	Server string
	Name   string
	Path   string
}

func (db *Database) TablePath(table string) string {
	return filepath.Join(db.Path, table+TableExt)
}

func (db *Database) HasTable(table string) bool {
	if !ValidName(table) {
		return false
	}
	info, err := os.Stat(db.TablePath(table))
	return err == nil && !info.IsDir()
}

func (db *Database) ListTables() ([]string, error) {
	return listDir(db.Path, func(e os.DirEntry) (string, bool) {
		name, ok := strings.CutSuffix(e.Name(), TableExt)
		return name, ok && !e.IsDir() && ValidName(name)
	})
}

func (db *Database) DropTable(table string) error {
	if !db.HasTable(table) {
		return errs.Schema(errs.NoSuchTable, "No such table %s", table)
	}
	if err := os.Remove(db.TablePath(table)); err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to drop table %s", table)
	}
	return nil
}
