package schema

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"slices"
	"sync"

	"github.com/tobsdb/jqldb/internal/errs"
	"github.com/tobsdb/jqldb/pkg"
)

const cryptSalt = "jqldb$5f1d"

// Crypt is the salted SHA1 digest credentials are stored as.
func Crypt(value string) string {
	sum := sha1.Sum([]byte(cryptSalt + value))
	return hex.EncodeToString(sum[:])
}

type Credential struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Configuration is the users file: server name -> hashed credentials.
type Configuration struct {
	locker sync.RWMutex
	path   string
}

func NewConfiguration(path string) *Configuration {
	return &Configuration{path: path}
}

func (c *Configuration) GetLocker() *sync.RWMutex { return &c.locker }

func (c *Configuration) Path() string { return c.path }

func (c *Configuration) read() (map[string][]Credential, error) {
	users := map[string][]Credential{}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return users, nil
		}
		return nil, errs.IO(errs.ReadFailed, err, "failed to read users file")
	}
	if len(data) == 0 {
		return users, nil
	}
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, errs.IO(errs.ReadFailed, err, "corrupt users file")
	}
	return users, nil
}

func (c *Configuration) write(users map[string][]Credential) error {
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to encode users file")
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return errs.IO(errs.WriteFailed, err, "failed to write users file")
	}
	return nil
}

func (c *Configuration) AddUser(server, username, password string) error {
	if username == "" {
		return errs.Constraint(errs.InvalidValue, "Username cannot be empty")
	}
	return pkg.LockWrap(c, func() error {
		users, err := c.read()
		if err != nil {
			return err
		}
		hashed := Crypt(username)
		if slices.ContainsFunc(users[server], func(u Credential) bool { return u.Username == hashed }) {
			return errs.Constraint(errs.DuplicateUser, "User %s already exists on server %s", username, server)
		}
		users[server] = append(users[server], Credential{hashed, Crypt(password)})
		return c.write(users)
	})
}

func (c *Configuration) RemoveUser(server, username string) error {
	return pkg.LockWrap(c, func() error {
		users, err := c.read()
		if err != nil {
			return err
		}
		hashed := Crypt(username)
		creds := users[server]
		idx := slices.IndexFunc(creds, func(u Credential) bool { return u.Username == hashed })
		if idx < 0 {
			return errs.Constraint(errs.NoSuchUser, "No user %s on server %s", username, server)
		}
		users[server] = slices.Delete(creds, idx, idx+1)
		return c.write(users)
	})
}

func (c *Configuration) RemoveServer(server string) error {
	return pkg.LockWrap(c, func() error {
		users, err := c.read()
		if err != nil {
			return err
		}
		if _, ok := users[server]; !ok {
			return errs.Schema(errs.NoSuchServer, "No such server %s", server)
		}
		delete(users, server)
		return c.write(users)
	})
}

// Users lists the hashed credentials of a server.
func (c *Configuration) Users(server string) ([]Credential, error) {
	var creds []Credential
	err := pkg.RLockWrap(c, func() error {
		users, err := c.read()
		creds = users[server]
		return err
	})
	return creds, err
}

// Authenticate compares plaintext credentials against the stored digests.
func (c *Configuration) Authenticate(server, username, password string) bool {
	creds, err := c.Users(server)
	if err != nil {
		pkg.ErrorLog("failed to read users", "err", err)
		return false
	}
	want := Credential{Crypt(username), Crypt(password)}
	return slices.Contains(creds, want)
}
