package sysusers

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mordilloSan/go-logger/logger"

	"github.com/hnrobert/sysusers/internal/userdb"
)

// ReadConfig loads the named configuration files, or the installed default
// set when none are given. Bad lines are reported and skipped; the first
// error is remembered and returned after everything has been read.
func (s *Session) ReadConfig(paths []string) error {
	var firstErr error

	if len(paths) > 0 {
		for _, p := range paths {
			if err := s.ReadConfigFile(p, false); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	files, err := s.ConfigFiles()
	if err != nil {
		logger.Errorf("Failed to enumerate configuration files: %v", err)
		return err
	}
	for _, f := range files {
		if err := s.ReadConfigFile(f, true); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ReadConfigFile parses one configuration file. A bare name is searched for
// in the configuration directories; an absolute path is opened as given.
func (s *Session) ReadConfigFile(path string, ignoreMissing bool) error {
	f, full, err := s.openConfigFile(path)
	if err != nil {
		if ignoreMissing && os.IsNotExist(err) {
			return nil
		}
		logger.Errorf("Failed to open %s: %v", path, err)
		return err
	}
	defer f.Close()

	var firstErr error
	sc := bufio.NewScanner(f)
	for line := 1; sc.Scan(); line++ {
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if err := s.parseLine(full, line, text); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := sc.Err(); err != nil {
		logger.Errorf("Failed to read from file %s: %v", full, err)
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *Session) openConfigFile(name string) (*os.File, string, error) {
	if filepath.IsAbs(name) {
		f, err := os.Open(name)
		return f, name, err
	}
	for _, d := range confDirs {
		p := s.Root.Join(filepath.Join(d, name))
		f, err := os.Open(p)
		if err == nil {
			return f, p, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", err
		}
	}
	return nil, "", &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
}

// parseLine handles one "<type> <name> <id> [<description>]" directive.
func (s *Session) parseLine(fname string, line int, text string) error {
	kindStr, rest := nextField(text)
	name, rest := nextField(rest)
	idStr, rest := nextField(rest)
	desc := strings.TrimSpace(rest)

	if name == "" {
		logger.Errorf("[%s:%d] Syntax error.", fname, line)
		return fmt.Errorf("[%s:%d] syntax error", fname, line)
	}

	var kind ItemKind
	switch kindStr {
	case "u":
		kind = AddUser
	case "g":
		kind = AddGroup
	default:
		logger.Errorf("[%s:%d] Unknown directive type %q.", fname, line, kindStr)
		return fmt.Errorf("[%s:%d] unknown directive type %q", fname, line, kindStr)
	}

	i := &Item{Kind: kind}

	expanded, err := expandSpecifiers(name)
	if err != nil {
		logger.Errorf("[%s:%d] Failed to replace specifiers in %q: %v", fname, line, name, err)
		return fmt.Errorf("[%s:%d] replace specifiers in %q: %w", fname, line, name, err)
	}
	i.Name = expanded
	if !validName(i.Name) {
		logger.Errorf("[%s:%d] %q is not a valid user or group name.", fname, line, i.Name)
		return fmt.Errorf("[%s:%d] invalid user or group name %q", fname, line, i.Name)
	}

	if desc != "" && desc != "-" {
		i.Description = unquote(desc)
		if !validGecos(i.Description) {
			logger.Errorf("[%s:%d] %q is not a valid GECOS field.", fname, line, i.Description)
			return fmt.Errorf("[%s:%d] invalid GECOS field %q", fname, line, i.Description)
		}
	}

	if idStr != "" && idStr != "-" {
		if filepath.IsAbs(idStr) {
			p := filepath.Clean(idStr)
			if kind == AddUser {
				i.UIDPath = p
			} else {
				i.GIDPath = p
			}
		} else {
			n, err := strconv.ParseUint(idStr, 10, 32)
			if err != nil {
				logger.Errorf("[%s:%d] Failed to parse ID %q.", fname, line, idStr)
				return fmt.Errorf("[%s:%d] parse ID %q: %w", fname, line, idStr, err)
			}
			if kind == AddUser {
				i.UID = userdb.UID(n)
				i.UIDSet = true
			} else {
				i.GID = userdb.GID(n)
				i.GIDSet = true
			}
		}
	}

	m := s.groups
	if kind == AddUser {
		m = s.users
	}
	if existing, ok := m[i.Name]; ok {
		// Two identical items are fine.
		if !existing.equal(i) {
			logger.Warnf("Two or more conflicting lines for %s configured, ignoring.", i.Name)
		}
		return nil
	}
	m[i.Name] = i

	return nil
}

func nextField(s string) (field, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

// unquote strips one pair of enclosing double quotes, if present.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
