// Package testutil provides filesystem helpers and source fixtures for
// tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file in the real filesystem.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads content from a file.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// TempDir creates a temporary directory and returns its path.
// The directory is automatically cleaned up when the test ends.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "arcgraph-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp error: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// CreateFileTree creates multiple files from a map of path -> content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// GoSample is a small Go file with a struct, an interface, methods, and
// cross-references for extraction tests.
const GoSample = `package store

import "fmt"

type Store interface {
	Get(key string) (string, error)
}

type MemStore struct {
	data map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{data: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, error) {
	v, ok := s.data[key]
	if !ok {
		return "", fmt.Errorf("missing %s", key)
	}
	return v, nil
}
`

// PySample is a small Python file with a class hierarchy and a function.
const PySample = `import os
from collections import OrderedDict

class Base:
    def ping(self):
        return "pong"

class Child(Base):
    def ping(self):
        return helper()

def helper():
    return os.getcwd()
`

// JSSample is a small TypeScript file with a class and an import.
const JSSample = `import { EventEmitter } from "events";

export class Worker extends EventEmitter {
  run() {
    return schedule();
  }
}

export function schedule() {
  return 1;
}
`
