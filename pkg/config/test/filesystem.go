// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

// Package test provides file system fakes for loader tests.
package test

import (
	"io"
	"io/fs"
	"time"
)

// MockFS provides a mock implementation of the fs.FS interface.
type MockFS struct {
	// OpenFunc allows for customizing the behavior of the Open method.
	OpenFunc func(name string) (fs.File, error)
}

// Open calls the OpenFunc field of the MockFS struct.
func (m *MockFS) Open(name string) (fs.File, error) {
	return m.OpenFunc(name)
}

// FileWith returns a MockFS serving content under every name.
func FileWith(content string) *MockFS {
	return &MockFS{
		OpenFunc: func(name string) (fs.File, error) {
			return &MockFile{Name: name, Content: []byte(content)}, nil
		},
	}
}

// MockFile is a mock implementation of the fs.File interface.
type MockFile struct {
	Name string
	// Content is returned by Read.
	Content []byte
	// ReadErr is returned once Content is exhausted instead of io.EOF.
	ReadErr error
	// CloseFunc optionally replaces the behavior of Close.
	CloseFunc func() error

	readPos int
}

// Read copies the unread part of Content into b.
func (mf *MockFile) Read(b []byte) (int, error) {
	if mf.readPos >= len(mf.Content) {
		if mf.ReadErr != nil {
			return 0, mf.ReadErr
		}
		return 0, io.EOF
	}
	n := copy(b, mf.Content[mf.readPos:])
	mf.readPos += n
	return n, nil
}

// Close calls CloseFunc if set.
func (mf *MockFile) Close() error {
	if mf.CloseFunc != nil {
		return mf.CloseFunc()
	}
	return nil
}

// Stat describes the file as a regular file of len(Content) bytes.
func (mf *MockFile) Stat() (fs.FileInfo, error) {
	return fileInfo{mf}, nil
}

type fileInfo struct{ f *MockFile }

func (fi fileInfo) Name() string       { return fi.f.Name }
func (fi fileInfo) Size() int64        { return int64(len(fi.f.Content)) }
func (fi fileInfo) Mode() fs.FileMode  { return 0o644 }
func (fi fileInfo) ModTime() time.Time { return time.Time{} }
func (fi fileInfo) IsDir() bool        { return false }
func (fi fileInfo) Sys() any           { return nil }
