// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package utils

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/perms"

	formatter "github.com/onsi/ginkgo/v2/formatter"
)

var ErrInvalidSize = errors.New("invalid size")

// InitSubDirectory creates [rootPath]/[name] if it does not exist and
// returns its path.
func InitSubDirectory(rootPath string, name string) (string, error) {
	p := filepath.Join(rootPath, name)
	return p, os.MkdirAll(p, perms.ReadWriteExecute)
}

// SaveBytes writes [b] to [filename], readable only by the owner.
func SaveBytes(filename string, b []byte) error {
	return os.WriteFile(filename, b, perms.ReadWrite)
}

// LoadBytes reads [filename] and checks that it holds exactly
// [expectedSize] bytes. A negative [expectedSize] accepts any length.
func LoadBytes(filename string, expectedSize int) ([]byte, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	if expectedSize >= 0 && len(b) != expectedSize {
		return nil, fmt.Errorf("%w: expected=%d found=%d", ErrInvalidSize, expectedSize, len(b))
	}
	return b, nil
}

// Outf writes to stdout, expanding color directives.
//
// e.g.,
//
//	Outf("{{green}}{{bold}}settled %d{{/}}\n", 3)
func Outf(format string, args ...interface{}) {
	s := formatter.F(format, args...)
	fmt.Fprint(formatter.ColorableStdOut, s)
}
