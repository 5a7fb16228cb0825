// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package jsonrpc

import "errors"

var ErrMissingRequest = errors.New("missing settlement request")
