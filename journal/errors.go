// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package journal

import "errors"

var ErrCorruptPointer = errors.New("corrupt latest pointer")
