package forkchoice

import "github.com/pkg/errors"

// ErrUnknownParent is returned by AddBlock when a node's parent root is
// neither the zero root nor already present in the store.
var ErrUnknownParent = errors.New("forkchoice: unknown parent root")

// ErrNotStarted is returned by AddBlock when called before Start or after
// Stop.
var ErrNotStarted = errors.New("forkchoice: store not started")

// ErrNoJustifiedBlock is returned by Head when the justified checkpoint's
// block root has never been added via AddBlock.
var ErrNoJustifiedBlock = errors.New("forkchoice: justified checkpoint block not found")
