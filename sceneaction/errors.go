package sceneaction

import "errors"

// errIncompleteAtSeal is returned by Collection.Seal when the last action is
// still Incomplete; a sealed log (about to be flushed) may not end on an
// open action.
var errIncompleteAtSeal = errors.New("sceneaction: collection ends in an incomplete action")
