package resourcemgr

import "github.com/kestrel-render/kestrel/resource"

// Uploader is the abstract GPU backend the manager hands ready resources to.
// Concrete GPU backends are external per SPEC_FULL.md §1; the manager only
// needs to know how many bytes landed on the device and whether it failed.
type Uploader interface {
	Upload(res *resource.Resource) (bytesGPU uint64, err error)
}
