//go:build !ckzg
// +build !ckzg

package dispersal

import "fmt"

// NewCKZGDisperser creates a stub that returns an error when the C bindings are not available
func NewCKZGDisperser(trustedSetupPath string) (Disperser, error) {
	return nil, fmt.Errorf("ckzg support not compiled in. Build with -tags ckzg to enable the C KZG backend")
}
