//go:build !linux && !darwin

package util

// Unsupported platforms are assumed local
func detectMount(path string) (*MountInfo, error) {
	return &MountInfo{}, nil
}
