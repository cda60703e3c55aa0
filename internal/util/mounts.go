package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// MountInfo describes the filesystem a share lives on
type MountInfo struct {
	Network   bool   // whether the filesystem is network-mounted
	FSType    string // filesystem type name (nfs, cifs, smbfs, ...)
	MountPath string // mount point, empty when unknown
}

// networkFSTypes are the filesystem type names treated as network shares
var networkFSTypes = []string{
	"nfs",
	"cifs",
	"smb",
	"ncpfs",
	"afpfs",
	"webdav",
	"fuse.sshfs",
	"fuse.rclone",
}

// DetectMount reports the filesystem the given path is stored on
func DetectMount(path string) (*MountInfo, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return detectMount(abs)
}

// IsNetworkFSType reports whether fsType names a network filesystem
func IsNetworkFSType(fsType string) bool {
	fsType = strings.ToLower(fsType)
	for _, n := range networkFSTypes {
		if strings.Contains(fsType, n) {
			return true
		}
	}
	return false
}

// String formats the mount for log output
func (m *MountInfo) String() string {
	if !m.Network {
		return "local filesystem"
	}
	if m.MountPath == "" {
		return m.FSType + " share"
	}
	return fmt.Sprintf("%s share at %s", m.FSType, m.MountPath)
}
