//go:build linux

package util

import (
	"bufio"
	"io"
	"os"
	"strings"
	"syscall"
)

// Kernel VFS magic numbers of network filesystems
var networkMagic = map[uint32]string{
	0x6969:     "nfs",
	0xff534d42: "cifs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
	0x564c:     "ncpfs",
}

func detectMount(path string) (*MountInfo, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return nil, err
	}

	info := &MountInfo{}
	if fsType, ok := networkMagic[uint32(stat.Type)]; ok {
		info.Network = true
		info.FSType = fsType
	}

	f, err := os.Open("/proc/mounts")
	if err != nil {
		return info, nil
	}
	defer f.Close()

	mountPoint, fsType, err := parseMounts(f, path)
	if err != nil || mountPoint == "" {
		return info, nil
	}
	info.MountPath = mountPoint
	if IsNetworkFSType(fsType) {
		info.Network = true
		info.FSType = strings.ToLower(fsType)
	} else if info.FSType == "" {
		info.FSType = fsType
	}
	return info, nil
}

// parseMounts finds the mount entry in a /proc/mounts listing that holds
// path. The longest mount point on a path boundary wins.
func parseMounts(r io.Reader, path string) (mountPoint, fsType string, err error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 3 {
			continue
		}
		mp := unescapeMount(fields[1])
		if !underMount(path, mp) || len(mp) <= len(mountPoint) {
			continue
		}
		mountPoint, fsType = mp, fields[2]
	}
	return mountPoint, fsType, scanner.Err()
}

func underMount(path, mountPoint string) bool {
	if mountPoint == "/" || path == mountPoint {
		return true
	}
	return strings.HasPrefix(path, mountPoint+"/")
}

// unescapeMount decodes the octal escapes /proc/mounts uses for blanks
func unescapeMount(s string) string {
	r := strings.NewReplacer(`\040`, " ", `\011`, "\t", `\012`, "\n", `\134`, `\`)
	return r.Replace(s)
}
