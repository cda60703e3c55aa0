//go:build linux

package util

import (
	"strings"
	"testing"
)

const procMounts = `sysfs /sys sysfs rw,nosuid,nodev,noexec,relatime 0 0
/dev/sda1 / ext4 rw,relatime 0 0
nas:/export/music /mnt/music nfs4 rw,relatime,vers=4.2 0 0
//nas/audio /mnt/music-archive cifs rw,relatime 0 0
/dev/sdb1 /mnt/My\040Music ext4 rw,relatime 0 0
`

func TestParseMounts(t *testing.T) {
	tests := []struct {
		path       string
		mountPoint string
		fsType     string
	}{
		{"/home/franz/music", "/", "ext4"},
		{"/mnt/music/Queen", "/mnt/music", "nfs4"},
		{"/mnt/music", "/mnt/music", "nfs4"},
		{"/mnt/music-archive/Queen", "/mnt/music-archive", "cifs"},
		{"/mnt/musicx", "/", "ext4"},
		{"/mnt/My Music/ABBA", "/mnt/My Music", "ext4"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			mp, fs, err := parseMounts(strings.NewReader(procMounts), tt.path)
			if err != nil {
				t.Fatalf("parseMounts() error = %v", err)
			}
			if mp != tt.mountPoint || fs != tt.fsType {
				t.Errorf("parseMounts(%q) = %q, %q; want %q, %q", tt.path, mp, fs, tt.mountPoint, tt.fsType)
			}
		})
	}
}
