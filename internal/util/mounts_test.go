package util

import "testing"

func TestIsNetworkFSType(t *testing.T) {
	tests := map[string]bool{
		"nfs":         true,
		"nfs4":        true,
		"cifs":        true,
		"smbfs":       true,
		"fuse.sshfs":  true,
		"fuse.rclone": true,
		"ext4":        false,
		"apfs":        false,
		"tmpfs":       false,
		"":            false,
	}
	for fsType, want := range tests {
		if got := IsNetworkFSType(fsType); got != want {
			t.Errorf("IsNetworkFSType(%q) = %v, want %v", fsType, got, want)
		}
	}
}

func TestDetectMount_TempDir(t *testing.T) {
	info, err := DetectMount(t.TempDir())
	if err != nil {
		t.Fatalf("DetectMount() error = %v", err)
	}
	if info == nil {
		t.Fatal("expected mount info")
	}
	t.Logf("temp dir is on %s", info)
}

func TestMountInfoString(t *testing.T) {
	if s := (&MountInfo{}).String(); s != "local filesystem" {
		t.Errorf("unexpected local string: %q", s)
	}
	m := &MountInfo{Network: true, FSType: "nfs", MountPath: "/mnt/music"}
	if s := m.String(); s != "nfs share at /mnt/music" {
		t.Errorf("unexpected network string: %q", s)
	}
}
