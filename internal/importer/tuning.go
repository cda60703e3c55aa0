package importer

import (
	"github.com/franz/musicdb/internal/util"
)

// maxNetworkConcurrency caps parallel tag reads on a network share. Most
// NAS devices serve a handful of concurrent clients well and stall beyond.
const maxNetworkConcurrency = 4

// Tuning is the effective read strategy for one share
type Tuning struct {
	Concurrency int
	Retry       util.RetryPolicy
	Mount       *util.MountInfo
}

// Tune picks the read strategy for shareRoot. networkMode forces network
// (true) or local (false) behavior; nil detects it from the mount.
func Tune(shareRoot string, networkMode *bool, concurrency int) *Tuning {
	t := &Tuning{
		Concurrency: concurrency,
		Retry:       util.LocalRetryPolicy(),
		Mount:       &util.MountInfo{},
	}

	if mount, err := util.DetectMount(shareRoot); err != nil {
		util.WarnLog("Failed to detect filesystem for %s: %v", shareRoot, err)
	} else {
		t.Mount = mount
	}

	network := t.Mount.Network
	if networkMode != nil {
		network = *networkMode
		util.InfoLog("Network mode: explicitly %s", map[bool]string{true: "enabled", false: "disabled"}[network])
	}
	if !network {
		util.DebugLog("Share is on %s - using standard settings", t.Mount)
		return t
	}

	t.Retry = util.NetworkRetryPolicy()
	if t.Concurrency <= 0 || t.Concurrency > maxNetworkConcurrency {
		t.Concurrency = maxNetworkConcurrency
	}
	if t.Mount.Network {
		util.InfoLog("Network share detected: %s", t.Mount)
	}
	util.InfoLog("Tuned for network share: %d readers (was %d), %d attempts per file",
		t.Concurrency, concurrency, t.Retry.MaxAttempts)
	return t
}
