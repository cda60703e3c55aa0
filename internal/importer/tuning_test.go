package importer

import (
	"testing"

	"github.com/franz/musicdb/internal/util"
)

func TestTune_Local(t *testing.T) {
	local := false
	tuning := Tune(t.TempDir(), &local, 8)

	if tuning.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", tuning.Concurrency)
	}
	if tuning.Retry != util.LocalRetryPolicy() {
		t.Errorf("expected the local retry policy, got %+v", tuning.Retry)
	}
}

func TestTune_ForcedNetwork(t *testing.T) {
	network := true
	tuning := Tune(t.TempDir(), &network, 16)

	if tuning.Concurrency != maxNetworkConcurrency {
		t.Errorf("expected concurrency %d, got %d", maxNetworkConcurrency, tuning.Concurrency)
	}
	if tuning.Retry != util.NetworkRetryPolicy() {
		t.Errorf("expected the network retry policy, got %+v", tuning.Retry)
	}

	if got := Tune(t.TempDir(), &network, 2).Concurrency; got != 2 {
		t.Errorf("lower concurrency must be kept, got %d", got)
	}
	if got := Tune(t.TempDir(), &network, 0).Concurrency; got != maxNetworkConcurrency {
		t.Errorf("unset concurrency should become %d, got %d", maxNetworkConcurrency, got)
	}
}

func TestTune_MissingShare(t *testing.T) {
	tuning := Tune("/nonexistent/share/for/tuning", nil, 8)

	if tuning.Mount == nil || tuning.Mount.Network {
		t.Errorf("a share that cannot be inspected is treated as local: %+v", tuning.Mount)
	}
	if tuning.Concurrency != 8 {
		t.Errorf("expected concurrency 8, got %d", tuning.Concurrency)
	}
}
