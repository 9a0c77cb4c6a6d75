package media

import (
	"context"
	"errors"
	"testing"
)

func fakeProbe(t *testing.T, payload string) *FFprobe {
	t.Helper()
	prober := NewFFprobe("")
	prober.WithCommandOutput(func(_ context.Context, name string, args ...string) ([]byte, error) {
		if name != "ffprobe" {
			t.Fatalf("unexpected binary %q", name)
		}
		return []byte(payload), nil
	})
	return prober
}

func TestProbeReadsCreationTime(t *testing.T) {
	prober := fakeProbe(t, `{
		"format": {
			"duration": "42.500000",
			"tags": {"creation_time": "2026-08-01T09:30:00.000000Z", "date": "2020-01-01"}
		}
	}`)

	info, err := prober.Probe(context.Background(), "/in/memo.m4a")
	if err != nil {
		t.Fatal(err)
	}
	if info.RecordedAt != "2026-08-01T09:30:00Z" {
		t.Fatalf("RecordedAt = %q", info.RecordedAt)
	}
	if info.RecordedAtSource != "creation_time" {
		t.Fatalf("RecordedAtSource = %q", info.RecordedAtSource)
	}
	if info.DurationSeconds != 42.5 {
		t.Fatalf("DurationSeconds = %v", info.DurationSeconds)
	}
}

func TestProbeFallsBackToDateTag(t *testing.T) {
	prober := fakeProbe(t, `{
		"format": {"duration": "3.0", "tags": {"date": "2026-02-14"}}
	}`)

	info, err := prober.Probe(context.Background(), "/in/memo.m4a")
	if err != nil {
		t.Fatal(err)
	}
	if info.RecordedAtSource != "date" {
		t.Fatalf("RecordedAtSource = %q", info.RecordedAtSource)
	}
	if info.RecordedAt != "2026-02-14T00:00:00Z" {
		t.Fatalf("RecordedAt = %q", info.RecordedAt)
	}
}

func TestProbeTolerantOfMissingTags(t *testing.T) {
	prober := fakeProbe(t, `{"format": {"duration": "1.0"}}`)

	info, err := prober.Probe(context.Background(), "/in/memo.m4a")
	if err != nil {
		t.Fatal(err)
	}
	if info.RecordedAt != "" || info.RecordedAtSource != "" {
		t.Fatalf("expected empty timestamp, got %+v", info)
	}
}

func TestProbePropagatesCommandFailure(t *testing.T) {
	prober := NewFFprobe("ffprobe")
	prober.WithCommandOutput(func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("exit status 1")
	})

	if _, err := prober.Probe(context.Background(), "/in/missing.m4a"); err == nil {
		t.Fatal("expected error from failing command")
	}
}
