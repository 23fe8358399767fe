package paths

import (
	"testing"
)

func TestResolveCollisionsNone(t *testing.T) {
	targets := []DownloadTarget{
		{RemotePath: "/srv/a.txt", Name: "a.txt", LocalPath: "/tmp/a.txt"},
		{RemotePath: "/srv/b.txt", Name: "b.txt", LocalPath: "/tmp/b.txt"},
	}

	resolved, count := ResolveCollisions(targets)
	if count != 0 {
		t.Errorf("collision count = %d, want 0", count)
	}
	if resolved[0].LocalPath != "/tmp/a.txt" || resolved[1].LocalPath != "/tmp/b.txt" {
		t.Errorf("paths changed without collision: %+v", resolved)
	}
}

func TestResolveCollisionsDuplicateNames(t *testing.T) {
	targets := []DownloadTarget{
		{RemotePath: "/srv/run1/report.txt", Name: "report.txt", LocalPath: "/tmp/report.txt"},
		{RemotePath: "/srv/run2/report.txt", Name: "report.txt", LocalPath: "/tmp/report.txt"},
		{RemotePath: "/srv/other.dat", Name: "other.dat", LocalPath: "/tmp/other.dat"},
	}

	resolved, count := ResolveCollisions(targets)
	if count != 2 {
		t.Errorf("collision count = %d, want 2", count)
	}

	seen := make(map[string]bool)
	for _, tgt := range resolved {
		if seen[tgt.LocalPath] {
			t.Errorf("duplicate local path after resolution: %s", tgt.LocalPath)
		}
		seen[tgt.LocalPath] = true
	}

	if resolved[2].LocalPath != "/tmp/other.dat" {
		t.Errorf("non-colliding path modified: %s", resolved[2].LocalPath)
	}
	if resolved[0].LocalPath != "/tmp/report_1.txt" {
		t.Errorf("first collision = %s, want /tmp/report_1.txt", resolved[0].LocalPath)
	}
	if resolved[1].LocalPath != "/tmp/report_2.txt" {
		t.Errorf("second collision = %s, want /tmp/report_2.txt", resolved[1].LocalPath)
	}
}

func TestResolveCollisionsNoExtension(t *testing.T) {
	targets := []DownloadTarget{
		{RemotePath: "/srv/x/Makefile", Name: "Makefile", LocalPath: "/tmp/Makefile"},
		{RemotePath: "/srv/y/Makefile", Name: "Makefile", LocalPath: "/tmp/Makefile"},
	}

	resolved, count := ResolveCollisions(targets)
	if count != 2 {
		t.Errorf("collision count = %d, want 2", count)
	}
	if resolved[0].LocalPath != "/tmp/Makefile_1" || resolved[1].LocalPath != "/tmp/Makefile_2" {
		t.Errorf("unexpected resolution: %q, %q", resolved[0].LocalPath, resolved[1].LocalPath)
	}
}

func TestResolveCollisionsEmpty(t *testing.T) {
	resolved, count := ResolveCollisions(nil)
	if resolved != nil || count != 0 {
		t.Errorf("ResolveCollisions(nil) = %v, %d, want nil, 0", resolved, count)
	}
}
