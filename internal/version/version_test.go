package version

import (
	"runtime/debug"
	"testing"

	"github.com/go-playground/assert/v2"
)

func reset(t *testing.T) {
	v, c, b := Version, Commit, BuildDate
	Version, Commit, BuildDate = "dev", "", ""
	t.Cleanup(func() { Version, Commit, BuildDate = v, c, b })
}

func TestFillFromVCSStamp(t *testing.T) {
	reset(t)
	fillFromBuildInfo(&debug.BuildInfo{
		Main: debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	})

	assert.Equal(t, "dev", Version)
	assert.Equal(t, "0123456789ab-dirty", Commit)
	assert.Equal(t, "2026-10-01T12:00:00Z", BuildDate)
}

func TestLinkerFlagsWin(t *testing.T) {
	reset(t)
	Version, Commit = "v1.2.0", "abc1234"
	fillFromBuildInfo(&debug.BuildInfo{
		Main:     debug.Module{Version: "v1.1.0"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "ffffffffffffffff"}},
	})

	assert.Equal(t, "v1.2.0", Version)
	assert.Equal(t, "abc1234", Commit)
	assert.Equal(t, "unknown", BuildDate)
}

func TestModuleVersionUsedForInstalls(t *testing.T) {
	reset(t)
	fillFromBuildInfo(&debug.BuildInfo{Main: debug.Module{Version: "v0.3.0"}})

	assert.Equal(t, "v0.3.0", Version)
	assert.Equal(t, "none", Commit)
	assert.Equal(t, "v0.3.0 (commit none, built unknown, "+GoVersion+")", String())
}
