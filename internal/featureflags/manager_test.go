package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	assert.True(t, m.Enabled("a", 1))
	assert.True(t, m.Enabled("c", 1))
	assert.True(t, m.Enabled("e", 1))
	assert.False(t, m.Enabled("b", 1))
	assert.False(t, m.Enabled("d", 1))
	assert.False(t, m.Enabled("f", 1))
	assert.False(t, m.Enabled("unknown", 1))
}

func TestDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(Recommendations, 0))
	assert.True(t, m.Enabled(Feedback, 0))
	assert.True(t, m.EnabledForSession(MenuCache, ""))

	m = NewManager("feedback=off, Recommendations = OFF")
	assert.False(t, m.Enabled(Feedback, 5))
	assert.False(t, m.EnabledForSession(Recommendations, "abc"))
	assert.True(t, m.Enabled(MenuCache, 5))
}

func TestEnabled_PercentageValues(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,broken=x%")

	assert.True(t, m.Enabled("always", 1))
	assert.False(t, m.Enabled("never", 1))
	assert.False(t, m.Enabled("broken", 1))

	first := m.Enabled("canary", 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", 42), "rollout evaluation must be deterministic per user")
	}
	session := m.EnabledForSession("canary", "7f1c2b9a-0000-4000-8000-000000000000")
	assert.Equal(t, session, m.EnabledForSession("canary", "7f1c2b9a-0000-4000-8000-000000000000"))

	assert.False(t, m.Enabled("canary", 0), "percentage rollout requires a subject")
	assert.False(t, m.EnabledForSession("canary", ""))
}

func TestPercentageRolloutDistribution(t *testing.T) {
	m := NewManager("half=50%")
	on := 0
	for id := uint(1); id <= 2000; id++ {
		if m.Enabled("half", id) {
			on++
		}
	}
	assert.InDelta(t, 1000, on, 150)
}

func TestParseAndSnapshot(t *testing.T) {
	m := NewManager(" bad ,x=on, y = 20% ,z=off ")

	raw := m.Raw()
	assert.Len(t, raw, 3+len(Defaults))
	assert.Equal(t, "on", raw["x"])
	assert.Equal(t, "20%", raw["y"])
	assert.Equal(t, "off", raw["z"])

	assert.Len(t, m.Snapshot(123), 3+len(Defaults))
	assert.Equal(t, []string{"feedback", "menu_cache", "recommendations", "x", "y", "z"}, m.Names())

	var nilManager *Manager
	assert.False(t, nilManager.Enabled("x", 1))
}
