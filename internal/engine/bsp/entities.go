package bsp

import (
	"github.com/Faultbox/blackbloc/pkg/math"
)

// SpawnPoint is where and which way a player enters the map.
type SpawnPoint struct {
	Origin math.Vec3
	// Yaw is in degrees, in the camera's convention.
	Yaw float32
}

// Speaker is an ambient sound emitter placed in the map.
type Speaker struct {
	Origin math.Vec3
	Noise  string
	Looped bool
}

const speakerLoopedOn = 1

// SpawnPoint returns the first info_player_start, falling back to the first
// info_player_deathmatch. ok is false when the map has neither.
func (m *Map) SpawnPoint() (sp SpawnPoint, ok bool) {
	for _, class := range []string{"info_player_start", "info_player_deathmatch"} {
		for i := range m.Entities {
			e := &m.Entities[i]
			if e.ClassName() != class {
				continue
			}
			origin, found := e.Vector("origin")
			if !found {
				continue
			}
			angle, _ := e.Float("angle")
			return SpawnPoint{Origin: swizzle(origin), Yaw: angle + 180}, true
		}
	}
	return SpawnPoint{}, false
}

// Speakers returns the map's target_speaker entities that name a sound.
func (m *Map) Speakers() []Speaker {
	var out []Speaker
	for i := range m.Entities {
		e := &m.Entities[i]
		if e.ClassName() != "target_speaker" || e.Get("noise") == "" {
			continue
		}
		origin, _ := e.Vector("origin")
		flags, _ := e.Float("spawnflags")
		out = append(out, Speaker{
			Origin: swizzle(origin),
			Noise:  e.Get("noise"),
			Looped: int(flags)&speakerLoopedOn != 0,
		})
	}
	return out
}
