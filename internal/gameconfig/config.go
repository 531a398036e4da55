// Package gameconfig holds the tunable constants that drive physics,
// networking timing, and display, mirroring the original engine's
// config record so both peers in a match agree on the same numbers.
package gameconfig

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Physics holds the numeric constants driving ball and paddle motion.
type Physics struct {
	BallInitialSpeed   float64
	PaddleHeight       float64
	PaddleTapDistance  float64
	WinningScore       uint8
	BallSpeedMultiplier float64
	VirtualWidth       float64
	VirtualHeight      float64
}

// Network holds signaling and data-channel timing.
type Network struct {
	SignalingServer      string
	BackupSyncInterval   int
	ConnectionTimeout    time.Duration
	HeartbeatInterval    time.Duration
}

// Display holds the target render rate the fixed-timestep loop paces
// itself against.
type Display struct {
	TargetFPS int
}

// Config is the full set of match parameters, shared verbatim by host and
// client so dead-reckoning and collision math stay in lockstep.
type Config struct {
	Physics Physics
	Network Network
	Display Display
}

// Default returns the engine's stock tuning, matching the original
// implementation's defaults exactly so a capture from either side is
// reproducible.
func Default() Config {
	return Config{
		Physics: Physics{
			BallInitialSpeed:    600.0,
			PaddleHeight:        90.0,
			PaddleTapDistance:   40.0,
			WinningScore:        5,
			BallSpeedMultiplier: 1.1,
			VirtualWidth:        1200.0,
			VirtualHeight:       600.0,
		},
		Network: Network{
			SignalingServer:    "wss://pongmesh-signal.fly.dev/ws",
			BackupSyncInterval: 3,
			ConnectionTimeout:  300 * time.Second,
			HeartbeatInterval:  2000 * time.Millisecond,
		},
		Display: Display{
			TargetFPS: 60,
		},
	}
}

// Validate checks that a Config describes a playable match.
func (c Config) Validate() error {
	if c.Physics.BallInitialSpeed <= 0 {
		return fmt.Errorf("gameconfig: ball_initial_speed must be positive")
	}
	if c.Physics.PaddleHeight <= 0 {
		return fmt.Errorf("gameconfig: paddle_height must be positive")
	}
	if c.Physics.WinningScore == 0 {
		return fmt.Errorf("gameconfig: winning_score must be at least 1")
	}
	if c.Physics.BallSpeedMultiplier < 1.0 {
		return fmt.Errorf("gameconfig: ball_speed_multiplier must be >= 1.0")
	}
	if c.Physics.VirtualWidth <= 0 || c.Physics.VirtualHeight <= 0 {
		return fmt.Errorf("gameconfig: virtual_width/virtual_height must be positive")
	}
	if c.Network.SignalingServer == "" {
		return fmt.Errorf("gameconfig: signaling_server is required")
	}
	if c.Network.BackupSyncInterval <= 0 {
		return fmt.Errorf("gameconfig: backup_sync_interval must be positive")
	}
	if c.Display.TargetFPS <= 0 {
		return fmt.Errorf("gameconfig: target_fps must be positive")
	}
	return nil
}

// LoadFromEnv overlays environment variables onto c, mirroring the
// teacher's internal/client/config LoadFromEnv pattern: only variables that
// are actually set override the existing value.
func (c *Config) LoadFromEnv() {
	if v := os.Getenv("PONGMESH_SIGNALING_URL"); v != "" {
		c.Network.SignalingServer = v
	}
	if v := os.Getenv("PONGMESH_WINNING_SCORE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 255 {
			c.Physics.WinningScore = uint8(n)
		}
	}
	if v := os.Getenv("PONGMESH_TARGET_FPS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Display.TargetFPS = n
		}
	}
}
