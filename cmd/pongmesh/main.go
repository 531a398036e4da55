// Command pongmesh is the player-facing CLI: it registers with a signaling
// server, negotiates a direct WebRTC connection with a peer, and runs the
// match loop. Banner/boxed-output style and the host/join flag-set layout
// are grounded on cmd/sfo-helper/main.go's runHost/runJoin.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/holloway-fold/pongmesh/internal/game"
	"github.com/holloway-fold/pongmesh/internal/gameconfig"
	"github.com/holloway-fold/pongmesh/internal/natpunch"
	"github.com/holloway-fold/pongmesh/internal/rtc"
	"github.com/holloway-fold/pongmesh/internal/session"
)

const (
	version = "1.0.0"
	banner  = `
╔═══════════════════════════════════════════════╗
║              pongmesh v%s                   ║
║   peer-to-peer Pong over WebRTC                ║
╚═══════════════════════════════════════════════╝
`
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "host":
		runHost(os.Args[2:])
	case "join":
		runJoin(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: pongmesh <host|join> [flags]")
}

func runHost(args []string) {
	fs := flag.NewFlagSet("host", flag.ExitOnError)
	cfg := gameconfig.Default()

	fs.StringVar(&cfg.Network.SignalingServer, "signal", cfg.Network.SignalingServer, "Signaling server URL")
	peerID := fs.String("peer-id", "", "Your peer ID, shared with your opponent (generated if empty)")
	targetID := fs.String("target-id", "", "Your opponent's peer ID (required)")
	side := fs.String("side", "left", "Which paddle you control: left or right")
	skipUPnP := fs.Bool("skip-upnp", false, "Skip UPnP port mapping")

	fs.Parse(args)
	cfg.LoadFromEnv()

	if *peerID == "" {
		*peerID = newPeerID()
	}
	if *targetID == "" {
		fmt.Println("Error: --target-id is required")
		fs.Usage()
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	localSide := parseSide(*side)

	fmt.Printf(banner, version)
	fmt.Println("Mode: HOST")
	fmt.Printf("Peer ID: %s\n", *peerID)
	fmt.Printf("Opponent: %s\n", *targetID)
	fmt.Printf("Signaling: %s\n\n", cfg.Network.SignalingServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyShutdown(cancel)

	if !*skipUPnP {
		attemptNATPunch(ctx)
	}

	allowed, err := rtc.SelectInterfaces()
	if err != nil {
		log.Printf("warning: interface discovery failed, gathering on all interfaces: %v", err)
	}

	rt, err := session.Host(ctx, cfg.Network.SignalingServer, *peerID, *targetID, allowed, cfg.Network.ConnectionTimeout)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	rt.SetStateChangeCallback(logStateChange)

	runMatch(ctx, cfg, rt, game.RoleHost, localSide)
}

func runJoin(args []string) {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	cfg := gameconfig.Default()

	fs.StringVar(&cfg.Network.SignalingServer, "signal", cfg.Network.SignalingServer, "Signaling server URL")
	peerID := fs.String("peer-id", "", "Your peer ID, shared with your opponent (generated if empty)")
	side := fs.String("side", "right", "Which paddle you control: left or right")
	skipUPnP := fs.Bool("skip-upnp", false, "Skip UPnP port mapping")

	fs.Parse(args)
	cfg.LoadFromEnv()

	if *peerID == "" {
		*peerID = newPeerID()
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	localSide := parseSide(*side)

	fmt.Printf(banner, version)
	fmt.Println("Mode: JOIN")
	fmt.Printf("Peer ID: %s\n", *peerID)
	fmt.Printf("Signaling: %s\n\n", cfg.Network.SignalingServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	notifyShutdown(cancel)

	if !*skipUPnP {
		attemptNATPunch(ctx)
	}

	allowed, err := rtc.SelectInterfaces()
	if err != nil {
		log.Printf("warning: interface discovery failed, gathering on all interfaces: %v", err)
	}

	rt, err := session.Join(ctx, cfg.Network.SignalingServer, *peerID, allowed, cfg.Network.ConnectionTimeout)
	if err != nil {
		log.Fatalf("Failed to start session: %v", err)
	}
	rt.SetStateChangeCallback(logStateChange)

	runMatch(ctx, cfg, rt, game.RoleClient, localSide)
}

func runMatch(ctx context.Context, cfg gameconfig.Config, rt *session.Runtime, role game.Role, localSide game.Side) {
	defer rt.Close()

	fmt.Println("Waiting for the data channel to open...")
	if err := waitForDataChannel(ctx, rt); err != nil {
		log.Fatalf("Connection failed: %v", err)
	}

	fmt.Println()
	fmt.Println("╔═══════════════════════════════════════════════╗")
	fmt.Println("║    CONNECTED — match starting                 ║")
	fmt.Println("╚═══════════════════════════════════════════════╝")
	fmt.Println()

	input := newStdinInput()
	defer input.Close()

	loop := game.NewLoop(cfg, rt, input, &textRenderer{}, role, localSide)
	if err := loop.Run(ctx); err != nil {
		fmt.Printf("\nMatch ended: %v\n", err)
	}
}

func waitForDataChannel(ctx context.Context, rt *session.Runtime) error {
	for {
		select {
		case ev := <-rt.Events:
			switch ev.Kind {
			case session.EventDataChannelOpened:
				return nil
			case session.EventDisconnected:
				return fmt.Errorf("disconnected before connecting")
			case session.EventError:
				fmt.Printf("warning: %v\n", ev.Err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func logStateChange(s session.State) {
	fmt.Printf("[%s] State: %s\n", time.Now().Format("15:04:05"), s)
}

func attemptNATPunch(ctx context.Context) {
	puncher, err := natpunch.Discover(ctx)
	if err != nil {
		return // no IGD on this network; ICE will still try STUN/host candidates
	}
	if name, err := natpunch.GatewayName(ctx); err == nil {
		fmt.Printf("Found gateway: %s\n", name)
	}
	_ = puncher // actual port to map isn't known until ICE picks one; left for the gateway's default NAT behavior
}

// newPeerID generates a short, shareable ID when the player doesn't supply
// one, taking the leading 8 hex characters of a random UUIDv4 rather than
// the full 36-character form the player would have to read aloud.
func newPeerID() string {
	return uuid.New().String()[:8]
}

func parseSide(s string) game.Side {
	if strings.EqualFold(s, "right") {
		return game.SideRight
	}
	return game.SideLeft
}

func notifyShutdown(cancel context.CancelFunc) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		cancel()
	}()
}

// textRenderer is the minimal stand-in for the out-of-scope presentation
// layer: it prints the scoreboard whenever it changes.
type textRenderer struct {
	lastLeft, lastRight uint8
	lastOver            bool
}

func (r *textRenderer) Render(s *game.State) {
	if s.LeftScore != r.lastLeft || s.RightScore != r.lastRight || s.GameOver != r.lastOver {
		r.lastLeft, r.lastRight, r.lastOver = s.LeftScore, s.RightScore, s.GameOver
		status := ""
		if s.GameOver {
			status = "  GAME OVER — press r to rematch, q to quit"
		}
		fmt.Printf("  %d : %d%s\n", s.LeftScore, s.RightScore, status)
	}
}

// stdinInput is the minimal stand-in for the out-of-scope control layer:
// w/s move the local paddle, q quits, r requests a rematch once the game
// is over. Held-key semantics aren't meaningful over a line-buffered
// terminal, so each key press is treated as one tick of movement.
type stdinInput struct {
	lines   chan string
	done    chan struct{}
	moving  bool
	up      bool
	quit    bool
	rematch bool
}

func newStdinInput() *stdinInput {
	in := &stdinInput{
		lines: make(chan string, 16),
		done:  make(chan struct{}),
	}
	go in.readLoop()
	return in
}

func (in *stdinInput) readLoop() {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case in.lines <- scanner.Text():
		case <-in.done:
			return
		}
	}
}

func (in *stdinInput) drain() {
	for {
		select {
		case line := <-in.lines:
			switch strings.TrimSpace(line) {
			case "w":
				in.moving, in.up = true, true
			case "s":
				in.moving, in.up = true, false
			case "q":
				in.quit = true
			case "r":
				in.rematch = true
			default:
				in.moving = false
			}
		default:
			return
		}
	}
}

func (in *stdinInput) PaddleDirection() (up bool, moving bool) {
	in.drain()
	m := in.moving
	in.moving = false // one tick of movement per key press
	return in.up, m
}

func (in *stdinInput) QuitRequested() bool {
	in.drain()
	return in.quit
}

func (in *stdinInput) RematchRequested() bool {
	in.drain()
	r := in.rematch
	in.rematch = false
	return r
}

func (in *stdinInput) Close() {
	close(in.done)
}
