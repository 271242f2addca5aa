// Command wayoa runs the compositor: a Wayland display server that mirrors
// each client toplevel as a native host window.
package main

import (
	"log"
	"os"

	"github.com/ericcurtin/wayoa/internal/compositor"
	"github.com/ericcurtin/wayoa/internal/hostdarwin"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("wayoa: ")

	sock, err := compositor.Listen()
	if err != nil {
		log.Fatalf("listen: %v", err)
	}
	defer sock.Close()

	if err := os.Setenv("WAYLAND_DISPLAY", sock.Name); err != nil {
		log.Fatalf("export WAYLAND_DISPLAY: %v", err)
	}
	log.Printf("listening on %s (WAYLAND_DISPLAY=%s)", sock.Path, sock.Name)

	bridge, err := hostdarwin.NewBridge()
	if err != nil {
		log.Fatalf("host bridge: %v", err)
	}
	defer bridge.Close()

	k := compositor.NewKernel(bridge)
	k.Outputs.AddOutput("primary", 0, 0, compositor.OutputMode{Width: 1920, Height: 1080, RefreshMilliHz: 60000}, 1)
	bridge.Attach(k)

	go k.ServeListener(sock)
	k.Run()
}
